package service

import (
	"strings"
	"testing"

	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/pkg/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjectService(projects ...*model.Project) (*ProjectService, *mockPageRepo, *mockRowRepo) {
	projectRepo := newMockProjectRepo(projects...)
	pageRepo := newMockPageRepo()
	rowRepo := newMockRowRepo()
	rowService := NewRowService(testConfig(), projectRepo, pageRepo, rowRepo, nil)
	return NewProjectService(projectRepo, pageRepo, rowRepo, rowService, nil), pageRepo, rowRepo
}

func TestAddPageAppendsInOrder(t *testing.T) {
	project := testProject()
	svc, _, _ := newTestProjectService(project)

	first, err := svc.AddPage(nil, project.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "New Page", first.Name)
	assert.Equal(t, 1, first.SortOrder)

	second, err := svc.AddPage(nil, project.ID, "Errors")
	require.NoError(t, err)
	assert.Equal(t, 2, second.SortOrder)

	_, err = svc.AddPage(nil, 999, "")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestPageEditsRefreshLoadedView(t *testing.T) {
	project := testProject()
	svc, _, _ := newTestProjectService(project)

	_, err := svc.Load(project.ID)
	require.NoError(t, err)

	page, err := svc.AddPage(nil, project.ID, "Strings")
	require.NoError(t, err)

	// The page edit drops the snapshot, so the next load already sees it.
	view, err := svc.Load(project.ID)
	require.NoError(t, err)
	require.Len(t, view.Pages, 1)
	assert.Equal(t, page.ID, view.Pages[0].ID)

	require.NoError(t, svc.DeletePage(nil, page.ID))
	view, err = svc.Load(project.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Pages)
}

func TestDeletePageCascadesRows(t *testing.T) {
	project := testProject()
	svc, pageRepo, rowRepo := newTestProjectService(project)

	page, err := svc.AddPage(nil, project.ID, "Strings")
	require.NoError(t, err)
	rowRepo.put(&model.Row{RowID: "r-1", ProjectID: project.ID, PageID: &page.ID, SourceText: "Save", Status: model.StatusDraft, Version: 1})
	rowRepo.put(&model.Row{RowID: "r-2", ProjectID: project.ID, PageID: &page.ID, SourceText: "Open", Status: model.StatusDraft, Version: 1})

	require.NoError(t, svc.DeletePage(nil, page.ID))

	assert.Empty(t, rowRepo.rows)
	_, err = pageRepo.Get(page.ID)
	assert.Error(t, err)
}

func TestImportCreatesPagesFromSheets(t *testing.T) {
	project := testProject()
	svc, pageRepo, rowRepo := newTestProjectService(project)

	sheets := []importer.Sheet{
		{Name: "Buttons", Entries: []importer.Entry{
			{SourceText: "Save", Translations: map[string]string{"de": "Speichern"}},
			{SourceText: "Open"},
		}},
		{Name: "Errors", Entries: []importer.Entry{
			{SourceText: "Not found", Context: "404 page"},
		}},
	}

	imported, err := svc.Import(nil, project.ID, sheets)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	pages, err := pageRepo.GetByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Buttons", pages[0].Name)
	assert.Equal(t, "Errors", pages[1].Name)

	rows, err := rowRepo.GetByPage(pages[0].ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Speichern", rows[0].Translations["de"].Text)
	assert.Equal(t, model.StatusDraft, rows[0].Translations["de"].Status)
}

func TestExportCSVFlattensTranslations(t *testing.T) {
	project := testProject()
	svc, pageRepo, rowRepo := newTestProjectService(project)

	page := &model.Page{ProjectID: project.ID, Name: "Page 1", SortOrder: 1}
	require.NoError(t, pageRepo.Create(page))
	rowRepo.put(&model.Row{
		RowID: "r-1", ProjectID: project.ID, PageID: &page.ID,
		SourceText: "Save",
		Translations: model.TranslationSet{
			"de": {Text: "Speichern", Status: model.StatusApproved},
		},
		Status: model.StatusReview, SortOrder: 1, Version: 1,
	})

	data, filename, err := svc.ExportCSV(project.ID)
	require.NoError(t, err)
	assert.Equal(t, "App Strings-export.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "en,de,fr,status", lines[0])
	// The fr cell is empty; the column still appears.
	assert.Equal(t, "Save,Speichern,,review", lines[1])
}

func TestCreateProjectValidation(t *testing.T) {
	svc, _, _ := newTestProjectService()

	_, err := svc.Create(nil, CreateProjectRequest{Name: "", Languages: []string{"de"}})
	assert.ErrorIs(t, err, ErrProjectNameRequired)

	project, err := svc.Create(nil, CreateProjectRequest{Name: "App", Languages: []string{"de", "fr"}})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, project.Status)
	assert.Equal(t, model.StringList{"de", "fr"}, project.Languages)
}
