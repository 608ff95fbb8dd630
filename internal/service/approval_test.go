package service

import (
	"testing"

	"github.com/lingoflow/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApprovalService(project *model.Project, rows ...*model.Row) (*ApprovalService, *mockRowRepo) {
	projectRepo := newMockProjectRepo(project)
	pageRepo := newMockPageRepo()
	rowRepo := newMockRowRepo()
	for _, r := range rows {
		rowRepo.put(r)
	}
	rowService := NewRowService(testConfig(), projectRepo, pageRepo, rowRepo, nil)
	return NewApprovalService(rowRepo, projectRepo, rowService, nil), rowRepo
}

func reviewRow(projectID uint) *model.Row {
	return &model.Row{
		RowID:      "r-1",
		ProjectID:  projectID,
		SourceText: "Save",
		Translations: model.TranslationSet{
			"de": {Text: "Speichern", Status: model.StatusReview, AssignedManagerID: 1},
			"fr": {Text: "Enregistrer", Status: model.StatusReview},
		},
		Status:  model.StatusReview,
		Version: 1,
	}
}

func TestListPendingFiltersByAssignment(t *testing.T) {
	project := testProject()
	svc, _ := newTestApprovalService(project, reviewRow(project.ID))

	assignee := &model.User{ID: 1, Role: model.RoleManager, Languages: model.StringList{"de", "fr"}}
	pending, err := svc.ListPending(assignee, project.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	// de is assigned to them, fr is unassigned and in their languages.
	assert.Len(t, pending[0].Cells, 2)
	for _, cell := range pending[0].Cells {
		assert.False(t, cell.AssignedToOther)
		assert.NotEmpty(t, cell.Text)
	}

	other := &model.User{ID: 2, Role: model.RoleManager, Languages: model.StringList{"de"}}
	pending, err = svc.ListPending(other, project.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	// They only cover de, which belongs to manager 1: placeholder only.
	require.Len(t, pending[0].Cells, 1)
	assert.True(t, pending[0].Cells[0].AssignedToOther)
	assert.Empty(t, pending[0].Cells[0].Text)
	assert.Equal(t, uint(1), pending[0].Cells[0].AssignedManagerID)
}

func TestListPendingAdminSeesEverything(t *testing.T) {
	project := testProject()
	svc, _ := newTestApprovalService(project, reviewRow(project.ID))

	admin := &model.User{ID: 9, Role: model.RoleAdmin}
	pending, err := svc.ListPending(admin, project.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Len(t, pending[0].Cells, 2)
	for _, cell := range pending[0].Cells {
		assert.False(t, cell.AssignedToOther)
	}
}

func TestListPendingSkipsSettledCells(t *testing.T) {
	project := testProject()
	row := reviewRow(project.ID)
	row.Translations["de"].Status = model.StatusApproved
	svc, _ := newTestApprovalService(project, row)

	manager := &model.User{ID: 1, Role: model.RoleManager, Languages: model.StringList{"de", "fr"}}
	pending, err := svc.ListPending(manager, project.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Len(t, pending[0].Cells, 1)
	assert.Equal(t, "fr", pending[0].Cells[0].Language)
}

func TestListPendingAllAggregatesAcrossProjects(t *testing.T) {
	first := testProject()
	second := &model.Project{Name: "Other App", Languages: model.StringList{"de"}, Status: model.StatusDraft}

	projectRepo := newMockProjectRepo(first, second)
	rowRepo := newMockRowRepo()
	rowRepo.put(reviewRow(first.ID))
	rowRepo.put(&model.Row{
		RowID:      "r-2",
		ProjectID:  second.ID,
		SourceText: "Close",
		Translations: model.TranslationSet{
			"de": {Text: "Schließen", Status: model.StatusReview},
		},
		Status:  model.StatusReview,
		Version: 1,
	})
	rowService := NewRowService(testConfig(), projectRepo, newMockPageRepo(), rowRepo, nil)
	svc := NewApprovalService(rowRepo, projectRepo, rowService, nil)

	admin := &model.User{ID: 9, Role: model.RoleAdmin}
	pending, err := svc.ListPendingAll(admin)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ProjectID)
	assert.Equal(t, second.ID, pending[1].ProjectID)
}

func TestSaveMarksApproveAndReject(t *testing.T) {
	project := testProject()
	row := reviewRow(project.ID)
	row.Translations["de"].Remark = "previous round note"
	svc, _ := newTestApprovalService(project, row)

	manager := &model.User{ID: 1, Role: model.RoleManager, Languages: model.StringList{"de", "fr"}}
	updated, err := svc.SaveMarks(manager, project.ID, row.ID, map[string]CellMark{
		"de": {Action: MarkApprove},
		"fr": {Action: MarkReject, Remark: "wrong register"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, updated.Translations["de"].Status)
	assert.Empty(t, updated.Translations["de"].Remark)
	assert.Equal(t, model.StatusChanges, updated.Translations["fr"].Status)
	assert.Equal(t, "wrong register", updated.Translations["fr"].Remark)
	// Any changes-requested cell dominates the aggregate.
	assert.Equal(t, model.StatusChanges, updated.Status)
}

func TestSaveMarksRejectRequiresRemark(t *testing.T) {
	project := testProject()
	row := reviewRow(project.ID)
	svc, rowRepo := newTestApprovalService(project, row)

	manager := &model.User{ID: 1, Role: model.RoleManager, Languages: model.StringList{"de", "fr"}}
	_, err := svc.SaveMarks(manager, project.ID, row.ID, map[string]CellMark{
		"fr": {Action: MarkReject},
	})
	assert.ErrorIs(t, err, ErrRemarkRequired)

	// Nothing was written.
	stored, getErr := rowRepo.Get(row.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.StatusReview, stored.Translations["fr"].Status)
}

func TestSaveMarksRespectsAssignment(t *testing.T) {
	project := testProject()
	row := reviewRow(project.ID)
	svc, _ := newTestApprovalService(project, row)

	// Manager 2 covers de, but the de cell belongs to manager 1.
	other := &model.User{ID: 2, Role: model.RoleManager, Languages: model.StringList{"de"}}
	_, err := svc.SaveMarks(other, project.ID, row.ID, map[string]CellMark{
		"de": {Action: MarkApprove},
	})
	assert.ErrorIs(t, err, ErrMarkForbidden)
}

func TestReassignPersistsImmediately(t *testing.T) {
	project := testProject()
	row := reviewRow(project.ID)
	svc, rowRepo := newTestApprovalService(project, row)

	admin := &model.User{ID: 9, Role: model.RoleAdmin}
	updated, err := svc.Reassign(admin, project.ID, row.ID, "de", 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), updated.Translations["de"].AssignedManagerID)
	assert.NotNil(t, updated.Translations["de"].AssignedAt)

	stored, err := rowRepo.Get(row.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), stored.Translations["de"].AssignedManagerID)
}

func TestSendForReviewSkipsEmptyCells(t *testing.T) {
	project := testProject()
	row := &model.Row{
		RowID:      "r-1",
		ProjectID:  project.ID,
		SourceText: "Save",
		Translations: model.TranslationSet{
			"de": {Text: "Speichern", Status: model.StatusDraft},
			"fr": {Text: "", Status: model.StatusDraft},
		},
		Status:  model.StatusDraft,
		Version: 1,
	}
	svc, _ := newTestApprovalService(project, row)

	editor := &model.User{ID: 3, Role: model.RoleEditor}
	updated, err := svc.SendForReview(editor, project.ID, ReviewRequest{
		RowIDs:      []uint{row.ID},
		Assignments: map[string]uint{"de": 1},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)

	assert.Equal(t, model.StatusReview, updated[0].Translations["de"].Status)
	assert.Equal(t, uint(1), updated[0].Translations["de"].AssignedManagerID)
	// The empty fr cell stays draft; there is nothing to review.
	assert.Equal(t, model.StatusDraft, updated[0].Translations["fr"].Status)
	assert.Equal(t, model.StatusReview, updated[0].Status)
}
