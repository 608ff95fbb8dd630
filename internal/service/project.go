package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/pkg/importer"
	"github.com/lingoflow/backend/internal/repository"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

var ErrProjectNameRequired = errors.New("project name is required")

// ProjectService owns project and page CRUD. Row access goes through
// RowService so both layouts (paged and legacy flat) stay behind one view.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	pageRepo    repository.PageRepository
	rowRepo     repository.RowRepository
	rowService  *RowService
	audit       *AuditService
}

func NewProjectService(projectRepo repository.ProjectRepository, pageRepo repository.PageRepository, rowRepo repository.RowRepository, rowService *RowService, audit *AuditService) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		pageRepo:    pageRepo,
		rowRepo:     rowRepo,
		rowService:  rowService,
		audit:       audit,
	}
}

type CreateProjectRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=255"`
	Description string   `json:"description" binding:"max=1000"`
	Languages   []string `json:"languages" binding:"required,min=1"`
	Theme       string   `json:"theme"`
}

type UpdateProjectRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=255"`
	Description string   `json:"description" binding:"max=1000"`
	Languages   []string `json:"languages" binding:"required,min=1"`
	Theme       string   `json:"theme"`
}

func (s *ProjectService) Create(actor *model.User, req CreateProjectRequest) (*model.Project, error) {
	if req.Name == "" {
		return nil, ErrProjectNameRequired
	}
	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		Languages:   model.StringList(req.Languages),
		Theme:       req.Theme,
		Status:      model.StatusDraft,
	}
	if actor != nil {
		project.CreatedBy = actor.ID
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "project.create", "project", strconv.FormatUint(uint64(project.ID), 10), project.ID, nil, project)
	}
	return project, nil
}

func (s *ProjectService) List() ([]model.Project, error) {
	return s.projectRepo.List()
}

func (s *ProjectService) Get(id uint) (*model.Project, error) {
	project, err := s.projectRepo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Load returns the uniform rows view regardless of layout.
func (s *ProjectService) Load(id uint) (*ProjectView, error) {
	return s.rowService.LoadProject(id)
}

func (s *ProjectService) Update(actor *model.User, id uint, req UpdateProjectRequest) (*model.Project, error) {
	project, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	before := *project

	project.Name = req.Name
	project.Description = req.Description
	project.Languages = model.StringList(req.Languages)
	project.Theme = req.Theme
	if err := s.projectRepo.Save(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.rowService.invalidate(id)
	if s.audit != nil {
		s.audit.Record(actor, "project.update", "project", strconv.FormatUint(uint64(id), 10), id, before, project)
	}
	return project, nil
}

func (s *ProjectService) Delete(actor *model.User, id uint) error {
	return s.rowService.DeleteProject(actor, id)
}

// AddPage appends a page after the project's current last page. Page order
// is unique within the project and defines display sequence.
func (s *ProjectService) AddPage(actor *model.User, projectID uint, name string) (*model.Page, error) {
	if _, err := s.Get(projectID); err != nil {
		return nil, err
	}
	if name == "" {
		name = "New Page"
	}
	max, err := s.pageRepo.MaxSortOrder(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve page order: %w", err)
	}
	page := &model.Page{ProjectID: projectID, Name: name, SortOrder: max + 1}
	if err := s.pageRepo.Create(page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	s.rowService.invalidate(projectID)
	if s.audit != nil {
		s.audit.Record(actor, "page.create", "page", strconv.FormatUint(uint64(page.ID), 10), projectID, nil, page)
	}
	return page, nil
}

func (s *ProjectService) RenamePage(actor *model.User, pageID uint, name string) (*model.Page, error) {
	page, err := s.pageRepo.Get(pageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	before := *page
	page.Name = name
	if err := s.pageRepo.Save(page); err != nil {
		return nil, fmt.Errorf("failed to rename page: %w", err)
	}
	s.rowService.invalidate(page.ProjectID)
	if s.audit != nil {
		s.audit.Record(actor, "page.rename", "page", strconv.FormatUint(uint64(pageID), 10), page.ProjectID, before, page)
	}
	return page, nil
}

// DeletePage removes a page and its rows. The store does not cascade
// subcollections, so the rows are fetched and deleted explicitly first.
func (s *ProjectService) DeletePage(actor *model.User, pageID uint) error {
	page, err := s.pageRepo.Get(pageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPageNotFound
		}
		return err
	}

	rows, err := s.rowRepo.GetByPage(pageID)
	if err != nil {
		return fmt.Errorf("failed to list page rows: %w", err)
	}
	ids := lo.Map(rows, func(r model.Row, _ int) uint { return r.ID })
	if err := s.rowService.DeleteRows(actor, page.ProjectID, ids); err != nil {
		klog.Errorf("page cascade: row delete incomplete: page=%d: %v", pageID, err)
		return fmt.Errorf("page row cascade incomplete: %w", err)
	}

	if err := s.pageRepo.Delete(pageID); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	s.rowService.invalidate(page.ProjectID)
	if s.audit != nil {
		s.audit.Record(actor, "page.delete", "page", strconv.FormatUint(uint64(pageID), 10), page.ProjectID, page, nil)
	}
	return nil
}

// Import creates one page per parsed sheet and fills it with the sheet's
// entries. Sheets keep arriving even when one fails; the error reports how
// many sheets landed cleanly.
func (s *ProjectService) Import(actor *model.User, projectID uint, sheets []importer.Sheet) (int, error) {
	if _, err := s.Get(projectID); err != nil {
		return 0, err
	}

	imported := 0
	var failed []string
	for _, sheet := range sheets {
		page, err := s.AddPage(actor, projectID, sheet.Name)
		if err != nil {
			klog.Errorf("import: page create failed: project=%d sheet=%q: %v", projectID, sheet.Name, err)
			failed = append(failed, sheet.Name)
			continue
		}

		newRows := lo.Map(sheet.Entries, func(e importer.Entry, _ int) NewRow {
			translations := model.TranslationSet{}
			for lang, text := range e.Translations {
				translations[lang] = &model.TranslationCell{Text: text, Status: model.StatusDraft}
			}
			return NewRow{SourceText: e.SourceText, Context: e.Context, Translations: translations}
		})
		if _, err := s.rowService.AddRows(actor, projectID, &page.ID, newRows); err != nil {
			klog.Errorf("import: row write incomplete: project=%d sheet=%q: %v", projectID, sheet.Name, err)
			failed = append(failed, sheet.Name)
			continue
		}
		imported++
	}

	if s.audit != nil {
		s.audit.Record(actor, "project.import", "project", strconv.FormatUint(uint64(projectID), 10), projectID, nil,
			map[string]int{"sheets": imported})
	}
	if len(failed) > 0 {
		return imported, fmt.Errorf("import incomplete, failed sheets: %v", failed)
	}
	return imported, nil
}

// ExportCSV renders the project's rows with flattened per-language columns.
// The flat layout exists only here, at the serialization boundary; the
// structured translations map stays the single source of truth.
func (s *ProjectService) ExportCSV(projectID uint) ([]byte, string, error) {
	project, err := s.Get(projectID)
	if err != nil {
		return nil, "", err
	}
	view, err := s.rowService.LoadProject(projectID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	header := append([]string{"en"}, project.Languages...)
	header = append(header, "status")
	if err := w.Write(header); err != nil {
		return nil, "", err
	}

	for _, row := range view.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.SourceText)
		for _, lang := range project.Languages {
			text := ""
			if cell := row.Translations[lang]; cell != nil {
				text = cell.Text
			}
			record = append(record, text)
		}
		record = append(record, row.Status)
		if err := w.Write(record); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s-export.csv", project.Name)
	return buf.Bytes(), filename, nil
}
