package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/repository"
	"github.com/lingoflow/backend/internal/service/statusengine"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

var (
	ErrRemarkRequired = errors.New("a rejection requires a remark")
	ErrMarkForbidden  = errors.New("cell is not reviewable by this manager")
	ErrInvalidMark    = errors.New("mark action must be approve or reject")
)

// Mark actions a manager can take on one language cell.
const (
	MarkApprove = "approve"
	MarkReject  = "reject"
)

// ApprovalService drives the review workflow: editors send rows for review,
// managers see the cells assigned to them and settle each one with an
// approve or reject mark.
type ApprovalService struct {
	rowRepo     repository.RowRepository
	projectRepo repository.ProjectRepository
	rowService  *RowService
	audit       *AuditService
}

func NewApprovalService(rowRepo repository.RowRepository, projectRepo repository.ProjectRepository, rowService *RowService, audit *AuditService) *ApprovalService {
	return &ApprovalService{
		rowRepo:     rowRepo,
		projectRepo: projectRepo,
		rowService:  rowService,
		audit:       audit,
	}
}

// PendingCell is one reviewable language cell as the manager sees it. Cells
// assigned to somebody else appear as placeholders with no content so the
// manager knows the row exists without being able to act on it.
type PendingCell struct {
	Language          string `json:"language"`
	Text              string `json:"text,omitempty"`
	Remark            string `json:"remark,omitempty"`
	AssignedManagerID uint   `json:"assigned_manager_id,omitempty"`
	AssignedToOther   bool   `json:"assigned_to_other"`
}

type PendingRow struct {
	RowID      uint          `json:"row_id"`
	PublicID   string        `json:"public_id"`
	ProjectID  uint          `json:"project_id"`
	SourceText string        `json:"source_text"`
	Context    string        `json:"context,omitempty"`
	Cells      []PendingCell `json:"cells"`
}

// ListPending returns the review queue for one manager in one project. Only
// cells in review for the manager's languages that are unassigned or assigned
// to them are actionable; admins see everything still open.
func (s *ApprovalService) ListPending(manager *model.User, projectID uint) ([]PendingRow, error) {
	project, err := s.projectRepo.Get(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	all, err := s.rowRepo.ListByStatus(model.StatusReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows in review: %w", err)
	}
	rows := lo.Filter(all, func(r model.Row, _ int) bool { return r.ProjectID == projectID })
	return s.pendingRows(manager, project, rows), nil
}

// ListPendingAll aggregates the manager's queue across every project. Rows
// in paged and legacy layouts land in the same flat list.
func (s *ApprovalService) ListPendingAll(manager *model.User) ([]PendingRow, error) {
	all, err := s.rowRepo.ListByStatus(model.StatusReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows in review: %w", err)
	}
	byProject := lo.GroupBy(all, func(r model.Row) uint { return r.ProjectID })

	var pending []PendingRow
	for projectID, rows := range byProject {
		project, err := s.projectRepo.Get(projectID)
		if err != nil {
			// Orphaned rows from an interrupted cascade; skip them.
			klog.V(6).Infof("pending aggregation: project lookup failed: project=%d: %v", projectID, err)
			continue
		}
		pending = append(pending, s.pendingRows(manager, project, rows)...)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].ProjectID != pending[j].ProjectID {
			return pending[i].ProjectID < pending[j].ProjectID
		}
		return pending[i].RowID < pending[j].RowID
	})
	return pending, nil
}

func (s *ApprovalService) pendingRows(manager *model.User, project *model.Project, rows []model.Row) []PendingRow {
	pending := make([]PendingRow, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		var cells []PendingCell
		for _, lang := range project.Languages {
			cell := row.Translations[lang]
			if cell == nil || cell.Status != model.StatusReview {
				continue
			}
			if statusengine.IsVisibleToManager(row, lang, manager) {
				cells = append(cells, PendingCell{
					Language:          lang,
					Text:              cell.Text,
					Remark:            cell.Remark,
					AssignedManagerID: cell.AssignedManagerID,
				})
			} else if cell.AssignedManagerID != 0 {
				cells = append(cells, PendingCell{
					Language:          lang,
					AssignedManagerID: cell.AssignedManagerID,
					AssignedToOther:   true,
				})
			}
		}
		if len(cells) == 0 {
			continue
		}
		pending = append(pending, PendingRow{
			RowID:      row.ID,
			PublicID:   row.RowID,
			ProjectID:  row.ProjectID,
			SourceText: row.SourceText,
			Context:    row.Context,
			Cells:      cells,
		})
	}
	return pending
}

// CellMark is one manager decision on one language cell.
type CellMark struct {
	Action string `json:"action" binding:"required"`
	Remark string `json:"remark"`
}

// SaveMarks settles a batch of cells on one row. An approve clears any
// remark; a reject needs one, since the editor has to know what to fix. All
// marks are validated against the manager's visibility before anything is
// written.
func (s *ApprovalService) SaveMarks(manager *model.User, projectID, rowID uint, marks map[string]CellMark) (*model.Row, error) {
	if len(marks) == 0 {
		return nil, ErrInvalidMark
	}
	row, err := s.rowRepo.Get(rowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRowNotFound
		}
		return nil, err
	}
	if row.ProjectID != projectID {
		return nil, ErrRowNotFound
	}

	update := RowUpdate{Translations: make(map[string]CellUpdate, len(marks))}
	for lang, mark := range marks {
		if !statusengine.IsVisibleToManager(row, lang, manager) {
			return nil, fmt.Errorf("%w: %s", ErrMarkForbidden, lang)
		}
		switch mark.Action {
		case MarkApprove:
			update.Translations[lang] = CellUpdate{
				Status: lo.ToPtr(model.StatusApproved),
			}
		case MarkReject:
			if mark.Remark == "" {
				return nil, fmt.Errorf("%w: %s", ErrRemarkRequired, lang)
			}
			update.Translations[lang] = CellUpdate{
				Status: lo.ToPtr(model.StatusChanges),
				Remark: lo.ToPtr(mark.Remark),
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidMark, mark.Action)
		}
	}

	updated, err := s.rowService.UpdateRow(manager, projectID, rowID, update)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.Record(manager, "approval.marks", "row", updated.RowID, projectID, nil, marks)
	}
	return updated, nil
}

// Reassign hands a cell to a different manager and persists immediately so
// the handoff is visible to both managers' queues right away.
func (s *ApprovalService) Reassign(actor *model.User, projectID, rowID uint, language string, managerID uint) (*model.Row, error) {
	update := RowUpdate{Translations: map[string]CellUpdate{
		language: {AssignedManagerID: lo.ToPtr(managerID)},
	}}
	updated, err := s.rowService.UpdateRow(actor, projectID, rowID, update)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.Record(actor, "approval.reassign", "row", updated.RowID, projectID, nil,
			map[string]interface{}{"language": language, "manager_id": managerID})
	}
	return updated, nil
}

// ReviewRequest sends rows to review. Assignments map language to manager;
// languages left out go to review unassigned and any manager for that
// language can pick them up.
type ReviewRequest struct {
	RowIDs      []uint          `json:"row_ids" binding:"required,min=1"`
	Assignments map[string]uint `json:"assignments"`
}

// SendForReview moves every translated cell of the given rows into review.
// Cells without text are skipped; there is nothing to review yet.
func (s *ApprovalService) SendForReview(actor *model.User, projectID uint, req ReviewRequest) ([]model.Row, error) {
	project, err := s.projectRepo.Get(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	updated := make([]model.Row, 0, len(req.RowIDs))
	for _, rowID := range req.RowIDs {
		row, err := s.rowRepo.Get(rowID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrRowNotFound, rowID)
			}
			return nil, err
		}
		if row.ProjectID != projectID {
			return nil, fmt.Errorf("%w: %d", ErrRowNotFound, rowID)
		}

		update := RowUpdate{Translations: make(map[string]CellUpdate)}
		for _, lang := range project.Languages {
			cell := row.Translations[lang]
			if cell == nil || cell.Text == "" {
				continue
			}
			cu := CellUpdate{Status: lo.ToPtr(model.StatusReview)}
			if managerID, ok := req.Assignments[lang]; ok && managerID != 0 {
				cu.AssignedManagerID = lo.ToPtr(managerID)
			}
			update.Translations[lang] = cu
		}
		if len(update.Translations) == 0 {
			klog.V(6).Infof("send for review skipped, no translated cells: row=%d", rowID)
			continue
		}

		result, err := s.rowService.UpdateRow(actor, projectID, rowID, update)
		if err != nil {
			return updated, err
		}
		updated = append(updated, *result)
	}

	if s.audit != nil {
		s.audit.Record(actor, "approval.send", "project", fmt.Sprintf("%d", projectID), projectID, nil,
			map[string]int{"rows": len(updated)})
	}
	return updated, nil
}
