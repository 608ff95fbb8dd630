package service

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lingoflow/backend/config"
	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/repository"
	"github.com/lingoflow/backend/internal/service/statusengine"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrPageNotFound     = errors.New("page not found")
	ErrRowNotFound      = errors.New("row not found")
	ErrRowConflict      = errors.New("row was modified concurrently")
	ErrDuplicateContent = errors.New("duplicate source text")
	ErrEmptySourceText  = errors.New("source text is required")
)

// RowService owns the authoritative in-memory view of rows per loaded
// project and keeps it synchronized with the store. Reads are served from
// the cache; every write goes through a version-conditional store update and
// is mirrored into the cache on success.
type RowService struct {
	cfg         *config.Config
	projectRepo repository.ProjectRepository
	pageRepo    repository.PageRepository
	rowRepo     repository.RowRepository
	audit       *AuditService

	mu    sync.RWMutex
	cache map[uint]*projectSnapshot
}

type projectSnapshot struct {
	project model.Project
	pages   []model.Page
	rows    []model.Row
}

func (s *projectSnapshot) view() *ProjectView {
	return &ProjectView{
		Project: s.project,
		Pages:   append([]model.Page(nil), s.pages...),
		Rows:    cloneRows(s.rows),
		Legacy:  len(s.pages) == 0,
	}
}

// ProjectView is the uniform "current rows" view: paged projects list rows
// in page order, legacy projects list their flat rows. Callers never need to
// know which layout the project uses.
type ProjectView struct {
	Project model.Project `json:"project"`
	Pages   []model.Page  `json:"pages"`
	Rows    []model.Row   `json:"rows"`
	Legacy  bool          `json:"legacy"`
}

func NewRowService(cfg *config.Config, projectRepo repository.ProjectRepository, pageRepo repository.PageRepository, rowRepo repository.RowRepository, audit *AuditService) *RowService {
	return &RowService{
		cfg:         cfg,
		projectRepo: projectRepo,
		pageRepo:    pageRepo,
		rowRepo:     rowRepo,
		audit:       audit,
		cache:       make(map[uint]*projectSnapshot),
	}
}

func (s *RowService) chunkSize() int {
	if s.cfg != nil && s.cfg.Sync.WriteChunkSize > 0 {
		return s.cfg.Sync.WriteChunkSize
	}
	return 400
}

// LoadProject returns the uniform project view. The first load fetches the
// project, its pages and all rows and snapshots them; later loads are served
// from the snapshot, whose staleness is bounded by the reconciler's refresh
// interval. Writes through this service keep the snapshot current; writes
// from elsewhere become visible on the next refresh.
func (s *RowService) LoadProject(projectID uint) (*ProjectView, error) {
	s.mu.RLock()
	snap, ok := s.cache[projectID]
	if ok {
		view := snap.view()
		s.mu.RUnlock()
		return view, nil
	}
	s.mu.RUnlock()
	return s.refreshProject(projectID)
}

// refreshProject fetches the project's current state from the store and
// replaces its snapshot, migrating a legacy flat-row project to the page
// model on first load. The migration is one-time and best-effort: a failure
// leaves the project usable in legacy mode and is only logged.
func (s *RowService) refreshProject(projectID uint) (*ProjectView, error) {
	project, err := s.projectRepo.Get(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	pages, err := s.pageRepo.GetByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	if len(pages) == 0 {
		pages = s.migrateLegacyRows(projectID)
	}

	rows, err := s.rowRepo.GetByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}

	// Derived project status and progress are recomputed on every load.
	status := statusengine.ComputeProjectStatus(rows)
	progress := statusengine.ComputeProjectProgress(rows)
	if status != project.Status || progress != project.Progress {
		project.Status = status
		project.Progress = progress
		if err := s.projectRepo.UpdateDerived(projectID, status, progress); err != nil {
			klog.Errorf("failed to persist derived project state: project=%d: %v", projectID, err)
		}
	}

	s.mu.Lock()
	s.cache[projectID] = &projectSnapshot{project: *project, pages: pages, rows: rows}
	s.mu.Unlock()

	return &ProjectView{
		Project: *project,
		Pages:   pages,
		Rows:    cloneRows(rows),
		Legacy:  len(pages) == 0,
	}, nil
}

// migrateLegacyRows moves flat rows into a generated "Page 1". Returns the
// resulting page list, empty when there was nothing to migrate or the
// migration failed.
func (s *RowService) migrateLegacyRows(projectID uint) []model.Page {
	legacy, err := s.rowRepo.GetLegacyByProject(projectID)
	if err != nil {
		klog.Errorf("legacy row lookup failed: project=%d: %v", projectID, err)
		return nil
	}
	if len(legacy) == 0 {
		return nil
	}

	page := &model.Page{ProjectID: projectID, Name: "Page 1", SortOrder: 1}
	if err := s.pageRepo.Create(page); err != nil {
		klog.Errorf("legacy migration: page create failed, staying in legacy mode: project=%d: %v", projectID, err)
		return nil
	}

	ids := lo.Map(legacy, func(r model.Row, _ int) uint { return r.ID })
	for _, chunk := range lo.Chunk(ids, s.chunkSize()) {
		if err := s.rowRepo.AssignPage(chunk, page.ID); err != nil {
			klog.Errorf("legacy migration: row reassignment failed: project=%d: %v", projectID, err)
		}
	}
	klog.V(6).Infof("migrated %d legacy rows into page %d: project=%d", len(legacy), page.ID, projectID)
	return []model.Page{*page}
}

// CellUpdate is a field-level patch for one language cell. Nil fields are
// left untouched so sibling languages are never clobbered.
type CellUpdate struct {
	Text              *string `json:"text"`
	Status            *string `json:"status"`
	Remark            *string `json:"remark"`
	AssignedManagerID *uint   `json:"assigned_manager_id"`
}

// RowUpdate is a partial row update. A content edit without an explicit
// status in the same update reverts the touched scope back to draft.
type RowUpdate struct {
	SourceText   *string               `json:"source_text"`
	Context      *string               `json:"context"`
	TemplateID   *uint                 `json:"template_id"` // 0 clears back to the default template
	Translations map[string]CellUpdate `json:"translations"`
	Status       *string               `json:"status"`
}

// UpdateRow applies a field-level merge, enforces the
// content-edit-reverts-status rule, recomputes the aggregate status and
// persists with a version-conditional write. A concurrent writer surfaces
// as ErrRowConflict; the caller re-reads and retries or reports it.
func (s *RowService) UpdateRow(actor *model.User, projectID, rowID uint, update RowUpdate) (*model.Row, error) {
	row, err := s.rowRepo.Get(rowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("failed to load row: %w", err)
	}
	if row.ProjectID != projectID {
		return nil, ErrRowNotFound
	}

	project, err := s.projectRepo.Get(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	before := *row
	before.Translations = row.Translations.Clone()

	if row.Translations == nil {
		row.Translations = model.TranslationSet{}
	}

	sourceEdited := false
	if update.SourceText != nil && *update.SourceText != row.SourceText {
		row.SourceText = *update.SourceText
		sourceEdited = true
	}
	if update.Context != nil {
		row.Context = *update.Context
	}
	if update.TemplateID != nil {
		if *update.TemplateID == 0 {
			row.TemplateID = nil
		} else {
			id := *update.TemplateID
			row.TemplateID = &id
		}
	}

	for lang, cu := range update.Translations {
		cell := row.Translations[lang]
		if cell == nil {
			cell = &model.TranslationCell{Status: model.StatusDraft}
			row.Translations[lang] = cell
		}
		if cu.Text != nil && *cu.Text != cell.Text {
			cell.Text = *cu.Text
			if cu.Status == nil {
				// Editing a cell's text without explicitly setting its
				// status sends that language back to draft.
				cell.Status = model.StatusDraft
			}
		}
		if cu.Status != nil {
			cell.Status = *cu.Status
			if *cu.Status == model.StatusApproved {
				cell.Remark = ""
			}
		}
		if cu.Remark != nil {
			cell.Remark = *cu.Remark
		}
		if cu.AssignedManagerID != nil {
			cell.AssignedManagerID = *cu.AssignedManagerID
			now := time.Now()
			cell.AssignedAt = &now
		}
	}

	// Editing the source text invalidates every language unless the same
	// update explicitly sets a status (approval actions do).
	if sourceEdited && update.Status == nil {
		for _, cell := range row.Translations {
			if cell != nil {
				cell.Status = model.StatusDraft
			}
		}
	}

	if update.Status != nil {
		row.Status = *update.Status
	} else {
		row.Status = statusengine.ComputeRowStatus(project.Languages, row.Translations)
	}

	if err := s.rowRepo.UpdateConditional(row, row.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrRowConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRowNotFound
		default:
			return nil, fmt.Errorf("failed to update row: %w", err)
		}
	}

	s.replaceCachedRow(projectID, row)
	s.recomputeProjectDerived(projectID)

	if s.audit != nil {
		s.audit.Record(actor, "row.update", "row", strconv.FormatUint(uint64(rowID), 10), projectID, before, row)
	}
	return row, nil
}

// NewRow is caller-supplied row content for AddRows.
type NewRow struct {
	RowID        string               `json:"row_id"`
	SourceText   string               `json:"source_text"`
	Context      string               `json:"context"`
	Translations model.TranslationSet `json:"translations"`
	TemplateID   *uint                `json:"template_id"`
}

// AddRows inserts rows in caller order, chunked so each store batch stays
// safely below the per-batch item ceiling. Identifiers are generated when
// absent, so two calls with identical content produce two distinct row sets.
// A failed chunk is logged and skipped; the remaining chunks still land.
func (s *RowService) AddRows(actor *model.User, projectID uint, pageID *uint, newRows []NewRow) ([]model.Row, error) {
	if len(newRows) == 0 {
		return nil, nil
	}
	if _, err := s.projectRepo.Get(projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if pageID != nil {
		page, err := s.pageRepo.Get(*pageID)
		if err != nil || page.ProjectID != projectID {
			return nil, ErrPageNotFound
		}
	}

	for _, nr := range newRows {
		if nr.SourceText == "" {
			return nil, ErrEmptySourceText
		}
	}
	if err := s.checkDuplicates(projectID, pageID, newRows); err != nil {
		return nil, err
	}

	nextOrder, err := s.rowRepo.MaxSortOrder(projectID, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve row order: %w", err)
	}

	rows := make([]model.Row, 0, len(newRows))
	for _, nr := range newRows {
		nextOrder++
		rowID := nr.RowID
		if rowID == "" {
			rowID = uuid.NewString()
		}
		translations := nr.Translations
		if translations == nil {
			translations = model.TranslationSet{}
		}
		rows = append(rows, model.Row{
			RowID:        rowID,
			ProjectID:    projectID,
			PageID:       pageID,
			SourceText:   nr.SourceText,
			Context:      nr.Context,
			Translations: translations,
			Status:       model.StatusDraft,
			TemplateID:   nr.TemplateID,
			SortOrder:    nextOrder,
			Version:      1,
		})
	}

	created := make([]model.Row, 0, len(rows))
	failedChunks := 0
	chunks := lo.Chunk(rows, s.chunkSize())
	for i, chunk := range chunks {
		// Chunks are written sequentially to bound burst size against the
		// store's rate limits.
		if err := s.rowRepo.CreateBatch(chunk); err != nil {
			failedChunks++
			klog.Errorf("row chunk write failed: project=%d chunk=%d/%d size=%d: %v", projectID, i+1, len(chunks), len(chunk), err)
			continue
		}
		created = append(created, chunk...)
	}

	s.appendCachedRows(projectID, created)
	s.recomputeProjectDerived(projectID)

	if s.audit != nil {
		s.audit.Record(actor, "row.add", "project", strconv.FormatUint(uint64(projectID), 10), projectID, nil,
			map[string]int{"added": len(created)})
	}
	if failedChunks > 0 {
		return created, fmt.Errorf("%d of %d write chunks failed", failedChunks, len(chunks))
	}
	return created, nil
}

// DeleteRows removes rows from the cache immediately and deletes remotely in
// the same chunk size. Re-running after a partial failure is safe: deleting
// already-absent ids is a no-op.
func (s *RowService) DeleteRows(actor *model.User, projectID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	s.dropCachedRows(projectID, ids)

	failedChunks := 0
	chunks := lo.Chunk(ids, s.chunkSize())
	for i, chunk := range chunks {
		if err := s.rowRepo.DeleteBatch(chunk); err != nil {
			failedChunks++
			klog.Errorf("row chunk delete failed: project=%d chunk=%d/%d: %v", projectID, i+1, len(chunks), err)
		}
	}

	s.recomputeProjectDerived(projectID)

	if s.audit != nil {
		s.audit.Record(actor, "row.delete", "project", strconv.FormatUint(uint64(projectID), 10), projectID,
			map[string]int{"requested": len(ids)}, nil)
	}
	if failedChunks > 0 {
		return fmt.Errorf("%d of %d delete chunks failed", failedChunks, len(chunks))
	}
	return nil
}

// DeleteProject cascades through every page's rows, the pages, any legacy
// rows, then the project document. The cascade is chunked and not atomic: a
// partial failure leaves already-deleted data gone, and re-running skips
// absent items.
func (s *RowService) DeleteProject(actor *model.User, projectID uint) error {
	project, err := s.projectRepo.Get(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to load project: %w", err)
	}

	var failures int

	pages, err := s.pageRepo.GetByProject(projectID)
	if err != nil {
		return fmt.Errorf("failed to list pages for cascade: %w", err)
	}
	for _, page := range pages {
		rows, err := s.rowRepo.GetByPage(page.ID)
		if err != nil {
			failures++
			klog.Errorf("cascade: page row listing failed: page=%d: %v", page.ID, err)
			continue
		}
		ids := lo.Map(rows, func(r model.Row, _ int) uint { return r.ID })
		for _, chunk := range lo.Chunk(ids, s.chunkSize()) {
			if err := s.rowRepo.DeleteBatch(chunk); err != nil {
				failures++
				klog.Errorf("cascade: row chunk delete failed: page=%d: %v", page.ID, err)
			}
		}
		if err := s.pageRepo.Delete(page.ID); err != nil {
			failures++
			klog.Errorf("cascade: page delete failed: page=%d: %v", page.ID, err)
		}
	}

	legacy, err := s.rowRepo.GetLegacyByProject(projectID)
	if err != nil {
		failures++
		klog.Errorf("cascade: legacy row listing failed: project=%d: %v", projectID, err)
	} else {
		ids := lo.Map(legacy, func(r model.Row, _ int) uint { return r.ID })
		for _, chunk := range lo.Chunk(ids, s.chunkSize()) {
			if err := s.rowRepo.DeleteBatch(chunk); err != nil {
				failures++
				klog.Errorf("cascade: legacy row chunk delete failed: project=%d: %v", projectID, err)
			}
		}
	}

	if failures > 0 {
		// Leave the project document in place so a retry can resume the
		// cascade; everything already deleted stays deleted.
		return fmt.Errorf("project cascade incomplete, %d step(s) failed; retry to resume", failures)
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.invalidate(projectID)

	if s.audit != nil {
		s.audit.Record(actor, "project.delete", "project", strconv.FormatUint(uint64(projectID), 10), projectID, project, nil)
	}
	return nil
}

// GetRowByRowID resolves a row by its stable public identifier.
func (s *RowService) GetRowByRowID(rowID string) (*model.Row, error) {
	row, err := s.rowRepo.GetByRowID(rowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRowNotFound
		}
		return nil, err
	}
	return row, nil
}

// ApplyTranslations merges AI batch results into a row: text only, each
// touched cell reset to draft, assignment state preserved. Retries around
// concurrent edits a bounded number of times before giving up.
func (s *RowService) ApplyTranslations(projectID uint, rowID string, translations map[string]model.TranslationCell) error {
	for attempt := 0; attempt < 3; attempt++ {
		row, err := s.rowRepo.GetByRowID(rowID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRowNotFound
			}
			return err
		}
		if row.Translations == nil {
			row.Translations = model.TranslationSet{}
		}
		for lang, incoming := range translations {
			cell := row.Translations[lang]
			if cell == nil {
				cell = &model.TranslationCell{}
				row.Translations[lang] = cell
			}
			cell.Text = incoming.Text
			cell.Status = model.StatusDraft
		}

		project, err := s.projectRepo.Get(projectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		row.Status = statusengine.ComputeRowStatus(project.Languages, row.Translations)

		err = s.rowRepo.UpdateConditional(row, row.Version)
		if err == nil {
			s.replaceCachedRow(projectID, row)
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		// Conflict: re-read and merge again.
	}
	return ErrRowConflict
}

// RefreshAll re-fetches every cached project from the store. Called by the
// reconciler on its poll interval; the cache is read-refreshed only, local
// writes are never replayed.
func (s *RowService) RefreshAll() {
	s.mu.RLock()
	ids := lo.Keys(s.cache)
	s.mu.RUnlock()

	for _, id := range ids {
		if _, err := s.refreshProject(id); err != nil {
			klog.Errorf("cache refresh failed: project=%d: %v", id, err)
		}
	}
}

// invalidate drops a project's snapshot so the next load re-fetches it.
// Called after writes that bypass the row store, page edits mostly.
func (s *RowService) invalidate(projectID uint) {
	s.mu.Lock()
	delete(s.cache, projectID)
	s.mu.Unlock()
}

func (s *RowService) checkDuplicates(projectID uint, pageID *uint, newRows []NewRow) error {
	var existing []model.Row
	var err error
	if pageID != nil {
		existing, err = s.rowRepo.GetByPage(*pageID)
	} else {
		existing, err = s.rowRepo.GetLegacyByProject(projectID)
	}
	if err != nil {
		return fmt.Errorf("failed to check duplicates: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(newRows))
	for _, row := range existing {
		seen[row.SourceText] = struct{}{}
	}
	for _, nr := range newRows {
		if _, dup := seen[nr.SourceText]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateContent, nr.SourceText)
		}
		seen[nr.SourceText] = struct{}{}
	}
	return nil
}

func (s *RowService) replaceCachedRow(projectID uint, row *model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.cache[projectID]
	if !ok {
		return
	}
	for i := range snap.rows {
		if snap.rows[i].ID == row.ID {
			snap.rows[i] = *row
			return
		}
	}
	snap.rows = append(snap.rows, *row)
}

func (s *RowService) appendCachedRows(projectID uint, rows []model.Row) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.cache[projectID]; ok {
		snap.rows = append(snap.rows, rows...)
	}
}

func (s *RowService) dropCachedRows(projectID uint, ids []uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.cache[projectID]
	if !ok {
		return
	}
	drop := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	snap.rows = lo.Reject(snap.rows, func(r model.Row, _ int) bool {
		_, gone := drop[r.ID]
		return gone
	})
}

// recomputeProjectDerived refreshes the project's derived status and
// progress from the store's current rows.
func (s *RowService) recomputeProjectDerived(projectID uint) {
	rows, err := s.rowRepo.GetByProject(projectID)
	if err != nil {
		klog.Errorf("derived state recompute failed: project=%d: %v", projectID, err)
		return
	}
	status := statusengine.ComputeProjectStatus(rows)
	progress := statusengine.ComputeProjectProgress(rows)
	if err := s.projectRepo.UpdateDerived(projectID, status, progress); err != nil {
		klog.Errorf("derived state persist failed: project=%d: %v", projectID, err)
	}
	s.mu.Lock()
	if snap, ok := s.cache[projectID]; ok {
		snap.project.Status = status
		snap.project.Progress = progress
	}
	s.mu.Unlock()
}

func cloneRows(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, row := range rows {
		out[i] = row
		out[i].Translations = row.Translations.Clone()
	}
	return out
}
