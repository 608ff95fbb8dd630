package service

import (
	"sort"
	"time"

	"github.com/lingoflow/backend/config"
	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{
			PollInterval:   30 * time.Second,
			WriteChunkSize: 400,
		},
	}
}

type mockProjectRepo struct {
	projects map[uint]*model.Project
	nextID   uint
}

func newMockProjectRepo(projects ...*model.Project) *mockProjectRepo {
	m := &mockProjectRepo{projects: make(map[uint]*model.Project)}
	for _, p := range projects {
		m.Create(p)
	}
	return m
}

func (m *mockProjectRepo) Create(project *model.Project) error {
	if project.ID == 0 {
		m.nextID++
		project.ID = m.nextID
	} else if project.ID > m.nextID {
		m.nextID = project.ID
	}
	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *mockProjectRepo) List() ([]model.Project, error) {
	out := make([]model.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProjectRepo) Get(id uint) (*model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockProjectRepo) Save(project *model.Project) error {
	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *mockProjectRepo) UpdateDerived(id uint, status string, progress int) error {
	p, ok := m.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	p.Progress = progress
	return nil
}

func (m *mockProjectRepo) Delete(id uint) error {
	delete(m.projects, id)
	return nil
}

type mockPageRepo struct {
	pages  map[uint]*model.Page
	nextID uint
}

func newMockPageRepo(pages ...*model.Page) *mockPageRepo {
	m := &mockPageRepo{pages: make(map[uint]*model.Page)}
	for _, p := range pages {
		m.Create(p)
	}
	return m
}

func (m *mockPageRepo) Create(page *model.Page) error {
	if page.ID == 0 {
		m.nextID++
		page.ID = m.nextID
	} else if page.ID > m.nextID {
		m.nextID = page.ID
	}
	clone := *page
	m.pages[page.ID] = &clone
	return nil
}

func (m *mockPageRepo) GetByProject(projectID uint) ([]model.Page, error) {
	var out []model.Page
	for _, p := range m.pages {
		if p.ProjectID == projectID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockPageRepo) Get(id uint) (*model.Page, error) {
	p, ok := m.pages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockPageRepo) Save(page *model.Page) error {
	clone := *page
	m.pages[page.ID] = &clone
	return nil
}

func (m *mockPageRepo) Delete(id uint) error {
	delete(m.pages, id)
	return nil
}

func (m *mockPageRepo) MaxSortOrder(projectID uint) (int, error) {
	max := 0
	for _, p := range m.pages {
		if p.ProjectID == projectID && p.SortOrder > max {
			max = p.SortOrder
		}
	}
	return max, nil
}

// mockRowRepo is an in-memory row store with the same version-conditional
// write semantics as the real one. Tests can count batch calls and fail
// selected chunks through the hooks.
type mockRowRepo struct {
	rows   map[uint]*model.Row
	nextID uint

	createBatchCalls int
	deleteBatchCalls int
	failCreateChunk  func(call int) bool
	failDeleteChunk  func(call int) bool

	// conflictOnUpdate forces the next N conditional writes to miss, as if a
	// concurrent writer got there first.
	conflictOnUpdate int
}

func newMockRowRepo(rows ...*model.Row) *mockRowRepo {
	m := &mockRowRepo{rows: make(map[uint]*model.Row)}
	for _, r := range rows {
		m.put(r)
	}
	return m
}

func (m *mockRowRepo) put(row *model.Row) {
	if row.ID == 0 {
		m.nextID++
		row.ID = m.nextID
	} else if row.ID > m.nextID {
		m.nextID = row.ID
	}
	clone := *row
	clone.Translations = row.Translations.Clone()
	m.rows[row.ID] = &clone
}

func (m *mockRowRepo) CreateBatch(rows []model.Row) error {
	m.createBatchCalls++
	if m.failCreateChunk != nil && m.failCreateChunk(m.createBatchCalls) {
		return repository.ErrConflict
	}
	for i := range rows {
		m.put(&rows[i])
	}
	return nil
}

func (m *mockRowRepo) GetByProject(projectID uint) ([]model.Row, error) {
	var out []model.Row
	for _, r := range m.rows {
		if r.ProjectID == projectID {
			out = append(out, *cloneRow(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockRowRepo) GetByPage(pageID uint) ([]model.Row, error) {
	var out []model.Row
	for _, r := range m.rows {
		if r.PageID != nil && *r.PageID == pageID {
			out = append(out, *cloneRow(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockRowRepo) GetLegacyByProject(projectID uint) ([]model.Row, error) {
	var out []model.Row
	for _, r := range m.rows {
		if r.ProjectID == projectID && r.PageID == nil {
			out = append(out, *cloneRow(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockRowRepo) Get(id uint) (*model.Row, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRow(r), nil
}

func (m *mockRowRepo) GetByRowID(rowID string) (*model.Row, error) {
	for _, r := range m.rows {
		if r.RowID == rowID {
			return cloneRow(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockRowRepo) UpdateConditional(row *model.Row, expectedVersion int) error {
	stored, ok := m.rows[row.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.conflictOnUpdate > 0 {
		m.conflictOnUpdate--
		return repository.ErrConflict
	}
	if stored.Version != expectedVersion {
		return repository.ErrConflict
	}
	row.Version = expectedVersion + 1
	clone := *row
	clone.Translations = row.Translations.Clone()
	m.rows[row.ID] = &clone
	return nil
}

func (m *mockRowRepo) AssignPage(ids []uint, pageID uint) error {
	for _, id := range ids {
		if r, ok := m.rows[id]; ok {
			p := pageID
			r.PageID = &p
		}
	}
	return nil
}

func (m *mockRowRepo) DeleteBatch(ids []uint) error {
	m.deleteBatchCalls++
	if m.failDeleteChunk != nil && m.failDeleteChunk(m.deleteBatchCalls) {
		return repository.ErrConflict
	}
	for _, id := range ids {
		delete(m.rows, id)
	}
	return nil
}

func (m *mockRowRepo) ListByStatus(status string) ([]model.Row, error) {
	var out []model.Row
	for _, r := range m.rows {
		if r.Status == status {
			out = append(out, *cloneRow(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRowRepo) MaxSortOrder(projectID uint, pageID *uint) (int, error) {
	max := 0
	for _, r := range m.rows {
		if r.ProjectID != projectID {
			continue
		}
		if pageID == nil && r.PageID != nil {
			continue
		}
		if pageID != nil && (r.PageID == nil || *r.PageID != *pageID) {
			continue
		}
		if r.SortOrder > max {
			max = r.SortOrder
		}
	}
	return max, nil
}

func cloneRow(r *model.Row) *model.Row {
	clone := *r
	clone.Translations = r.Translations.Clone()
	return &clone
}

type mockTemplateRepo struct {
	templates map[uint]*model.PromptTemplate
	nextID    uint
}

func newMockTemplateRepo(templates ...*model.PromptTemplate) *mockTemplateRepo {
	m := &mockTemplateRepo{templates: make(map[uint]*model.PromptTemplate)}
	for _, t := range templates {
		m.Create(t)
	}
	return m
}

func (m *mockTemplateRepo) Create(tpl *model.PromptTemplate) error {
	if tpl.ID == 0 {
		m.nextID++
		tpl.ID = m.nextID
	} else if tpl.ID > m.nextID {
		m.nextID = tpl.ID
	}
	clone := *tpl
	m.templates[tpl.ID] = &clone
	return nil
}

func (m *mockTemplateRepo) List() ([]model.PromptTemplate, error) {
	out := make([]model.PromptTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTemplateRepo) Get(id uint) (*model.PromptTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *mockTemplateRepo) GetDefault() (*model.PromptTemplate, error) {
	for _, t := range m.templates {
		if t.IsDefault {
			clone := *t
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockTemplateRepo) Save(tpl *model.PromptTemplate) error {
	clone := *tpl
	m.templates[tpl.ID] = &clone
	return nil
}

func (m *mockTemplateRepo) ClearDefaultExcept(id uint) error {
	for _, t := range m.templates {
		if t.ID != id {
			t.IsDefault = false
		}
	}
	return nil
}

func (m *mockTemplateRepo) Delete(id uint) error {
	delete(m.templates, id)
	return nil
}

type mockGlossaryRepo struct {
	terms      map[uint]*model.GlossaryTerm
	categories map[uint]*model.GlossaryCategory
	nextID     uint
}

func newMockGlossaryRepo() *mockGlossaryRepo {
	return &mockGlossaryRepo{
		terms:      make(map[uint]*model.GlossaryTerm),
		categories: make(map[uint]*model.GlossaryCategory),
	}
}

func (m *mockGlossaryRepo) CreateTerm(term *model.GlossaryTerm) error {
	if term.ID == 0 {
		m.nextID++
		term.ID = m.nextID
	}
	clone := *term
	clone.Translations = term.Translations.Clone()
	m.terms[term.ID] = &clone
	return nil
}

func (m *mockGlossaryRepo) ListTerms() ([]model.GlossaryTerm, error) {
	out := make([]model.GlossaryTerm, 0, len(m.terms))
	for _, t := range m.terms {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGlossaryRepo) ListTermsByStatus(status string) ([]model.GlossaryTerm, error) {
	var out []model.GlossaryTerm
	for _, t := range m.terms {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGlossaryRepo) GetTerm(id uint) (*model.GlossaryTerm, error) {
	t, ok := m.terms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	clone.Translations = t.Translations.Clone()
	return &clone, nil
}

func (m *mockGlossaryRepo) SaveTerm(term *model.GlossaryTerm) error {
	clone := *term
	clone.Translations = term.Translations.Clone()
	m.terms[term.ID] = &clone
	return nil
}

func (m *mockGlossaryRepo) DeleteTerm(id uint) error {
	delete(m.terms, id)
	return nil
}

func (m *mockGlossaryRepo) CreateCategory(category *model.GlossaryCategory) error {
	if category.ID == 0 {
		m.nextID++
		category.ID = m.nextID
	}
	clone := *category
	m.categories[category.ID] = &clone
	return nil
}

func (m *mockGlossaryRepo) ListCategories() ([]model.GlossaryCategory, error) {
	out := make([]model.GlossaryCategory, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockGlossaryRepo) DeleteCategory(id uint) error {
	delete(m.categories, id)
	return nil
}

type mockAuditRepo struct {
	entries []model.AuditEntry
}

func (m *mockAuditRepo) Create(entry *model.AuditEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(filter repository.AuditFilter) ([]model.AuditEntry, error) {
	return m.entries, nil
}

func (m *mockAuditRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	return 0, nil
}
