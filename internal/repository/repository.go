package repository

import (
	"errors"
	"time"

	"github.com/lingoflow/backend/internal/model"
)

var (
	// ErrNotFound 记录不存在错误
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write misses its expected
	// version, i.e. the row changed underneath the caller.
	ErrConflict = errors.New("version conflict")
)

type ProjectRepository interface {
	Create(project *model.Project) error
	List() ([]model.Project, error)
	Get(id uint) (*model.Project, error)
	Save(project *model.Project) error
	UpdateDerived(id uint, status string, progress int) error
	Delete(id uint) error
}

type PageRepository interface {
	Create(page *model.Page) error
	GetByProject(projectID uint) ([]model.Page, error)
	Get(id uint) (*model.Page, error)
	Save(page *model.Page) error
	Delete(id uint) error
	MaxSortOrder(projectID uint) (int, error)
}

type RowRepository interface {
	CreateBatch(rows []model.Row) error
	GetByProject(projectID uint) ([]model.Row, error)
	GetByPage(pageID uint) ([]model.Row, error)
	GetLegacyByProject(projectID uint) ([]model.Row, error)
	Get(id uint) (*model.Row, error)
	GetByRowID(rowID string) (*model.Row, error)
	// UpdateConditional persists the row only if the stored version still
	// matches expectedVersion, bumping the version on success.
	UpdateConditional(row *model.Row, expectedVersion int) error
	AssignPage(ids []uint, pageID uint) error
	DeleteBatch(ids []uint) error
	// ListByStatus queries rows across every project and page, the
	// collection-group query backing the cross-project approval view.
	ListByStatus(status string) ([]model.Row, error)
	MaxSortOrder(projectID uint, pageID *uint) (int, error)
}

type TemplateRepository interface {
	Create(tpl *model.PromptTemplate) error
	List() ([]model.PromptTemplate, error)
	Get(id uint) (*model.PromptTemplate, error)
	GetDefault() (*model.PromptTemplate, error)
	Save(tpl *model.PromptTemplate) error
	ClearDefaultExcept(id uint) error
	Delete(id uint) error
}

type GlossaryRepository interface {
	CreateTerm(term *model.GlossaryTerm) error
	ListTerms() ([]model.GlossaryTerm, error)
	ListTermsByStatus(status string) ([]model.GlossaryTerm, error)
	GetTerm(id uint) (*model.GlossaryTerm, error)
	SaveTerm(term *model.GlossaryTerm) error
	DeleteTerm(id uint) error

	CreateCategory(category *model.GlossaryCategory) error
	ListCategories() ([]model.GlossaryCategory, error)
	DeleteCategory(id uint) error
}

type UserRepository interface {
	Create(user *model.User) error
	List() ([]model.User, error)
	Get(id uint) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	Save(user *model.User) error
	Delete(id uint) error
	Count() (int64, error)
}

type AuditRepository interface {
	Create(entry *model.AuditEntry) error
	List(filter AuditFilter) ([]model.AuditEntry, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// AuditFilter narrows audit queries; zero values mean "any".
type AuditFilter struct {
	ProjectID  uint
	EntityType string
	ActorID    uint
	Limit      int
}
