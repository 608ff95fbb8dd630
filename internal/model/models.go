package model

import (
	"time"
)

// Lifecycle statuses shared by rows, translation cells and projects.
const (
	StatusDraft    = "draft"
	StatusReview   = "review"
	StatusApproved = "approved"
	StatusChanges  = "changes"
)

// Template statuses.
const (
	TemplateStatusDraft     = "draft"
	TemplateStatusPublished = "published"
)

type Project struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"size:1000"`
	Languages   StringList `json:"languages" gorm:"type:text"` // target language codes
	Theme       string     `json:"theme" gorm:"size:50"`
	Status      string     `json:"status" gorm:"size:20;default:draft"` // draft, review, approved (derived)
	Progress    int        `json:"progress" gorm:"default:0"`           // 0-100 (derived)
	CreatedBy   uint       `json:"created_by" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Pages       []Page     `json:"pages,omitempty" gorm:"foreignKey:ProjectID"`
}

// Page is an ordered sub-grouping of rows, analogous to a spreadsheet tab.
// A project either uses pages exclusively or stores rows directly under the
// project (legacy flat layout, PageID = nil on the row).
type Page struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	SortOrder int       `json:"sort_order" gorm:"default:0"` // unique within a project
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Row is a single translatable unit. RowID is the stable public identifier
// that survives the round-trip through the AI batch endpoint.
type Row struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	RowID        string         `json:"row_id" gorm:"size:36;uniqueIndex"`
	ProjectID    uint           `json:"project_id" gorm:"index;not null"`
	PageID       *uint          `json:"page_id" gorm:"index"` // nil for legacy flat rows
	SourceText   string         `json:"source_text" gorm:"type:text"`
	Context      string         `json:"context" gorm:"size:1000"`
	Translations TranslationSet `json:"translations" gorm:"type:text"`
	Status       string         `json:"status" gorm:"size:20;default:draft"` // derived from Translations
	TemplateID   *uint          `json:"template_id" gorm:"index"`            // nil means the default template
	SortOrder    int            `json:"sort_order" gorm:"default:0"`
	Version      int            `json:"version" gorm:"default:1"` // bumped on every write; guards conditional updates
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AuditEntry is append-only; entries are never updated or deleted except by
// the retention sweep.
type AuditEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ActorID    uint      `json:"actor_id" gorm:"index"`
	Actor      string    `json:"actor" gorm:"size:255"`
	Action     string    `json:"action" gorm:"size:100;not null"`
	EntityType string    `json:"entity_type" gorm:"size:50;index"`
	EntityID   string    `json:"entity_id" gorm:"size:64;index"`
	ProjectID  uint      `json:"project_id" gorm:"index"`
	Before     string    `json:"before" gorm:"type:text"`
	After      string    `json:"after" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
