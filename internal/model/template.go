package model

import (
	"time"
)

// PromptTemplate carries the instructions merged into AI translation calls.
// Exactly one template has IsDefault = true; the default's instructions are
// always prepended, custom templates only append to it.
type PromptTemplate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Prompt    string    `json:"prompt" gorm:"type:text"`
	Tags      string    `json:"tags" gorm:"size:500"`
	Category  string    `json:"category" gorm:"size:100"`
	IsDefault bool      `json:"is_default" gorm:"default:false;index"`
	Status    string    `json:"status" gorm:"size:20;default:draft"` // draft, published
	Version   int       `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GlossaryTerm is a canonical translation pair. Only approved terms are
// visible to the translation and highlighting consumers.
type GlossaryTerm struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	SourceText   string         `json:"source_text" gorm:"size:500;not null;index"`
	Translations TranslationSet `json:"translations" gorm:"type:text"`
	CategoryID   *uint          `json:"category_id" gorm:"index"`
	Status       string         `json:"status" gorm:"size:20;default:draft"` // draft, review, approved
	Version      int            `json:"version" gorm:"default:1"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type GlossaryCategory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
