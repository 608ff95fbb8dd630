package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/pkg/translator"
	"github.com/lingoflow/backend/internal/repository"
)

var (
	ErrTermNotFound       = errors.New("glossary term not found")
	ErrTermSourceRequired = errors.New("glossary source text is required")
	ErrCategoryNotFound   = errors.New("glossary category not found")
)

// GlossaryService manages canonical terminology. Only approved terms reach
// the translation and highlighting consumers.
type GlossaryService struct {
	glossaryRepo repository.GlossaryRepository
	audit        *AuditService
}

func NewGlossaryService(glossaryRepo repository.GlossaryRepository, audit *AuditService) *GlossaryService {
	return &GlossaryService{glossaryRepo: glossaryRepo, audit: audit}
}

type TermRequest struct {
	SourceText   string               `json:"source_text" binding:"required,min=1,max=500"`
	Translations model.TranslationSet `json:"translations"`
	CategoryID   *uint                `json:"category_id"`
	Status       string               `json:"status"`
}

func (s *GlossaryService) CreateTerm(actor *model.User, req TermRequest) (*model.GlossaryTerm, error) {
	if req.SourceText == "" {
		return nil, ErrTermSourceRequired
	}
	status := req.Status
	if status == "" {
		status = model.StatusDraft
	}
	translations := req.Translations
	if translations == nil {
		translations = model.TranslationSet{}
	}
	term := &model.GlossaryTerm{
		SourceText:   req.SourceText,
		Translations: translations,
		CategoryID:   req.CategoryID,
		Status:       status,
		Version:      1,
	}
	if err := s.glossaryRepo.CreateTerm(term); err != nil {
		return nil, fmt.Errorf("failed to create glossary term: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "glossary.create", "glossary_term", strconv.FormatUint(uint64(term.ID), 10), 0, nil, term)
	}
	return term, nil
}

// UpdateTerm edits a term. Translations merge per language, so omitting a
// language keeps its current text. Changing the content of an approved term
// reverts it to draft; it has to pass review again.
func (s *GlossaryService) UpdateTerm(actor *model.User, id uint, req TermRequest) (*model.GlossaryTerm, error) {
	term, err := s.getTerm(id)
	if err != nil {
		return nil, err
	}
	before := *term
	before.Translations = term.Translations.Clone()

	contentChanged := req.SourceText != term.SourceText
	if req.Translations != nil {
		if term.Translations == nil {
			term.Translations = model.TranslationSet{}
		}
		for lang, incoming := range req.Translations {
			existing := term.Translations[lang]
			if existing == nil || existing.Text != incoming.Text {
				contentChanged = true
			}
			term.Translations[lang] = incoming
		}
	}
	term.SourceText = req.SourceText
	term.CategoryID = req.CategoryID

	switch {
	case req.Status != "":
		term.Status = req.Status
	case contentChanged && term.Status == model.StatusApproved:
		term.Status = model.StatusDraft
	}
	term.Version++

	if err := s.glossaryRepo.SaveTerm(term); err != nil {
		return nil, fmt.Errorf("failed to update glossary term: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "glossary.update", "glossary_term", strconv.FormatUint(uint64(id), 10), 0, before, term)
	}
	return term, nil
}

func (s *GlossaryService) ListTerms() ([]model.GlossaryTerm, error) {
	return s.glossaryRepo.ListTerms()
}

// ApprovedTerms feeds the translation prompt and the editor highlighting;
// draft and in-review terms are invisible to both.
func (s *GlossaryService) ApprovedTerms() ([]model.GlossaryTerm, error) {
	return s.glossaryRepo.ListTermsByStatus(model.StatusApproved)
}

// ApprovedEntries converts approved terms into the provider's glossary
// format.
func (s *GlossaryService) ApprovedEntries() ([]translator.GlossaryEntry, error) {
	terms, err := s.ApprovedTerms()
	if err != nil {
		return nil, err
	}
	entries := make([]translator.GlossaryEntry, 0, len(terms))
	for _, term := range terms {
		translations := make(map[string]string, len(term.Translations))
		for lang, cell := range term.Translations {
			if cell != nil && cell.Text != "" {
				translations[lang] = cell.Text
			}
		}
		entries = append(entries, translator.GlossaryEntry{
			Source:       term.SourceText,
			Translations: translations,
		})
	}
	return entries, nil
}

func (s *GlossaryService) DeleteTerm(actor *model.User, id uint) error {
	term, err := s.getTerm(id)
	if err != nil {
		return err
	}
	if err := s.glossaryRepo.DeleteTerm(id); err != nil {
		return fmt.Errorf("failed to delete glossary term: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "glossary.delete", "glossary_term", strconv.FormatUint(uint64(id), 10), 0, term, nil)
	}
	return nil
}

func (s *GlossaryService) CreateCategory(actor *model.User, name string) (*model.GlossaryCategory, error) {
	category := &model.GlossaryCategory{Name: name}
	if err := s.glossaryRepo.CreateCategory(category); err != nil {
		return nil, fmt.Errorf("failed to create glossary category: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "glossary.category.create", "glossary_category", strconv.FormatUint(uint64(category.ID), 10), 0, nil, category)
	}
	return category, nil
}

func (s *GlossaryService) ListCategories() ([]model.GlossaryCategory, error) {
	return s.glossaryRepo.ListCategories()
}

func (s *GlossaryService) DeleteCategory(actor *model.User, id uint) error {
	if err := s.glossaryRepo.DeleteCategory(id); err != nil {
		return fmt.Errorf("failed to delete glossary category: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "glossary.category.delete", "glossary_category", strconv.FormatUint(uint64(id), 10), 0, nil, nil)
	}
	return nil
}

func (s *GlossaryService) getTerm(id uint) (*model.GlossaryTerm, error) {
	term, err := s.glossaryRepo.GetTerm(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTermNotFound
		}
		return nil, err
	}
	return term, nil
}
