package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/repository"
	"k8s.io/klog/v2"
)

var (
	ErrTemplateNotFound      = errors.New("template not found")
	ErrDefaultTemplate       = errors.New("cannot delete the default template")
	ErrTemplatePromptMissing = errors.New("template prompt is required")
)

const defaultTemplatePrompt = `You are a professional localization translator. Translate each item's text from English into every target language. Preserve placeholders, markup and formatting tokens exactly as they appear in the source. Keep the tone consistent across items and respect the approved glossary.`

// TemplateService manages prompt templates. Exactly one default always
// exists; it is seeded lazily and its instructions are always prepended to
// any custom template during translation.
type TemplateService struct {
	templateRepo repository.TemplateRepository
	audit        *AuditService
}

func NewTemplateService(templateRepo repository.TemplateRepository, audit *AuditService) *TemplateService {
	return &TemplateService{templateRepo: templateRepo, audit: audit}
}

// EnsureDefault creates the base template when none exists. Called at
// startup and again by GetDefault as a safety net.
func (s *TemplateService) EnsureDefault() (*model.PromptTemplate, error) {
	tpl, err := s.templateRepo.GetDefault()
	if err == nil {
		return tpl, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up default template: %w", err)
	}

	tpl = &model.PromptTemplate{
		Name:      "Base Translation",
		Prompt:    defaultTemplatePrompt,
		IsDefault: true,
		Status:    model.TemplateStatusPublished,
		Version:   1,
	}
	if err := s.templateRepo.Create(tpl); err != nil {
		return nil, fmt.Errorf("failed to seed default template: %w", err)
	}
	klog.V(6).Infof("seeded default prompt template: id=%d", tpl.ID)
	return tpl, nil
}

func (s *TemplateService) GetDefault() (*model.PromptTemplate, error) {
	return s.EnsureDefault()
}

func (s *TemplateService) List() ([]model.PromptTemplate, error) {
	return s.templateRepo.List()
}

func (s *TemplateService) Get(id uint) (*model.PromptTemplate, error) {
	tpl, err := s.templateRepo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

type TemplateRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Prompt   string `json:"prompt" binding:"required"`
	Tags     string `json:"tags"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func (s *TemplateService) Create(actor *model.User, req TemplateRequest) (*model.PromptTemplate, error) {
	if req.Prompt == "" {
		return nil, ErrTemplatePromptMissing
	}
	status := req.Status
	if status == "" {
		status = model.TemplateStatusDraft
	}
	tpl := &model.PromptTemplate{
		Name:     req.Name,
		Prompt:   req.Prompt,
		Tags:     req.Tags,
		Category: req.Category,
		Status:   status,
		Version:  1,
	}
	if err := s.templateRepo.Create(tpl); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "template.create", "template", strconv.FormatUint(uint64(tpl.ID), 10), 0, nil, tpl)
	}
	return tpl, nil
}

// Update bumps the version counter on every edit.
func (s *TemplateService) Update(actor *model.User, id uint, req TemplateRequest) (*model.PromptTemplate, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	before := *tpl

	tpl.Name = req.Name
	tpl.Prompt = req.Prompt
	tpl.Tags = req.Tags
	tpl.Category = req.Category
	if req.Status != "" {
		tpl.Status = req.Status
	}
	tpl.Version++

	if err := s.templateRepo.Save(tpl); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "template.update", "template", strconv.FormatUint(uint64(id), 10), 0, before, tpl)
	}
	return tpl, nil
}

// SetDefault promotes one template to default and demotes every other, so
// the exactly-one-default invariant holds.
func (s *TemplateService) SetDefault(actor *model.User, id uint) (*model.PromptTemplate, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	tpl.IsDefault = true
	tpl.Status = model.TemplateStatusPublished
	if err := s.templateRepo.Save(tpl); err != nil {
		return nil, fmt.Errorf("failed to set default template: %w", err)
	}
	if err := s.templateRepo.ClearDefaultExcept(id); err != nil {
		return nil, fmt.Errorf("failed to clear previous default: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "template.set_default", "template", strconv.FormatUint(uint64(id), 10), 0, nil, tpl)
	}
	return tpl, nil
}

func (s *TemplateService) Delete(actor *model.User, id uint) error {
	tpl, err := s.Get(id)
	if err != nil {
		return err
	}
	if tpl.IsDefault {
		return ErrDefaultTemplate
	}
	if err := s.templateRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "template.delete", "template", strconv.FormatUint(uint64(id), 10), 0, tpl, nil)
	}
	return nil
}

// MergePrompt builds the effective instructions for a translation batch.
// The default's instructions always come first; a custom template only adds
// to them, it can never replace the base.
func MergePrompt(base *model.PromptTemplate, custom *model.PromptTemplate) string {
	if custom == nil || custom.ID == base.ID {
		return base.Prompt
	}
	return base.Prompt + "\n\nAdditional instructions:\n" + custom.Prompt
}
