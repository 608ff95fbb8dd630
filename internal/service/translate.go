package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/lingoflow/backend/config"
	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/pkg/translator"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

var (
	ErrTranslationInProgress = errors.New("a translation run is already in progress for this project")
	ErrNoRowsToTranslate     = errors.New("no rows need translation")
)

// providerBatchLimit caps items per model call so a single malformed
// response only loses one slice of the run.
const providerBatchLimit = 20

// TranslateService runs AI batch translation. Rows are grouped by their
// prompt template, each group is dispatched to the provider through a shared
// worker pool, and results are merged row by row so one bad item never sinks
// the rest of the run.
type TranslateService struct {
	cfg        *config.Config
	provider   translator.Provider
	rowService *RowService
	templates  *TemplateService
	glossary   *GlossaryService
	audit      *AuditService

	pool *ants.Pool

	mu       sync.Mutex
	inflight map[uint]bool
}

func NewTranslateService(cfg *config.Config, provider translator.Provider, rowService *RowService, templates *TemplateService, glossary *GlossaryService, audit *AuditService) (*TranslateService, error) {
	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation pool: %w", err)
	}
	return &TranslateService{
		cfg:        cfg,
		provider:   provider,
		rowService: rowService,
		templates:  templates,
		glossary:   glossary,
		audit:      audit,
		pool:       pool,
		inflight:   make(map[uint]bool),
	}, nil
}

// Release tears down the worker pool.
func (s *TranslateService) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// TranslateRequest selects the rows for one run. With RowIDs empty the run
// covers every row that still has an empty target cell and fills only those
// cells; an explicit selection retranslates every language of the chosen rows
// regardless of their current content.
type TranslateRequest struct {
	ProjectID uint     `json:"project_id" binding:"required"`
	RowIDs    []string `json:"row_ids"`
}

// TranslateSummary reports a finished run. Failed counts rows whose results
// were missing, malformed or could not be persisted.
type TranslateSummary struct {
	Requested  int      `json:"requested"`
	Translated int      `json:"translated"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// Run executes one batch translation for a project. At most one run per
// project is allowed at a time; overlapping requests get
// ErrTranslationInProgress instead of queueing.
func (s *TranslateService) Run(ctx context.Context, actor *model.User, req TranslateRequest) (*TranslateSummary, error) {
	if !s.acquire(req.ProjectID) {
		return nil, ErrTranslationInProgress
	}
	defer s.release(req.ProjectID)

	view, err := s.rowService.LoadProject(req.ProjectID)
	if err != nil {
		return nil, err
	}
	languages := []string(view.Project.Languages)

	rows, err := s.selectRows(view, req.RowIDs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsToTranslate
	}

	base, err := s.templates.GetDefault()
	if err != nil {
		return nil, err
	}
	glossary, err := s.glossary.ApprovedEntries()
	if err != nil {
		klog.Errorf("glossary lookup failed, translating without it: %v", err)
		glossary = nil
	}

	fillEmptyOnly := len(req.RowIDs) == 0

	summary := &TranslateSummary{Requested: len(rows)}
	var summaryMu sync.Mutex
	var rateLimited bool
	var wg sync.WaitGroup

	// Rows sharing a template share a prompt and travel together.
	for templateID, group := range s.groupByTemplate(rows) {
		prompt, err := s.resolvePrompt(base, templateID)
		if err != nil {
			summaryMu.Lock()
			summary.Failed += len(group)
			summary.Errors = append(summary.Errors, err.Error())
			summaryMu.Unlock()
			continue
		}

		for _, batch := range lo.Chunk(group, providerBatchLimit) {
			batch := batch
			wg.Add(1)
			submitErr := s.pool.Submit(func() {
				defer wg.Done()
				translated, failed, errs, limited := s.runBatch(ctx, req.ProjectID, batch, prompt, languages, glossary, fillEmptyOnly)
				summaryMu.Lock()
				summary.Translated += translated
				summary.Failed += failed
				summary.Errors = append(summary.Errors, errs...)
				rateLimited = rateLimited || limited
				summaryMu.Unlock()
			})
			if submitErr != nil {
				wg.Done()
				summaryMu.Lock()
				summary.Failed += len(batch)
				summary.Errors = append(summary.Errors, submitErr.Error())
				summaryMu.Unlock()
			}
		}
	}
	wg.Wait()

	// A run where nothing landed because the provider throttled every call is
	// surfaced as a rate limit rather than a summary full of failures.
	if rateLimited && summary.Translated == 0 {
		return nil, fmt.Errorf("translation run rejected by provider: %w", translator.ErrRateLimited)
	}

	if s.audit != nil {
		s.audit.Record(actor, "translate.run", "project", strconv.FormatUint(uint64(req.ProjectID), 10), req.ProjectID, nil, summary)
	}
	klog.V(6).Infof("translation run finished: project=%d requested=%d translated=%d failed=%d",
		req.ProjectID, summary.Requested, summary.Translated, summary.Failed)
	return summary, nil
}

// selectRows picks the run's working set. Unknown explicit ids are an error
// so a stale client selection does not silently translate fewer rows than the
// user asked for.
func (s *TranslateService) selectRows(view *ProjectView, rowIDs []string) ([]model.Row, error) {
	if len(rowIDs) == 0 {
		languages := []string(view.Project.Languages)
		return lo.Filter(view.Rows, func(r model.Row, _ int) bool {
			return hasEmptyCell(languages, r.Translations)
		}), nil
	}

	byID := lo.KeyBy(view.Rows, func(r model.Row) string { return r.RowID })
	rows := make([]model.Row, 0, len(rowIDs))
	for _, id := range rowIDs {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func hasEmptyCell(languages []string, translations model.TranslationSet) bool {
	for _, lang := range languages {
		if !cellHasText(translations, lang) {
			return true
		}
	}
	return false
}

func cellHasText(translations model.TranslationSet, lang string) bool {
	cell := translations[lang]
	return cell != nil && cell.Text != ""
}

// groupByTemplate partitions rows by template id; 0 stands in for the
// default template since map keys cannot be nil pointers.
func (s *TranslateService) groupByTemplate(rows []model.Row) map[uint][]model.Row {
	return lo.GroupBy(rows, func(r model.Row) uint {
		if r.TemplateID == nil {
			return 0
		}
		return *r.TemplateID
	})
}

// resolvePrompt merges the base instructions with a group's custom template.
func (s *TranslateService) resolvePrompt(base *model.PromptTemplate, templateID uint) (string, error) {
	if templateID == 0 {
		return MergePrompt(base, nil), nil
	}
	custom, err := s.templates.Get(templateID)
	if err != nil {
		return "", fmt.Errorf("template %d: %w", templateID, err)
	}
	return MergePrompt(base, custom), nil
}

// runBatch sends one provider call and merges its results. With fillEmptyOnly
// set, languages that already had text when the row was selected are dropped
// from the result so settled cells keep their content and review state.
// Returns counts plus the per-item error strings worth surfacing to the
// caller.
func (s *TranslateService) runBatch(ctx context.Context, projectID uint, rows []model.Row, prompt string, languages []string, glossary []translator.GlossaryEntry, fillEmptyOnly bool) (translated, failed int, errs []string, limited bool) {
	items := lo.Map(rows, func(r model.Row, _ int) translator.BatchItem {
		return translator.BatchItem{ID: r.RowID, Text: r.SourceText, Context: r.Context}
	})

	results, err := s.provider.GenerateBatch(ctx, translator.BatchRequest{
		Items:     items,
		Prompt:    prompt,
		Languages: languages,
		Glossary:  glossary,
	})
	if err != nil {
		klog.Errorf("provider batch failed: project=%d size=%d: %v", projectID, len(items), err)
		return 0, len(rows), []string{err.Error()}, errors.Is(err, translator.ErrRateLimited)
	}

	byID := lo.KeyBy(results, func(r translator.BatchResult) string { return r.ID })
	for _, row := range rows {
		result, ok := byID[row.RowID]
		if !ok || result.Err != "" {
			failed++
			if ok {
				errs = append(errs, fmt.Sprintf("row %s: %s", row.RowID, result.Err))
			} else {
				errs = append(errs, fmt.Sprintf("row %s: missing from provider response", row.RowID))
			}
			continue
		}

		cells := make(map[string]model.TranslationCell, len(result.Translations))
		for lang, cell := range result.Translations {
			if fillEmptyOnly && cellHasText(row.Translations, lang) {
				continue
			}
			cells[lang] = model.TranslationCell{Text: cell.Text}
		}
		if len(cells) == 0 {
			// Every language the row needed was filled since selection.
			translated++
			continue
		}
		if err := s.rowService.ApplyTranslations(projectID, row.RowID, cells); err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("row %s: %v", row.RowID, err))
			continue
		}
		translated++
	}
	return translated, failed, errs, false
}

func (s *TranslateService) acquire(projectID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[projectID] {
		return false
	}
	s.inflight[projectID] = true
	return true
}

func (s *TranslateService) release(projectID uint) {
	s.mu.Lock()
	delete(s.inflight, projectID)
	s.mu.Unlock()
}
