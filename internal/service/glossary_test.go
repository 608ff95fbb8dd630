package service

import (
	"testing"

	"github.com/lingoflow/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovedEntriesOnlyExposeApprovedTerms(t *testing.T) {
	svc := NewGlossaryService(newMockGlossaryRepo(), nil)

	_, err := svc.CreateTerm(nil, TermRequest{
		SourceText: "Dashboard",
		Translations: model.TranslationSet{
			"de": {Text: "Übersicht"},
		},
		Status: model.StatusApproved,
	})
	require.NoError(t, err)
	_, err = svc.CreateTerm(nil, TermRequest{
		SourceText: "Widget",
		Translations: model.TranslationSet{
			"de": {Text: "Widget"},
		},
	})
	require.NoError(t, err)

	entries, err := svc.ApprovedEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Dashboard", entries[0].Source)
	assert.Equal(t, "Übersicht", entries[0].Translations["de"])
}

func TestUpdateTermContentEditRevertsApproval(t *testing.T) {
	svc := NewGlossaryService(newMockGlossaryRepo(), nil)

	term, err := svc.CreateTerm(nil, TermRequest{
		SourceText: "Dashboard",
		Translations: model.TranslationSet{
			"de": {Text: "Übersicht"},
		},
		Status: model.StatusApproved,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTerm(nil, term.ID, TermRequest{
		SourceText: "Dashboard",
		Translations: model.TranslationSet{
			"de": {Text: "Armaturenbrett"},
		},
	})
	require.NoError(t, err)
	// Changed content has to pass review again.
	assert.Equal(t, model.StatusDraft, updated.Status)
	assert.Equal(t, 2, updated.Version)

	entries, err := svc.ApprovedEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateTermMergesTranslationsPerLanguage(t *testing.T) {
	svc := NewGlossaryService(newMockGlossaryRepo(), nil)

	term, err := svc.CreateTerm(nil, TermRequest{
		SourceText: "Dashboard",
		Translations: model.TranslationSet{
			"de": {Text: "Übersicht"},
			"fr": {Text: "Tableau de bord"},
		},
		Status: model.StatusApproved,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTerm(nil, term.ID, TermRequest{
		SourceText: "Dashboard",
		Translations: model.TranslationSet{
			"de": {Text: "Armaturenbrett"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Armaturenbrett", updated.Translations["de"].Text)
	// fr was not part of the request and keeps its translation.
	require.NotNil(t, updated.Translations["fr"])
	assert.Equal(t, "Tableau de bord", updated.Translations["fr"].Text)
	assert.Equal(t, model.StatusDraft, updated.Status)
}

func TestUpdateTermExplicitStatusWins(t *testing.T) {
	svc := NewGlossaryService(newMockGlossaryRepo(), nil)

	term, err := svc.CreateTerm(nil, TermRequest{SourceText: "Dashboard"})
	require.NoError(t, err)

	updated, err := svc.UpdateTerm(nil, term.ID, TermRequest{
		SourceText: "Dashboard",
		Status:     model.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
}

func TestCreateTermValidation(t *testing.T) {
	svc := NewGlossaryService(newMockGlossaryRepo(), nil)

	_, err := svc.CreateTerm(nil, TermRequest{SourceText: ""})
	assert.ErrorIs(t, err, ErrTermSourceRequired)

	term, err := svc.CreateTerm(nil, TermRequest{SourceText: "Dashboard"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, term.Status)
	assert.NotNil(t, term.Translations)
}

func TestGlossaryCategories(t *testing.T) {
	svc := NewGlossaryService(newMockGlossaryRepo(), nil)

	category, err := svc.CreateCategory(nil, "UI")
	require.NoError(t, err)

	categories, err := svc.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	require.NoError(t, svc.DeleteCategory(nil, category.ID))
	categories, err = svc.ListCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}
