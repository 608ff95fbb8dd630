package service

import (
	"testing"

	"github.com/lingoflow/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultSeedsLazily(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := NewTemplateService(repo, nil)

	tpl, err := svc.EnsureDefault()
	require.NoError(t, err)
	assert.True(t, tpl.IsDefault)
	assert.Equal(t, model.TemplateStatusPublished, tpl.Status)
	assert.NotEmpty(t, tpl.Prompt)

	// A second call finds the seeded one instead of creating another.
	again, err := svc.EnsureDefault()
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, again.ID)

	all, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTemplateUpdateBumpsVersion(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := NewTemplateService(repo, nil)

	tpl, err := svc.Create(nil, TemplateRequest{Name: "Marketing", Prompt: "Sell it."})
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.Version)
	assert.Equal(t, model.TemplateStatusDraft, tpl.Status)

	updated, err := svc.Update(nil, tpl.ID, TemplateRequest{Name: "Marketing", Prompt: "Sell it harder."})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Sell it harder.", updated.Prompt)
}

func TestSetDefaultKeepsExactlyOne(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := NewTemplateService(repo, nil)

	base, err := svc.EnsureDefault()
	require.NoError(t, err)
	custom, err := svc.Create(nil, TemplateRequest{Name: "Marketing", Prompt: "Sell it."})
	require.NoError(t, err)

	promoted, err := svc.SetDefault(nil, custom.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)
	assert.Equal(t, model.TemplateStatusPublished, promoted.Status)

	demoted, err := svc.Get(base.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsDefault)

	current, err := svc.GetDefault()
	require.NoError(t, err)
	assert.Equal(t, custom.ID, current.ID)
}

func TestDeleteDefaultTemplateBlocked(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := NewTemplateService(repo, nil)

	base, err := svc.EnsureDefault()
	require.NoError(t, err)

	err = svc.Delete(nil, base.ID)
	assert.ErrorIs(t, err, ErrDefaultTemplate)

	custom, err := svc.Create(nil, TemplateRequest{Name: "Marketing", Prompt: "Sell it."})
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(nil, custom.ID))
}

func TestMergePrompt(t *testing.T) {
	base := &model.PromptTemplate{ID: 1, Prompt: "Base instructions."}
	custom := &model.PromptTemplate{ID: 2, Prompt: "Custom instructions."}

	// No custom template, or the custom is the base itself: base only.
	assert.Equal(t, "Base instructions.", MergePrompt(base, nil))
	assert.Equal(t, "Base instructions.", MergePrompt(base, base))

	merged := MergePrompt(base, custom)
	assert.Equal(t, "Base instructions.\n\nAdditional instructions:\nCustom instructions.", merged)
}
