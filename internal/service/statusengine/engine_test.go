package statusengine

import (
	"testing"

	"github.com/lingoflow/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func cell(status string) *model.TranslationCell {
	return &model.TranslationCell{Text: "x", Status: status}
}

func TestComputeRowStatusPrecedence(t *testing.T) {
	langs := []string{"my", "zh"}

	tests := []struct {
		name string
		set  model.TranslationSet
		want string
	}{
		{"all approved", model.TranslationSet{"my": cell(model.StatusApproved), "zh": cell(model.StatusApproved)}, model.StatusApproved},
		{"any changes wins over review", model.TranslationSet{"my": cell(model.StatusChanges), "zh": cell(model.StatusReview)}, model.StatusChanges},
		{"approved plus review resolves to review", model.TranslationSet{"my": cell(model.StatusApproved), "zh": cell(model.StatusReview)}, model.StatusReview},
		{"approved plus draft resolves to draft", model.TranslationSet{"my": cell(model.StatusApproved), "zh": cell(model.StatusDraft)}, model.StatusDraft},
		{"missing cells count as draft", model.TranslationSet{"my": cell(model.StatusApproved)}, model.StatusDraft},
		{"empty map", model.TranslationSet{}, model.StatusDraft},
		{"approved plus changes resolves to changes", model.TranslationSet{"my": cell(model.StatusApproved), "zh": cell(model.StatusChanges)}, model.StatusChanges},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeRowStatus(langs, tt.set))
		})
	}
}

func TestComputeRowStatusIsPure(t *testing.T) {
	langs := []string{"my", "zh"}
	set := model.TranslationSet{
		"my": cell(model.StatusApproved),
		"zh": cell(model.StatusApproved),
	}
	first := ComputeRowStatus(langs, set)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeRowStatus(langs, set))
	}
	assert.Equal(t, model.StatusApproved, first)
}

func TestComputeRowStatusNoLanguages(t *testing.T) {
	assert.Equal(t, model.StatusDraft, ComputeRowStatus(nil, model.TranslationSet{}))
}

func TestComputeProjectProgress(t *testing.T) {
	assert.Equal(t, 0, ComputeProjectProgress(nil))

	rows := []model.Row{
		{Status: model.StatusApproved},
		{Status: model.StatusApproved},
		{Status: model.StatusDraft},
	}
	// 2/3 rounds to 67
	assert.Equal(t, 67, ComputeProjectProgress(rows))

	rows = []model.Row{{Status: model.StatusApproved}}
	assert.Equal(t, 100, ComputeProjectProgress(rows))
}

func TestComputeProjectStatus(t *testing.T) {
	assert.Equal(t, model.StatusDraft, ComputeProjectStatus(nil))

	assert.Equal(t, model.StatusReview, ComputeProjectStatus([]model.Row{
		{Status: model.StatusApproved},
		{Status: model.StatusReview},
	}))

	assert.Equal(t, model.StatusApproved, ComputeProjectStatus([]model.Row{
		{Status: model.StatusApproved},
		{Status: model.StatusApproved},
	}))

	assert.Equal(t, model.StatusDraft, ComputeProjectStatus([]model.Row{
		{Status: model.StatusApproved},
		{Status: model.StatusDraft},
	}))
}

func TestIsVisibleToManager(t *testing.T) {
	m1 := &model.User{ID: 1, Role: model.RoleManager, Languages: model.StringList{"my"}}
	m2 := &model.User{ID: 2, Role: model.RoleManager, Languages: model.StringList{"my"}}
	admin := &model.User{ID: 3, Role: model.RoleAdmin}
	editor := &model.User{ID: 4, Role: model.RoleEditor, Languages: model.StringList{"my"}}

	row := &model.Row{
		Translations: model.TranslationSet{
			"my": {Text: "Helo", Status: model.StatusReview, AssignedManagerID: 1},
		},
	}

	assert.True(t, IsVisibleToManager(row, "my", m1), "assignee sees own cell")
	assert.False(t, IsVisibleToManager(row, "my", m2), "other manager must not see assigned cell")
	assert.True(t, IsVisibleToManager(row, "my", admin), "admin bypasses assignment")
	assert.False(t, IsVisibleToManager(row, "my", editor), "editors never review")
	assert.True(t, IsAssigned(row, "my"), "badge still shows assignment for admins")

	// Manager without the language authorized.
	m3 := &model.User{ID: 5, Role: model.RoleManager, Languages: model.StringList{"zh"}}
	assert.False(t, IsVisibleToManager(row, "my", m3))

	// Unassigned pending cell is visible to any authorized manager.
	row2 := &model.Row{
		Translations: model.TranslationSet{
			"my": {Text: "Helo", Status: model.StatusReview},
		},
	}
	assert.True(t, IsVisibleToManager(row2, "my", m2))

	// Settled cells are not actionable, even for admins.
	row3 := &model.Row{
		Translations: model.TranslationSet{
			"my": {Text: "Helo", Status: model.StatusApproved},
			"zh": {Text: "你好", Status: model.StatusChanges},
		},
	}
	assert.False(t, IsVisibleToManager(row3, "my", admin))
	assert.False(t, IsVisibleToManager(row3, "zh", admin))
}
