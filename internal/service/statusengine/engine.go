package statusengine

import (
	"math"

	"github.com/lingoflow/backend/internal/model"
)

// ComputeRowStatus derives a row's aggregate status from its per-language
// cells. Precedence: all approved > any changes > any review > draft. A row
// with one approved and one in-review language therefore stays in review.
// Languages without a cell count as draft.
func ComputeRowStatus(languages []string, translations model.TranslationSet) string {
	if len(languages) == 0 {
		return model.StatusDraft
	}

	allApproved := true
	anyChanges := false
	anyReview := false

	for _, lang := range languages {
		cell, ok := translations[lang]
		status := model.StatusDraft
		if ok && cell != nil && cell.Status != "" {
			status = cell.Status
		}
		switch status {
		case model.StatusApproved:
		case model.StatusChanges:
			anyChanges = true
			allApproved = false
		case model.StatusReview:
			anyReview = true
			allApproved = false
		default:
			allApproved = false
		}
	}

	if allApproved {
		return model.StatusApproved
	}
	if anyChanges {
		return model.StatusChanges
	}
	if anyReview {
		return model.StatusReview
	}
	return model.StatusDraft
}

// ComputeProjectProgress returns the approved share as a rounded percentage.
func ComputeProjectProgress(rows []model.Row) int {
	if len(rows) == 0 {
		return 0
	}
	approved := 0
	for _, row := range rows {
		if row.Status == model.StatusApproved {
			approved++
		}
	}
	return int(math.Round(float64(approved) / float64(len(rows)) * 100))
}

// ComputeProjectStatus derives the project lifecycle status from its rows.
func ComputeProjectStatus(rows []model.Row) string {
	if len(rows) == 0 {
		return model.StatusDraft
	}
	allApproved := true
	anyReview := false
	for _, row := range rows {
		switch row.Status {
		case model.StatusApproved:
		case model.StatusReview:
			anyReview = true
			allApproved = false
		default:
			allApproved = false
		}
	}
	if anyReview {
		return model.StatusReview
	}
	if allApproved {
		return model.StatusApproved
	}
	return model.StatusDraft
}

// IsVisibleToManager reports whether a manager may act on one language cell.
// Evaluated per cell, not per row: a single row may have different languages
// assigned to different managers. Admins bypass the language list and the
// assignment check; the cell must still be pending action.
func IsVisibleToManager(row *model.Row, lang string, manager *model.User) bool {
	if manager == nil || row == nil {
		return false
	}

	cell := row.Translations[lang]
	status := model.StatusDraft
	if cell != nil && cell.Status != "" {
		status = cell.Status
	}
	// Approved and changes cells are settled; nothing left to act on.
	if status == model.StatusApproved || status == model.StatusChanges {
		return false
	}

	if manager.Role == model.RoleAdmin {
		return true
	}
	if manager.Role != model.RoleManager {
		return false
	}

	authorized := false
	for _, l := range manager.Languages {
		if l == lang {
			authorized = true
			break
		}
	}
	if !authorized {
		return false
	}

	if cell != nil && cell.AssignedManagerID != 0 && cell.AssignedManagerID != manager.ID {
		return false
	}
	return true
}

// IsAssigned reports whether the cell carries any manager assignment, used
// for UI badges independent of visibility.
func IsAssigned(row *model.Row, lang string) bool {
	if row == nil {
		return false
	}
	cell := row.Translations[lang]
	return cell != nil && cell.AssignedManagerID != 0
}
