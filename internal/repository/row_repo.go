package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lingoflow/backend/internal/model"
	"gorm.io/gorm"
)

type rowRepository struct {
	db *gorm.DB
}

func NewRowRepository(db *gorm.DB) RowRepository {
	return &rowRepository{db: db}
}

func (r *rowRepository) CreateBatch(rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

func (r *rowRepository) GetByProject(projectID uint) ([]model.Row, error) {
	var rows []model.Row
	err := r.db.Where("project_id = ?", projectID).
		Order("page_id, sort_order").
		Find(&rows).Error
	return rows, err
}

func (r *rowRepository) GetByPage(pageID uint) ([]model.Row, error) {
	var rows []model.Row
	err := r.db.Where("page_id = ?", pageID).
		Order("sort_order").
		Find(&rows).Error
	return rows, err
}

func (r *rowRepository) GetLegacyByProject(projectID uint) ([]model.Row, error) {
	var rows []model.Row
	err := r.db.Where("project_id = ? AND page_id IS NULL", projectID).
		Order("sort_order").
		Find(&rows).Error
	return rows, err
}

func (r *rowRepository) Get(id uint) (*model.Row, error) {
	var row model.Row
	err := r.db.First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *rowRepository) GetByRowID(rowID string) (*model.Row, error) {
	var row model.Row
	err := r.db.Where("row_id = ?", rowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// UpdateConditional writes the row only when the stored version still equals
// expectedVersion. A miss means a concurrent writer got there first.
func (r *rowRepository) UpdateConditional(row *model.Row, expectedVersion int) error {
	res := r.db.Model(&model.Row{}).
		Where("id = ? AND version = ?", row.ID, expectedVersion).
		Updates(map[string]interface{}{
			"source_text":  row.SourceText,
			"context":      row.Context,
			"translations": row.Translations,
			"status":       row.Status,
			"template_id":  row.TemplateID,
			"sort_order":   row.SortOrder,
			"version":      expectedVersion + 1,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a vanished row from a version miss.
		var count int64
		if err := r.db.Model(&model.Row{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	row.Version = expectedVersion + 1
	return nil
}

func (r *rowRepository) AssignPage(ids []uint, pageID uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Row{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"page_id":    pageID,
			"updated_at": time.Now(),
		}).Error
}

func (r *rowRepository) DeleteBatch(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&model.Row{}).Error
}

func (r *rowRepository) ListByStatus(status string) ([]model.Row, error) {
	var rows []model.Row
	err := r.db.Where("status = ?", status).
		Order("project_id, page_id, sort_order").
		Find(&rows).Error
	return rows, err
}

func (r *rowRepository) MaxSortOrder(projectID uint, pageID *uint) (int, error) {
	q := r.db.Model(&model.Row{}).Where("project_id = ?", projectID)
	if pageID != nil {
		q = q.Where("page_id = ?", *pageID)
	} else {
		q = q.Where("page_id IS NULL")
	}
	var max sql.NullInt64
	if err := q.Select("MAX(sort_order)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}
