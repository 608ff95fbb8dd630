package repository

import (
	"database/sql"
	"errors"

	"github.com/lingoflow/backend/internal/model"
	"gorm.io/gorm"
)

type pageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(page *model.Page) error {
	return r.db.Create(page).Error
}

func (r *pageRepository) GetByProject(projectID uint) ([]model.Page, error) {
	var pages []model.Page
	err := r.db.Where("project_id = ?", projectID).
		Order("sort_order").
		Find(&pages).Error
	return pages, err
}

func (r *pageRepository) Get(id uint) (*model.Page, error) {
	var page model.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) Save(page *model.Page) error {
	return r.db.Save(page).Error
}

func (r *pageRepository) Delete(id uint) error {
	return r.db.Delete(&model.Page{}, id).Error
}

func (r *pageRepository) MaxSortOrder(projectID uint) (int, error) {
	var max sql.NullInt64
	err := r.db.Model(&model.Page{}).
		Where("project_id = ?", projectID).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}
