package repository

import (
	"errors"

	"github.com/lingoflow/backend/internal/model"
	"gorm.io/gorm"
)

type glossaryRepository struct {
	db *gorm.DB
}

func NewGlossaryRepository(db *gorm.DB) GlossaryRepository {
	return &glossaryRepository{db: db}
}

func (r *glossaryRepository) CreateTerm(term *model.GlossaryTerm) error {
	return r.db.Create(term).Error
}

func (r *glossaryRepository) ListTerms() ([]model.GlossaryTerm, error) {
	var terms []model.GlossaryTerm
	err := r.db.Order("source_text").Find(&terms).Error
	return terms, err
}

func (r *glossaryRepository) ListTermsByStatus(status string) ([]model.GlossaryTerm, error) {
	var terms []model.GlossaryTerm
	err := r.db.Where("status = ?", status).Order("source_text").Find(&terms).Error
	return terms, err
}

func (r *glossaryRepository) GetTerm(id uint) (*model.GlossaryTerm, error) {
	var term model.GlossaryTerm
	err := r.db.First(&term, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &term, nil
}

func (r *glossaryRepository) SaveTerm(term *model.GlossaryTerm) error {
	return r.db.Save(term).Error
}

func (r *glossaryRepository) DeleteTerm(id uint) error {
	return r.db.Delete(&model.GlossaryTerm{}, id).Error
}

func (r *glossaryRepository) CreateCategory(category *model.GlossaryCategory) error {
	return r.db.Create(category).Error
}

func (r *glossaryRepository) ListCategories() ([]model.GlossaryCategory, error) {
	var categories []model.GlossaryCategory
	err := r.db.Order("sort_order, name").Find(&categories).Error
	return categories, err
}

func (r *glossaryRepository) DeleteCategory(id uint) error {
	return r.db.Delete(&model.GlossaryCategory{}, id).Error
}
