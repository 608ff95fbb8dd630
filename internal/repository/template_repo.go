package repository

import (
	"errors"

	"github.com/lingoflow/backend/internal/model"
	"gorm.io/gorm"
)

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(tpl *model.PromptTemplate) error {
	return r.db.Create(tpl).Error
}

func (r *templateRepository) List() ([]model.PromptTemplate, error) {
	var templates []model.PromptTemplate
	err := r.db.Order("is_default DESC, name").Find(&templates).Error
	return templates, err
}

func (r *templateRepository) Get(id uint) (*model.PromptTemplate, error) {
	var tpl model.PromptTemplate
	err := r.db.First(&tpl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) GetDefault() (*model.PromptTemplate, error) {
	var tpl model.PromptTemplate
	err := r.db.Where("is_default = ?", true).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) Save(tpl *model.PromptTemplate) error {
	return r.db.Save(tpl).Error
}

func (r *templateRepository) ClearDefaultExcept(id uint) error {
	return r.db.Model(&model.PromptTemplate{}).
		Where("id <> ? AND is_default = ?", id, true).
		Update("is_default", false).Error
}

func (r *templateRepository) Delete(id uint) error {
	return r.db.Delete(&model.PromptTemplate{}, id).Error
}
