package repository

import (
	"errors"
	"time"

	"github.com/lingoflow/backend/internal/model"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(project *model.Project) error {
	return r.db.Create(project).Error
}

func (r *projectRepository) List() ([]model.Project, error) {
	var projects []model.Project
	err := r.db.Order("updated_at DESC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Get(id uint) (*model.Project, error) {
	var project model.Project
	err := r.db.First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) Save(project *model.Project) error {
	return r.db.Save(project).Error
}

func (r *projectRepository) UpdateDerived(id uint, status string, progress int) error {
	return r.db.Model(&model.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

func (r *projectRepository) Delete(id uint) error {
	return r.db.Delete(&model.Project{}, id).Error
}
