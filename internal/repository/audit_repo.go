package repository

import (
	"time"

	"github.com/lingoflow/backend/internal/model"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(entry *model.AuditEntry) error {
	return r.db.Create(entry).Error
}

func (r *auditRepository) List(filter AuditFilter) ([]model.AuditEntry, error) {
	q := r.db.Model(&model.AuditEntry{})
	if filter.ProjectID != 0 {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.ActorID != 0 {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []model.AuditEntry
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *auditRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&model.AuditEntry{})
	return res.RowsAffected, res.Error
}
