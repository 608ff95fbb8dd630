package service

import (
	"encoding/json"
	"time"

	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/repository"
	"k8s.io/klog/v2"
)

// AuditService appends one entry per mutating action. Recording is
// best-effort: a failed audit write never fails the action it describes.
type AuditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

func (s *AuditService) Record(actor *model.User, action, entityType, entityID string, projectID uint, before, after interface{}) {
	entry := &model.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ProjectID:  projectID,
		Before:     toJSON(before),
		After:      toJSON(after),
		CreatedAt:  time.Now(),
	}
	if actor != nil {
		entry.ActorID = actor.ID
		entry.Actor = actor.Email
	}
	if err := s.auditRepo.Create(entry); err != nil {
		klog.Errorf("audit write failed: action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func (s *AuditService) List(filter repository.AuditFilter) ([]model.AuditEntry, error) {
	return s.auditRepo.List(filter)
}

// Sweep removes entries older than the retention window.
func (s *AuditService) Sweep(retention time.Duration) (int64, error) {
	return s.auditRepo.DeleteOlderThan(time.Now().Add(-retention))
}

func toJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("audit payload marshal failed: %v", err)
		return ""
	}
	return string(data)
}
