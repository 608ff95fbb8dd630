package service

import (
	"fmt"

	"github.com/lingoflow/backend/config"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"
)

// Reconciler keeps background state fresh: it re-reads every cached project
// on the poll interval so other writers' changes become visible, and prunes
// audit entries past their retention window. The refresh only updates the
// read cache; local edits are never replayed over remote state.
type Reconciler struct {
	cfg        *config.Config
	rowService *RowService
	audit      *AuditService
	cron       *cron.Cron
}

func NewReconciler(cfg *config.Config, rowService *RowService, audit *AuditService) *Reconciler {
	return &Reconciler{
		cfg:        cfg,
		rowService: rowService,
		audit:      audit,
		cron:       cron.New(),
	}
}

func (r *Reconciler) Start() error {
	refreshSpec := fmt.Sprintf("@every %s", r.cfg.Sync.PollInterval)
	if _, err := r.cron.AddFunc(refreshSpec, r.rowService.RefreshAll); err != nil {
		return fmt.Errorf("failed to schedule cache refresh: %w", err)
	}
	if _, err := r.cron.AddFunc("@hourly", r.sweepAudit); err != nil {
		return fmt.Errorf("failed to schedule audit sweep: %w", err)
	}
	r.cron.Start()
	klog.V(6).Infof("reconciler started: refresh=%s", r.cfg.Sync.PollInterval)
	return nil
}

func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Reconciler) sweepAudit() {
	if r.audit == nil || r.cfg.Audit.Retention <= 0 {
		return
	}
	removed, err := r.audit.Sweep(r.cfg.Audit.Retention)
	if err != nil {
		klog.Errorf("audit retention sweep failed: %v", err)
		return
	}
	if removed > 0 {
		klog.V(6).Infof("audit retention sweep removed %d entries", removed)
	}
}
