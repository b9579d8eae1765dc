// Package scheduler runs the integrity sweep on an interval so stuck
// tables recover without an operator calling the sweep endpoint.
package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/mesa/internal/auditor"
	"github.com/smallbiznis/mesa/internal/clock"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Auditor *auditor.Service
}

type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	auditor  *auditor.Service
	interval time.Duration
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler"),
		clock:   p.Clock,
		auditor: p.Auditor,
	}
}

// RunForever sweeps every tenant on each tick until the context ends.
func (s *Scheduler) RunForever(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepAll(ctx)
		}
	}
}

// SweepAll runs one sweep pass across all tenants. A failing tenant does
// not stop the pass.
func (s *Scheduler) SweepAll(ctx context.Context) {
	var tenants []tenantdomain.Tenant
	if err := s.db.WithContext(ctx).Find(&tenants).Error; err != nil {
		s.log.Error("tenant scan failed", zap.Error(err))
		return
	}

	for _, tenant := range tenants {
		scope := tenantctx.Scope{
			TenantID: tenant.ID,
			Actor:    "scheduler",
			Role:     tenantctx.RoleSystem,
		}
		report, err := s.auditor.Sweep(tenantctx.WithScope(ctx, scope))
		if err != nil {
			s.log.Error("scheduled sweep failed",
				zap.Int64("tenant_id", int64(tenant.ID)),
				zap.Error(err),
			)
			continue
		}
		if report.FixedCount > 0 {
			s.log.Info("scheduled sweep repaired tables",
				zap.Int64("tenant_id", int64(tenant.ID)),
				zap.Int("fixed_count", report.FixedCount),
			)
		}
	}
}
