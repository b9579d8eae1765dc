// Package auditor repairs tables whose state contradicts session reality:
// OCCUPIED with no session pointer, or a session start old enough that no
// one is actually playing.
package auditor

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	"github.com/smallbiznis/mesa/internal/config"
	obsmetrics "github.com/smallbiznis/mesa/internal/observability/metrics"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
	"github.com/smallbiznis/mesa/pkg/repository"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Report is the outcome of one sweep.
type Report struct {
	FixedCount    int            `json:"fixed_count"`
	FixedTableIDs []snowflake.ID `json:"fixed_table_ids"`
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	staleAfter time.Duration
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("auditor.service"),
		clock:      p.Clock,
		staleAfter: time.Duration(p.Config.Audit.StaleSessionHours) * time.Hour,
		obsMetrics: p.ObsMetrics,
	}
}

// Sweep bulk-repairs inconsistent tables for the scoped tenant. Matched
// rows are never part of an in-flight close, so each repair commits on
// its own. Zero matches is success.
func (s *Service) Sweep(ctx context.Context) (*Report, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}

	cutoff := s.clock.Now().Add(-s.staleAfter)

	var stuck []tabledomain.Table
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, tabledomain.StatusOccupied).
		Where("current_session_id IS NULL OR last_session_start < ?", cutoff).
		Find(&stuck).Error
	if err != nil {
		return nil, err
	}

	report := &Report{FixedTableIDs: make([]snowflake.ID, 0, len(stuck))}
	if len(stuck) == 0 {
		return report, nil
	}

	ids := make([]snowflake.ID, 0, len(stuck))
	for _, table := range stuck {
		ids = append(ids, table.ID)
	}

	result := s.db.WithContext(ctx).Model(&tabledomain.Table{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Updates(map[string]any{
			"status":             tabledomain.StatusAvailable,
			"current_session_id": nil,
			"last_session_start": nil,
			"updated_at":         s.clock.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}

	report.FixedCount = int(result.RowsAffected)
	report.FixedTableIDs = ids
	if s.obsMetrics != nil {
		s.obsMetrics.AuditorRepairs.Add(float64(report.FixedCount))
	}
	s.log.Warn("integrity sweep repaired tables",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int("fixed_count", report.FixedCount),
	)
	return report, nil
}
