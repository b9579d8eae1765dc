package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	obsmetrics "github.com/smallbiznis/mesa/internal/observability/metrics"
	"github.com/smallbiznis/mesa/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
	"github.com/smallbiznis/mesa/pkg/db"
	"github.com/smallbiznis/mesa/pkg/repository"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

// Register records settlement in one transaction: the payment record is
// created, the usage log marked PAID, and the table released when it is
// still parked on that session. This is the only transition that frees a
// table without passing through CLEANING.
func normalizeMetadata(input map[string]any) datatypes.JSONMap {
	if len(input) == 0 {
		return datatypes.JSONMap{}
	}
	output := datatypes.JSONMap{}
	for key, value := range input {
		output[key] = value
	}
	return output
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResult, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.ValidMethod(req.Method) {
		return nil, domain.ErrInvalidMethod
	}

	now := s.clock.Now()
	result := &domain.RegisterResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var usageLog sessiondomain.UsageLog
		err := db.LockForUpdate(tx).
			Where("id = ? AND tenant_id = ?", req.UsageLogID, tenantID).
			First(&usageLog).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return sessiondomain.ErrNotFound
			}
			return err
		}
		if usageLog.Sealed() {
			return sessiondomain.ErrSessionSealed
		}
		if usageLog.PaymentStatus == sessiondomain.PaymentStatusPaid {
			return domain.ErrAlreadyPaid
		}

		var completed int64
		if err := tx.Model(&domain.PaymentRecord{}).
			Where("tenant_id = ? AND usage_log_id = ? AND status = ?", tenantID, usageLog.ID, domain.StatusCompleted).
			Count(&completed).Error; err != nil {
			return err
		}
		if completed > 0 {
			return domain.ErrAlreadyPaid
		}

		record := &domain.PaymentRecord{
			ID:          s.genID.Generate(),
			TenantID:    tenantID,
			UsageLogID:  usageLog.ID,
			Method:      req.Method,
			Amount:      req.Amount,
			Status:      domain.StatusCompleted,
			ProviderRef: req.ProviderRef,
			Metadata:    normalizeMetadata(req.Metadata),
			CreatedAt:   now,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		logUpdate := tx.Model(&sessiondomain.UsageLog{}).
			Where("id = ? AND tenant_id = ? AND payment_status = ?", usageLog.ID, tenantID, sessiondomain.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status": sessiondomain.PaymentStatusPaid,
				"updated_at":     now,
			})
		if logUpdate.Error != nil {
			return logUpdate.Error
		}
		if logUpdate.RowsAffected == 0 {
			return domain.ErrAlreadyPaid
		}

		release := tx.Model(&tabledomain.Table{}).
			Where("tenant_id = ? AND current_session_id = ? AND status IN ?", tenantID, usageLog.ID,
				[]tabledomain.Status{tabledomain.StatusPaymentPending, tabledomain.StatusCleaning}).
			Updates(map[string]any{
				"status":             tabledomain.StatusAvailable,
				"current_session_id": nil,
				"last_session_start": nil,
				"updated_at":         now,
			})
		if release.Error != nil {
			return release.Error
		}

		result.Record = record
		result.TableReleased = release.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment registered",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int64("usage_log_id", int64(req.UsageLogID)),
		zap.String("method", string(req.Method)),
		zap.Float64("amount", req.Amount),
		zap.Bool("table_released", result.TableReleased),
	)
	return result, nil
}
