package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/mesa/internal/clock"
	memberdomain "github.com/smallbiznis/mesa/internal/member/domain"
	obsmetrics "github.com/smallbiznis/mesa/internal/observability/metrics"
	"github.com/smallbiznis/mesa/internal/providers/document"
	payprovider "github.com/smallbiznis/mesa/internal/providers/payment"
	"github.com/smallbiznis/mesa/internal/rating"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/internal/table/domain"
	taxdomain "github.com/smallbiznis/mesa/internal/tax/domain"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/db"
	"github.com/smallbiznis/mesa/pkg/repository"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Tables     repository.TenantScoped[domain.Table]
	Members    memberdomain.Service
	TaxConfig  taxdomain.Resolver
	Documents  document.Provider
	Payments   payprovider.Provider
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Service owns the table status field and the lifecycle of its usage
// session. Every transition runs in a single transaction; concurrent
// transitions on the same table are serialized by a row lock plus a
// status predicate on the final update.
type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	tables     repository.TenantScoped[domain.Table]
	members    memberdomain.Service
	taxConfig  taxdomain.Resolver
	documents  document.Provider
	payments   payprovider.Provider
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("table.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		tables:     p.Tables,
		members:    p.Members,
		taxConfig:  p.TaxConfig,
		documents:  p.Documents,
		payments:   p.Payments,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, table *domain.Table) error {
	if table.Number <= 0 {
		return domain.ErrInvalidNumber
	}
	if table.ID == 0 {
		table.ID = s.genID.Generate()
	}
	table.Status = domain.StatusAvailable
	if err := s.tables.Create(ctx, table); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrDuplicateNumber
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Table, error) {
	table, err := s.tables.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, domain.ErrNotFound
	}
	return table, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Table, error) {
	return s.tables.Find(ctx, &domain.Table{})
}

func (s *Service) StartSession(ctx context.Context, tableID snowflake.ID, req domain.StartRequest) (*domain.StartResult, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}

	if req.MemberID != nil {
		// Unknown discount targets are rejected before any state change.
		if _, err := s.members.Get(ctx, *req.MemberID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	result := &domain.StartResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := s.lockTable(tx, tenantID, tableID)
		if err != nil {
			return err
		}
		if !table.Startable() {
			return domain.ErrTableOccupied
		}

		var openCount int64
		if err := tx.Model(&sessiondomain.UsageLog{}).
			Where("tenant_id = ? AND table_id = ? AND ended_at IS NULL", tenantID, tableID).
			Count(&openCount).Error; err != nil {
			return err
		}
		if openCount > 0 {
			return domain.ErrTableOccupied
		}

		if table.Status == domain.StatusPaymentPending && table.CurrentSessionID != nil {
			// Starting over PAYMENT_PENDING abandons the unpaid prior
			// session; it stays PENDING and is swept into the next shift.
			abandoned := *table.CurrentSessionID
			result.AbandonedSessionID = &abandoned
		}

		usageLog := &sessiondomain.UsageLog{
			ID:            s.genID.Generate(),
			TenantID:      tenantID,
			TableID:       table.ID,
			MemberID:      req.MemberID,
			StartedAt:     now,
			PaymentStatus: sessiondomain.PaymentStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(usageLog).Error; err != nil {
			return err
		}

		update := tx.Model(&domain.Table{}).
			Where("id = ? AND tenant_id = ? AND status IN ?", table.ID, tenantID,
				[]domain.Status{domain.StatusAvailable, domain.StatusPaymentPending}).
			Updates(map[string]any{
				"status":             domain.StatusOccupied,
				"current_session_id": usageLog.ID,
				"last_session_start": now,
				"updated_at":         now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domain.ErrTableOccupied
		}

		table.Status = domain.StatusOccupied
		table.CurrentSessionID = &usageLog.ID
		table.LastSessionStart = &now
		result.Table = table
		result.UsageLog = usageLog
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.SessionsStarted.Inc()
	}
	s.log.Info("session started",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int64("table_id", int64(tableID)),
		zap.Int64("usage_log_id", int64(result.UsageLog.ID)),
	)
	return result, nil
}

func (s *Service) StopSession(ctx context.Context, tableID snowflake.ID, req domain.StopRequest) (*domain.CloseSummary, error) {
	return s.closeSession(ctx, tableID, req, domain.StatusCleaning)
}

func (s *Service) DeferPayment(ctx context.Context, tableID snowflake.ID, req domain.StopRequest) (*domain.CloseSummary, error) {
	summary, err := s.closeSession(ctx, tableID, req, domain.StatusPaymentPending)
	if err != nil {
		return nil, err
	}
	if summary.Repaired || summary.UsageLog == nil {
		return summary, nil
	}

	// The close is already committed; an unreachable provider leaves the
	// table awaiting payment and is reconciled out-of-band.
	intent, err := s.payments.CreateIntent(ctx, payprovider.IntentRequest{
		TenantID:    summary.UsageLog.TenantID,
		Amount:      summary.UsageLog.AmountCharged,
		ReferenceID: summary.UsageLog.ID.String(),
		Description: fmt.Sprintf("table %d session", summary.Table.Number),
	})
	if err != nil {
		s.log.Warn("payment intent failed",
			zap.Int64("usage_log_id", int64(summary.UsageLog.ID)),
			zap.Error(err),
		)
		return summary, nil
	}
	summary.PaymentURL = intent.PaymentURL
	return summary, nil
}

func (s *Service) closeSession(ctx context.Context, tableID snowflake.ID, req domain.StopRequest, finalStatus domain.Status) (*domain.CloseSummary, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}

	now := s.clock.Now()
	summary := &domain.CloseSummary{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := s.lockTable(tx, tenantID, tableID)
		if err != nil {
			return err
		}
		if table.Status != domain.StatusOccupied {
			return domain.ErrTableNotOccupied
		}

		usageLog, err := s.findOpenLog(tx, tenantID, table)
		if err != nil {
			return err
		}
		if usageLog == nil {
			// OCCUPIED with no open session: repair instead of failing.
			return s.degradeToAvailable(tx, tenantID, table, now, summary)
		}

		var productTotal float64
		if err := tx.Model(&sessiondomain.OrderItem{}).
			Where("tenant_id = ? AND usage_log_id = ?", tenantID, usageLog.ID).
			Select("COALESCE(SUM(line_total), 0)").
			Scan(&productTotal).Error; err != nil {
			return err
		}

		var tenant tenantdomain.Tenant
		if err := tx.Where("id = ?", tenantID).First(&tenant).Error; err != nil {
			return err
		}

		discountPercent := 0.0
		if usageLog.MemberID != nil {
			member, err := s.members.Get(ctx, *usageLog.MemberID)
			if err != nil && !errors.Is(err, memberdomain.ErrNotFound) {
				return err
			}
			if member != nil {
				discountPercent = member.ActiveDiscountPercent()
			}
		}

		charge := rating.Compute(usageLog.StartedAt, now, tenant.HourlyRate, decimal.NewFromFloat(productTotal), discountPercent)
		taxCfg := taxdomain.Config{
			RatePercent: tenant.TaxRatePercent,
			Name:        tenant.TaxName,
			Exempt:      tenant.TaxExempt,
		}
		breakdown := taxdomain.Split(charge.Subtotal, taxCfg)

		docRef, docStatus, docErr := "", "", ""
		if req.IssueDocument {
			docType := req.DocType
			if docType == "" {
				docType = "BOLETA"
			}
			outcome := s.documents.Emit(ctx, document.Request{
				TenantID: tenantID,
				DocType:  docType,
				Net:      rating.Round2(breakdown.Net),
				Tax:      rating.Round2(breakdown.Tax),
				Gross:    rating.Round2(breakdown.Gross),
				Receiver: req.Receiver,
			})
			docRef, docStatus, docErr = outcome.Ref, outcome.Status, outcome.Err
		}

		closeUpdate := tx.Model(&sessiondomain.UsageLog{}).
			Where("id = ? AND tenant_id = ? AND ended_at IS NULL", usageLog.ID, tenantID).
			Updates(map[string]any{
				"ended_at":         now,
				"duration_minutes": charge.DurationMinutes,
				"amount_charged":   rating.Round2Float(breakdown.Gross),
				"product_total":    productTotal,
				"discount_applied": rating.Round2Float(charge.DiscountAmount),
				"tax_amount":       rating.Round2Float(breakdown.Tax),
				"tax_rate_percent": taxCfg.RatePercent,
				"tax_name":         taxCfg.Name,
				"document_ref":     docRef,
				"document_status":  docStatus,
				"document_error":   docErr,
				"updated_at":       now,
			})
		if closeUpdate.Error != nil {
			return closeUpdate.Error
		}
		if closeUpdate.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}

		sessionHours := float64(charge.DurationMinutes) / 60
		newTotal := table.TotalPlayHours + sessionHours

		tableUpdate := tx.Model(&domain.Table{}).
			Where("id = ? AND tenant_id = ? AND status = ?", table.ID, tenantID, domain.StatusOccupied).
			Updates(map[string]any{
				"status":           finalStatus,
				"total_play_hours": newTotal,
				"updated_at":       now,
			})
		if tableUpdate.Error != nil {
			return tableUpdate.Error
		}
		if tableUpdate.RowsAffected == 0 {
			return domain.ErrTableNotOccupied
		}

		if table.MaintenanceThresholdHours > 0 &&
			table.TotalPlayHours < table.MaintenanceThresholdHours &&
			newTotal >= table.MaintenanceThresholdHours {
			alert := &domain.MaintenanceAlert{
				ID:        s.genID.Generate(),
				TenantID:  tenantID,
				TableID:   table.ID,
				PlayHours: newTotal,
				CreatedAt: now,
			}
			if err := tx.Create(alert).Error; err != nil {
				return err
			}
			s.log.Info("maintenance threshold crossed",
				zap.Int64("table_id", int64(table.ID)),
				zap.Float64("play_hours", newTotal),
			)
		}

		table.Status = finalStatus
		table.TotalPlayHours = newTotal
		refreshed := *usageLog
		refreshed.EndedAt = &now
		refreshed.DurationMinutes = charge.DurationMinutes
		refreshed.AmountCharged = rating.Round2Float(breakdown.Gross)
		refreshed.ProductTotal = productTotal
		refreshed.DiscountApplied = rating.Round2Float(charge.DiscountAmount)
		refreshed.TaxAmount = rating.Round2Float(breakdown.Tax)
		refreshed.TaxRatePercent = taxCfg.RatePercent
		refreshed.TaxName = taxCfg.Name
		refreshed.DocumentRef = docRef
		refreshed.DocumentStatus = docStatus
		refreshed.DocumentError = docErr
		summary.Table = table
		summary.UsageLog = &refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		if summary.Repaired {
			s.obsMetrics.SessionsDegraded.Inc()
		} else {
			s.obsMetrics.SessionsClosed.Inc()
		}
	}
	if summary.UsageLog != nil {
		s.log.Info("session closed",
			zap.Int64("tenant_id", int64(tenantID)),
			zap.Int64("table_id", int64(tableID)),
			zap.Int64("duration_minutes", summary.UsageLog.DurationMinutes),
			zap.Float64("amount_charged", summary.UsageLog.AmountCharged),
			zap.String("final_status", string(finalStatus)),
		)
	}
	return summary, nil
}

func (s *Service) FinishCleaning(ctx context.Context, tableID snowflake.ID) (*domain.Table, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}

	now := s.clock.Now()
	var result *domain.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := s.lockTable(tx, tenantID, tableID)
		if err != nil {
			return err
		}
		if table.Status != domain.StatusCleaning {
			return domain.ErrTableNotCleaning
		}

		update := tx.Model(&domain.Table{}).
			Where("id = ? AND tenant_id = ? AND status = ?", table.ID, tenantID, domain.StatusCleaning).
			Updates(map[string]any{
				"status":             domain.StatusAvailable,
				"current_session_id": nil,
				"last_session_start": nil,
				"updated_at":         now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domain.ErrTableNotCleaning
		}

		table.Status = domain.StatusAvailable
		table.CurrentSessionID = nil
		table.LastSessionStart = nil
		result = table
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) lockTable(tx *gorm.DB, tenantID, tableID snowflake.ID) (*domain.Table, error) {
	var table domain.Table
	err := db.LockForUpdate(tx).
		Where("id = ? AND tenant_id = ?", tableID, tenantID).
		First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (s *Service) findOpenLog(tx *gorm.DB, tenantID snowflake.ID, table *domain.Table) (*sessiondomain.UsageLog, error) {
	var usageLog sessiondomain.UsageLog
	query := tx.Where("tenant_id = ? AND table_id = ? AND ended_at IS NULL", tenantID, table.ID)
	if table.CurrentSessionID != nil {
		query = tx.Where("tenant_id = ? AND id = ? AND ended_at IS NULL", tenantID, *table.CurrentSessionID)
	}
	if err := query.First(&usageLog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usageLog, nil
}

func (s *Service) degradeToAvailable(tx *gorm.DB, tenantID snowflake.ID, table *domain.Table, now time.Time, summary *domain.CloseSummary) error {
	update := tx.Model(&domain.Table{}).
		Where("id = ? AND tenant_id = ?", table.ID, tenantID).
		Updates(map[string]any{
			"status":             domain.StatusAvailable,
			"current_session_id": nil,
			"last_session_start": nil,
			"updated_at":         now,
		})
	if update.Error != nil {
		return update.Error
	}

	s.log.Warn("occupied table had no open session, repaired",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int64("table_id", int64(table.ID)),
	)
	table.Status = domain.StatusAvailable
	table.CurrentSessionID = nil
	table.LastSessionStart = nil
	summary.Table = table
	summary.Repaired = true
	return nil
}
