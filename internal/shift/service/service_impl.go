package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/mesa/internal/clock"
	"github.com/smallbiznis/mesa/internal/config"
	costsdomain "github.com/smallbiznis/mesa/internal/costs/domain"
	obsmetrics "github.com/smallbiznis/mesa/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/mesa/internal/payment/domain"
	"github.com/smallbiznis/mesa/internal/rating"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/internal/shift/domain"
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
	Config     config.Config
	Costs      costsdomain.Aggregator
	Balances   repository.TenantScoped[domain.DailyBalance]
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Service folds all closed, unreconciled usage logs of a tenant into one
// sealed balance. The claim step, creating the balance and stamping every
// selected log, is the sole atomic boundary.
type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	tolerance  float64
	costs      costsdomain.Aggregator
	balances   repository.TenantScoped[domain.DailyBalance]
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("shift.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		tolerance:  p.Config.Shift.CashTolerance,
		costs:      p.Costs,
		balances:   p.Balances,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Close(ctx context.Context, req domain.CloseRequest) (*domain.CloseResult, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}
	if req.CashInHand < 0 {
		return nil, domain.ErrInvalidCash
	}
	if strings.TrimSpace(req.ClosedBy) == "" {
		return nil, domain.ErrInvalidCloser
	}

	// Truncated so the sealed times survive a timestamptz round-trip
	// unchanged; Verify recomputes the hash from the reloaded row.
	now := s.clock.Now().Truncate(time.Microsecond)
	var result *domain.CloseResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locking the unreconciled set serializes the claim against
		// concurrent stop transitions: a log is either fully closed and
		// visible here, or not yet closed at all.
		var logs []sessiondomain.UsageLog
		err := db.LockForUpdate(tx).
			Where("tenant_id = ? AND ended_at IS NOT NULL AND daily_balance_id IS NULL", tenantID).
			Order("ended_at ASC").
			Find(&logs).Error
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			return domain.ErrNothingToClose
		}

		periodStart, err := s.periodStart(tx, tenantID, logs)
		if err != nil {
			return err
		}

		timeRevenue := decimal.Zero
		productRevenue := decimal.Zero
		ids := make([]snowflake.ID, 0, len(logs))
		for _, usageLog := range logs {
			ids = append(ids, usageLog.ID)
			product := decimal.NewFromFloat(usageLog.ProductTotal)
			timeRevenue = timeRevenue.Add(decimal.NewFromFloat(usageLog.AmountCharged).Sub(product))
			productRevenue = productRevenue.Add(product)
		}

		cash, card, credit, err := s.paymentTotals(tx, tenantID, ids)
		if err != nil {
			return err
		}

		totals, err := s.costs.Totals(ctx, tenantID, periodStart, now)
		if err != nil {
			return err
		}

		totalRevenue := timeRevenue.Add(productRevenue).
			Add(decimal.NewFromFloat(totals.Membership)).
			Add(decimal.NewFromFloat(totals.Rental))
		netProfit := totalRevenue.
			Sub(decimal.NewFromFloat(totals.COGS)).
			Sub(decimal.NewFromFloat(totals.Waste)).
			Sub(decimal.NewFromFloat(totals.Maintenance))

		cashDifference := decimal.NewFromFloat(req.CashInHand).Sub(cash)
		hasCashAlert := cashDifference.Abs().GreaterThan(decimal.NewFromFloat(s.tolerance))

		balance := &domain.DailyBalance{
			ID:                s.genID.Generate(),
			TenantID:          tenantID,
			PeriodStart:       periodStart,
			PeriodEnd:         now,
			TimeRevenue:       rating.Round2Float(timeRevenue),
			ProductRevenue:    rating.Round2Float(productRevenue),
			MembershipRevenue: totals.Membership,
			RentalRevenue:     totals.Rental,
			TotalRevenue:      rating.Round2Float(totalRevenue),
			CashRevenue:       rating.Round2Float(cash),
			CardRevenue:       rating.Round2Float(card),
			CreditRevenue:     rating.Round2Float(credit),
			TotalCost:         totals.COGS,
			WasteCost:         totals.Waste,
			MaintenanceCost:   totals.Maintenance,
			NetProfit:         rating.Round2Float(netProfit),
			CashInHand:        req.CashInHand,
			CashDifference:    rating.Round2Float(cashDifference),
			HasCashAlert:      hasCashAlert,
			SessionCount:      len(logs),
			ClosedBy:          strings.TrimSpace(req.ClosedBy),
			Notes:             req.Notes,
			CreatedAt:         now,
		}
		balance.IntegrityHash = domain.ComputeIntegrityHash(balance)

		if err := tx.Create(balance).Error; err != nil {
			return err
		}

		claim := tx.Model(&sessiondomain.UsageLog{}).
			Where("tenant_id = ? AND id IN ? AND daily_balance_id IS NULL", tenantID, ids).
			Updates(map[string]any{
				"daily_balance_id": balance.ID,
				"updated_at":       now,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected != int64(len(ids)) {
			// Another closure claimed part of the set; roll everything
			// back rather than seal a partial shift.
			return domain.ErrClaimConflict
		}

		result = &domain.CloseResult{
			Balance:        balance,
			CashDifference: balance.CashDifference,
			HasCashAlert:   balance.HasCashAlert,
			SessionCount:   balance.SessionCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.ShiftsSealed.Inc()
		if result.HasCashAlert {
			s.obsMetrics.CashAlerts.Inc()
		}
	}
	s.log.Info("shift sealed",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int64("balance_id", int64(result.Balance.ID)),
		zap.Int("session_count", result.SessionCount),
		zap.Float64("cash_difference", result.CashDifference),
		zap.Bool("cash_alert", result.HasCashAlert),
	)
	return result, nil
}

// periodStart anchors the cost window at the previous seal, falling back
// to the earliest session start in the set for a tenant's first shift.
func (s *Service) periodStart(tx *gorm.DB, tenantID snowflake.ID, logs []sessiondomain.UsageLog) (time.Time, error) {
	var previous domain.DailyBalance
	err := tx.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		First(&previous).Error
	if err == nil {
		return previous.CreatedAt.Truncate(time.Microsecond), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, err
	}

	earliest := logs[0].StartedAt
	for _, usageLog := range logs[1:] {
		if usageLog.StartedAt.Before(earliest) {
			earliest = usageLog.StartedAt
		}
	}
	return earliest.Truncate(time.Microsecond), nil
}

func (s *Service) paymentTotals(tx *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) (cash, card, credit decimal.Decimal, err error) {
	cash, card, credit = decimal.Zero, decimal.Zero, decimal.Zero

	type methodSum struct {
		Method string
		Total  float64
	}
	var rows []methodSum
	err = tx.Model(&paymentdomain.PaymentRecord{}).
		Select("method, COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND usage_log_id IN ? AND status = ?", tenantID, ids, paymentdomain.StatusCompleted).
		Group("method").
		Scan(&rows).Error
	if err != nil {
		return
	}

	for _, row := range rows {
		total := decimal.NewFromFloat(row.Total)
		switch paymentdomain.Method(row.Method) {
		case paymentdomain.MethodCash:
			cash = cash.Add(total)
		case paymentdomain.MethodCard:
			card = card.Add(total)
		default:
			credit = credit.Add(total)
		}
	}
	return
}
