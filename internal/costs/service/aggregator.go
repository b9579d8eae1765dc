package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/costs/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

// Aggregator reads cost and ancillary-revenue rows from local tables.
type Aggregator struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAggregator(p Params) domain.Aggregator {
	return &Aggregator{
		db:  p.DB,
		log: p.Log.Named("costs.aggregator"),
	}
}

type kindSum struct {
	Kind  string
	Total float64
}

func (a *Aggregator) Totals(ctx context.Context, tenantID snowflake.ID, from, to time.Time) (domain.Totals, error) {
	var totals domain.Totals

	var costs []kindSum
	err := a.db.WithContext(ctx).Model(&domain.CostEntry{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND occurred_at >= ? AND occurred_at < ?", tenantID, from, to).
		Group("kind").
		Scan(&costs).Error
	if err != nil {
		return totals, err
	}
	for _, row := range costs {
		switch domain.CostKind(row.Kind) {
		case domain.CostKindCOGS:
			totals.COGS = row.Total
		case domain.CostKindWaste:
			totals.Waste = row.Total
		case domain.CostKindMaintenance:
			totals.Maintenance = row.Total
		}
	}

	var revenues []kindSum
	err = a.db.WithContext(ctx).Model(&domain.AncillaryRevenue{}).
		Select("stream AS kind, COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND occurred_at >= ? AND occurred_at < ?", tenantID, from, to).
		Group("stream").
		Scan(&revenues).Error
	if err != nil {
		return totals, err
	}
	for _, row := range revenues {
		switch domain.RevenueStream(row.Kind) {
		case domain.StreamMembership:
			totals.Membership = row.Total
		case domain.StreamRental:
			totals.Rental = row.Total
		}
	}

	return totals, nil
}
