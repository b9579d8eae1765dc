// Package domain contains the cost and ancillary-revenue figures the
// shift engine folds into a balance. The rows double as the seam for an
// external inventory system: a deployment can point the aggregator at a
// different implementation without touching the shift engine.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CostKind classifies a cost entry.
type CostKind string

const (
	CostKindCOGS        CostKind = "COGS"
	CostKindWaste       CostKind = "WASTE"
	CostKindMaintenance CostKind = "MAINTENANCE"
)

// RevenueStream classifies ancillary revenue.
type RevenueStream string

const (
	StreamMembership RevenueStream = "MEMBERSHIP"
	StreamRental     RevenueStream = "RENTAL"
)

// CostEntry is one recorded cost in the shift window.
type CostEntry struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	Kind       CostKind     `gorm:"type:text;not null" json:"kind"`
	Amount     float64      `gorm:"not null" json:"amount"`
	OccurredAt time.Time    `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CostEntry) TableName() string { return "cost_entries" }

func (c *CostEntry) GetTenantID() snowflake.ID   { return c.TenantID }
func (c *CostEntry) SetTenantID(id snowflake.ID) { c.TenantID = id }

// AncillaryRevenue is membership or rental income in the shift window.
type AncillaryRevenue struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID  `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	Stream     RevenueStream `gorm:"type:text;not null" json:"stream"`
	Amount     float64       `gorm:"not null" json:"amount"`
	OccurredAt time.Time     `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AncillaryRevenue) TableName() string { return "ancillary_revenues" }

func (r *AncillaryRevenue) GetTenantID() snowflake.ID   { return r.TenantID }
func (r *AncillaryRevenue) SetTenantID(id snowflake.ID) { r.TenantID = id }

// Totals are the aggregated figures for one shift window.
type Totals struct {
	COGS        float64
	Waste       float64
	Maintenance float64
	Membership  float64
	Rental      float64
}

// Aggregator supplies cost and ancillary-revenue totals for a window.
type Aggregator interface {
	Totals(ctx context.Context, tenantID snowflake.ID, from, to time.Time) (Totals, error)
}
