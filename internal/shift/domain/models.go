// Package domain contains the sealed shift balance (Z-report).
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DailyBalance is one immutable shift closure. Corrections require a new
// balance; rows are never edited after creation, and the integrity hash
// makes out-of-band edits detectable.
type DailyBalance struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`

	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`

	TimeRevenue       float64 `gorm:"not null;default:0" json:"time_revenue"`
	ProductRevenue    float64 `gorm:"not null;default:0" json:"product_revenue"`
	MembershipRevenue float64 `gorm:"not null;default:0" json:"membership_revenue"`
	RentalRevenue     float64 `gorm:"not null;default:0" json:"rental_revenue"`
	TotalRevenue      float64 `gorm:"not null;default:0" json:"total_revenue"`

	CashRevenue   float64 `gorm:"not null;default:0" json:"cash_revenue"`
	CardRevenue   float64 `gorm:"not null;default:0" json:"card_revenue"`
	CreditRevenue float64 `gorm:"not null;default:0" json:"credit_revenue"`

	TotalCost       float64 `gorm:"not null;default:0" json:"total_cost"`
	WasteCost       float64 `gorm:"not null;default:0" json:"waste_cost"`
	MaintenanceCost float64 `gorm:"not null;default:0" json:"maintenance_cost"`
	NetProfit       float64 `gorm:"not null;default:0" json:"net_profit"`

	CashInHand     float64 `gorm:"not null;default:0" json:"cash_in_hand"`
	CashDifference float64 `gorm:"not null;default:0" json:"cash_difference"`
	HasCashAlert   bool    `gorm:"not null;default:false" json:"has_cash_alert"`

	SessionCount int    `gorm:"not null;default:0" json:"session_count"`
	ClosedBy     string `gorm:"type:text;not null" json:"closed_by"`
	Notes        string `gorm:"type:text;not null;default:''" json:"notes"`

	IntegrityHash string    `gorm:"type:text;not null" json:"integrity_hash"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DailyBalance) TableName() string { return "daily_balances" }

func (b *DailyBalance) GetTenantID() snowflake.ID   { return b.TenantID }
func (b *DailyBalance) SetTenantID(id snowflake.ID) { b.TenantID = id }
