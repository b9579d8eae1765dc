// Package domain contains the play-session rows produced by the table
// state machine and consumed by the shift reconciliation engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus is the settlement state of a session.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Document statuses recorded from the issuance provider. A non-terminal
// status never blocks the session close.
const (
	DocumentStatusIssued  = "ISSUED"
	DocumentStatusPending = "PENDING"
	DocumentStatusFailed  = "FAILED"
)

// UsageLog is one play session on one table. It is open while EndedAt is
// nil, closed once the stop transition fills the charge fields, and
// immutable once DailyBalanceID is set.
type UsageLog struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID        snowflake.ID  `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	TableID         snowflake.ID  `gorm:"not null;index" json:"table_id"`
	MemberID        *snowflake.ID `gorm:"index" json:"member_id,omitempty"`
	StartedAt       time.Time     `gorm:"not null" json:"started_at"`
	EndedAt         *time.Time    `gorm:"index" json:"ended_at,omitempty"`
	DurationMinutes int64         `gorm:"not null;default:0" json:"duration_minutes"`
	AmountCharged   float64       `gorm:"not null;default:0" json:"amount_charged"`
	ProductTotal    float64       `gorm:"not null;default:0" json:"product_total"`
	DiscountApplied float64       `gorm:"not null;default:0" json:"discount_applied"`
	TaxAmount       float64       `gorm:"not null;default:0" json:"tax_amount"`
	TaxRatePercent  float64       `gorm:"not null;default:0" json:"tax_rate_percent"`
	TaxName         string        `gorm:"type:text;not null;default:''" json:"tax_name"`
	PaymentStatus   PaymentStatus `gorm:"type:text;not null;default:'PENDING'" json:"payment_status"`
	DocumentRef     string        `gorm:"type:text;not null;default:''" json:"document_ref,omitempty"`
	DocumentStatus  string        `gorm:"type:text;not null;default:''" json:"document_status,omitempty"`
	DocumentError   string        `gorm:"type:text;not null;default:''" json:"document_error,omitempty"`
	DailyBalanceID  *snowflake.ID `gorm:"index" json:"daily_balance_id,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UsageLog) TableName() string { return "usage_logs" }

func (l *UsageLog) GetTenantID() snowflake.ID   { return l.TenantID }
func (l *UsageLog) SetTenantID(id snowflake.ID) { l.TenantID = id }

// Open reports whether the session is still running.
func (l *UsageLog) Open() bool { return l.EndedAt == nil }

// Sealed reports whether the session was folded into a shift balance.
func (l *UsageLog) Sealed() bool { return l.DailyBalanceID != nil }

// OrderItem is product consumption attached to an open session.
// Append-only while the session is open.
type OrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	UsageLogID  snowflake.ID `gorm:"not null;index" json:"usage_log_id"`
	ProductName string       `gorm:"type:text;not null" json:"product_name"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	LineTotal   float64      `gorm:"not null" json:"line_total"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) GetTenantID() snowflake.ID   { return i.TenantID }
func (i *OrderItem) SetTenantID(id snowflake.ID) { i.TenantID = id }
