// Package domain contains settlement evidence for usage logs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Method is the payment channel.
type Method string

const (
	MethodCash     Method = "CASH"
	MethodCard     Method = "CARD"
	MethodTransfer Method = "TRANSFER"
	MethodOther    Method = "OTHER"
)

// Status is the settlement state of a record.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// PaymentRecord settles one usage log. At most one COMPLETED record per
// log under normal operation.
type PaymentRecord struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID      `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	UsageLogID  snowflake.ID      `gorm:"not null;index" json:"usage_log_id"`
	Method      Method            `gorm:"type:text;not null" json:"method"`
	Amount      float64           `gorm:"not null" json:"amount"`
	Status      Status            `gorm:"type:text;not null" json:"status"`
	ProviderRef string            `gorm:"type:text;not null;default:''" json:"provider_ref,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PaymentRecord) TableName() string { return "payment_records" }

func (p *PaymentRecord) GetTenantID() snowflake.ID   { return p.TenantID }
func (p *PaymentRecord) SetTenantID(id snowflake.ID) { p.TenantID = id }

// ValidMethod reports whether m is a known payment channel.
func ValidMethod(m Method) bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodOther:
		return true
	default:
		return false
	}
}
