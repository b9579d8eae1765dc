// Package domain contains the member records consulted at charge time.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus is the standing of a membership.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// Member holds the discount entitlement of a venue member.
type Member struct {
	ID                 snowflake.ID       `gorm:"primaryKey" json:"id"`
	TenantID           snowflake.ID       `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	Name               string             `gorm:"type:text;not null" json:"name"`
	DiscountPercent    float64            `gorm:"not null;default:0" json:"discount_percent"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:text;not null;default:'ACTIVE'" json:"subscription_status"`
	CreatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

func (m *Member) GetTenantID() snowflake.ID   { return m.TenantID }
func (m *Member) SetTenantID(id snowflake.ID) { m.TenantID = id }

// ActiveDiscountPercent returns the member's discount, or zero when the
// subscription is not in good standing.
func (m *Member) ActiveDiscountPercent() float64 {
	if m.SubscriptionStatus != SubscriptionStatusActive {
		return 0
	}
	return m.DiscountPercent
}

// Service resolves members for the session engine.
type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Member, error)
}
