// Package domain contains the tenant record consumed read-only by the
// session and shift engines.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is the isolation boundary. Rate and tax fields are snapshotted at
// charge time; the engines never mutate them.
type Tenant struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	HourlyRate     float64      `gorm:"not null" json:"hourly_rate"`
	TaxRatePercent float64      `gorm:"not null;default:0" json:"tax_rate_percent"`
	TaxName        string       `gorm:"type:text;not null;default:''" json:"tax_name"`
	TaxExempt      bool         `gorm:"not null;default:false" json:"tax_exempt"`
	Currency       string       `gorm:"type:text;not null;default:'CLP'" json:"currency"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

func (t *Tenant) Validate() error {
	if t.Name == "" {
		return ErrInvalidName
	}
	if t.HourlyRate < 0 {
		return ErrInvalidHourlyRate
	}
	if t.TaxRatePercent < 0 || t.TaxRatePercent >= 100 {
		return ErrInvalidTaxRate
	}
	return nil
}
