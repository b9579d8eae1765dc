// Package domain contains the table rows owned by the session state
// machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the table lifecycle state.
type Status string

const (
	StatusAvailable      Status = "AVAILABLE"
	StatusOccupied       Status = "OCCUPIED"
	StatusCleaning       Status = "CLEANING"
	StatusPaymentPending Status = "PAYMENT_PENDING"
)

// Table is one pool table of a tenant. While OCCUPIED, CurrentSessionID
// references the single open usage log; that pairing is the invariant the
// integrity auditor repairs when it breaks.
type Table struct {
	ID                        snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID                  snowflake.ID  `gorm:"column:tenant_id;not null;index;uniqueIndex:uniq_tables_tenant_number" json:"tenant_id"`
	Number                    int           `gorm:"not null;uniqueIndex:uniq_tables_tenant_number" json:"number"`
	Status                    Status        `gorm:"type:text;not null;default:'AVAILABLE'" json:"status"`
	CurrentSessionID          *snowflake.ID `gorm:"index" json:"current_session_id,omitempty"`
	LastSessionStart          *time.Time    `json:"last_session_start,omitempty"`
	TotalPlayHours            float64       `gorm:"not null;default:0" json:"total_play_hours"`
	MaintenanceThresholdHours float64       `gorm:"not null;default:0" json:"maintenance_threshold_hours"`
	CreatedAt                 time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                 time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Table) TableName() string { return "tables" }

func (t *Table) GetTenantID() snowflake.ID   { return t.TenantID }
func (t *Table) SetTenantID(id snowflake.ID) { t.TenantID = id }

// Startable reports whether a new session may begin. Starting over
// PAYMENT_PENDING abandons the unpaid prior session.
func (t *Table) Startable() bool {
	return t.Status == StatusAvailable || t.Status == StatusPaymentPending
}

// MaintenanceAlert records a table crossing its maintenance threshold.
type MaintenanceAlert struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	TableID   snowflake.ID `gorm:"not null;index" json:"table_id"`
	PlayHours float64      `gorm:"not null" json:"play_hours"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (MaintenanceAlert) TableName() string { return "maintenance_alerts" }

func (a *MaintenanceAlert) GetTenantID() snowflake.ID   { return a.TenantID }
func (a *MaintenanceAlert) SetTenantID(id snowflake.ID) { a.TenantID = id }
