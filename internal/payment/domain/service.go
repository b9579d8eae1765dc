package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// RegisterRequest records a settled payment for a usage log.
type RegisterRequest struct {
	UsageLogID snowflake.ID `json:"usage_log_id"`
	Amount     float64      `json:"amount"`
	Method     Method       `json:"method"`
	// ProviderRef carries the external transaction id for provider
	// callbacks; empty for cash/manual settlement.
	ProviderRef string `json:"provider_ref,omitempty"`
	// Metadata is free-form provider payload kept with the record.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RegisterResult reports the settlement outcome.
type RegisterResult struct {
	Record        *PaymentRecord `json:"record"`
	TableReleased bool           `json:"table_released"`
}

// Service registers settlements. Completing a payment marks the log PAID
// and, when the table still points at that log, releases the table.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
}
