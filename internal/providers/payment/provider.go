// Package payment abstracts the external payment-intent provider used for
// deferred (QR) settlement.
package payment

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// IntentRequest asks the provider to prepare a checkout for a session.
type IntentRequest struct {
	TenantID    snowflake.ID
	Amount      float64
	ReferenceID string
	Description string
}

// Intent is the provider's checkout handle.
type Intent struct {
	Success       bool
	TransactionID string
	PaymentURL    string
}

// Provider creates payment intents. Unreachable providers return an
// error; callers record the failure and leave the table awaiting payment.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}
