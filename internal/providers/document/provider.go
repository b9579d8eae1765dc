// Package document abstracts the external tax-document issuance service.
// Issuance is a fallible side effect of closing a session: the outcome is
// recorded on the owning usage log and never blocks the close transaction.
package document

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Statuses reported by a provider.
const (
	StatusIssued  = "ISSUED"
	StatusPending = "PENDING"
	StatusFailed  = "FAILED"
)

// Request describes the document to emit for a closed session.
type Request struct {
	TenantID snowflake.ID
	DocType  string
	Net      decimal.Decimal
	Tax      decimal.Decimal
	Gross    decimal.Decimal
	Receiver string
}

// Result is the recorded outcome of an issuance attempt. A failed attempt
// still yields a Result so callers persist what happened instead of
// swallowing it.
type Result struct {
	Ref    string
	Status string
	Err    string
}

// Provider emits tax documents. Implementations may be slow or
// unreliable; callers must treat Emit as best-effort.
type Provider interface {
	Emit(ctx context.Context, req Request) Result
}
