package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// CloseRequest carries the closer's blind cash count. CashInHand is
// entered before any system totals are revealed.
type CloseRequest struct {
	CashInHand float64 `json:"cash_in_hand"`
	Notes      string  `json:"notes,omitempty"`
	ClosedBy   string  `json:"closed_by"`
}

// CloseResult summarizes a sealed shift.
type CloseResult struct {
	Balance        *DailyBalance `json:"balance"`
	CashDifference float64       `json:"cash_difference"`
	HasCashAlert   bool          `json:"has_cash_alert"`
	SessionCount   int           `json:"session_count"`
}

// VerifyResult reports whether a sealed balance still matches its hash.
type VerifyResult struct {
	BalanceID    snowflake.ID `json:"balance_id"`
	Valid        bool         `json:"valid"`
	StoredHash   string       `json:"stored_hash"`
	ComputedHash string       `json:"computed_hash"`
}

// Service consolidates closed, unreconciled sessions into sealed
// balances.
type Service interface {
	Close(ctx context.Context, req CloseRequest) (*CloseResult, error)
	Get(ctx context.Context, id snowflake.ID) (*DailyBalance, error)
	List(ctx context.Context, pageToken string, pageSize int) ([]*DailyBalance, string, error)
	Verify(ctx context.Context, id snowflake.ID) (*VerifyResult, error)
}
