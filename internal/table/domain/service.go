package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
)

// StartRequest begins a session, optionally on behalf of a member.
type StartRequest struct {
	MemberID *snowflake.ID `json:"member_id,omitempty"`
}

// StopRequest closes a session. When IssueDocument is set the computed
// split is sent to the issuance provider and the outcome recorded on the
// usage log.
type StopRequest struct {
	IssueDocument bool   `json:"issue_document"`
	DocType       string `json:"doc_type,omitempty"`
	Receiver      string `json:"receiver,omitempty"`
}

// StartResult is the outcome of the start transition.
type StartResult struct {
	Table    *Table                  `json:"table"`
	UsageLog *sessiondomain.UsageLog `json:"usage_log"`
	// AbandonedSessionID is set when starting over PAYMENT_PENDING walked
	// away from an unpaid prior session.
	AbandonedSessionID *snowflake.ID `json:"abandoned_session_id,omitempty"`
}

// CloseSummary is the outcome of the stop transition.
type CloseSummary struct {
	Table    *Table                  `json:"table"`
	UsageLog *sessiondomain.UsageLog `json:"usage_log,omitempty"`
	// Repaired is set when a table marked OCCUPIED had no open session and
	// the transition degraded to AVAILABLE instead of charging.
	Repaired bool `json:"repaired,omitempty"`
	// PaymentURL is set by the deferred-settlement close.
	PaymentURL string `json:"payment_url,omitempty"`
}

// Service is the table session state machine.
type Service interface {
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id snowflake.ID) (*Table, error)
	List(ctx context.Context) ([]*Table, error)
	StartSession(ctx context.Context, tableID snowflake.ID, req StartRequest) (*StartResult, error)
	StopSession(ctx context.Context, tableID snowflake.ID, req StopRequest) (*CloseSummary, error)
	DeferPayment(ctx context.Context, tableID snowflake.ID, req StopRequest) (*CloseSummary, error)
	FinishCleaning(ctx context.Context, tableID snowflake.ID) (*Table, error)
}
