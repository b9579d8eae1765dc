package domain

import "errors"

var (
	ErrNotFound       = errors.New("balance_not_found")
	ErrNothingToClose = errors.New("nothing_to_close")
	ErrInvalidCash    = errors.New("invalid_cash_in_hand")
	ErrInvalidCloser  = errors.New("invalid_closed_by")
	ErrClaimConflict  = errors.New("session_claim_conflict")
)
