package domain

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid_payment_amount")
	ErrInvalidMethod = errors.New("invalid_payment_method")
	ErrAlreadyPaid   = errors.New("session_already_paid")
)
