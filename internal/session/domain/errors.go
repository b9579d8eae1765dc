package domain

import "errors"

var (
	ErrNotFound        = errors.New("session_not_found")
	ErrSessionClosed   = errors.New("session_closed")
	ErrSessionSealed   = errors.New("session_sealed")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidPrice    = errors.New("invalid_unit_price")
	ErrInvalidProduct  = errors.New("invalid_product_name")
)
