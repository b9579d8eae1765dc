package domain

import "errors"

var (
	ErrNotFound          = errors.New("tenant_not_found")
	ErrInvalidName       = errors.New("invalid_tenant_name")
	ErrInvalidHourlyRate = errors.New("invalid_hourly_rate")
	ErrInvalidTaxRate    = errors.New("invalid_tax_rate")
)
