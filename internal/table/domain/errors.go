package domain

import "errors"

var (
	ErrNotFound         = errors.New("table_not_found")
	ErrTableOccupied    = errors.New("table_occupied")
	ErrTableNotOccupied = errors.New("table_not_occupied")
	ErrTableNotCleaning = errors.New("table_not_cleaning")
	ErrInvalidNumber    = errors.New("invalid_table_number")
	ErrDuplicateNumber  = errors.New("duplicate_table_number")
	ErrConcurrentUpdate = errors.New("concurrent_table_update")
)
