package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// AddItemRequest appends product consumption to an open session.
type AddItemRequest struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Service exposes session reads and order-item appends. Session closing
// itself belongs to the table state machine.
type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*UsageLog, error)
	AddOrderItem(ctx context.Context, usageLogID snowflake.ID, req AddItemRequest) (*OrderItem, error)
	Items(ctx context.Context, usageLogID snowflake.ID) ([]*OrderItem, error)
}
