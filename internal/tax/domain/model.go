// Package domain defines the tenant tax snapshot and the inclusive split.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Config is the read-only tax snapshot taken at charge time.
type Config struct {
	RatePercent float64
	Name        string
	Exempt      bool
}

// Resolver looks up the live tax configuration of a tenant.
type Resolver interface {
	Resolve(ctx context.Context, tenantID snowflake.ID) (Config, error)
}

// Breakdown is the inclusive net/tax/gross split of a subtotal.
type Breakdown struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// Split treats subtotal as a tax-inclusive gross and backs the net amount
// out of it. Exempt tenants get a zero tax amount with the gross unchanged.
// Intermediate precision is kept full; callers round at persistence.
func Split(subtotal decimal.Decimal, cfg Config) Breakdown {
	if cfg.Exempt || cfg.RatePercent <= 0 {
		return Breakdown{Net: subtotal, Tax: decimal.Zero, Gross: subtotal}
	}
	divisor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(cfg.RatePercent).Div(decimal.NewFromInt(100)))
	net := subtotal.Div(divisor)
	return Breakdown{
		Net:   net,
		Tax:   subtotal.Sub(net),
		Gross: subtotal,
	}
}
