// Package rating computes the billable amount of a table session. All
// functions are pure; monetary intermediates keep full precision and are
// rounded to two decimals only at the persistence boundary.
package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// Charge is the computed price of a session before the tax split.
type Charge struct {
	DurationMinutes int64
	TimeCharge      decimal.Decimal
	DiscountAmount  decimal.Decimal
	Subtotal        decimal.Decimal
}

// Compute prices elapsed play time at the tenant's hourly rate, applies an
// optional member discount to the time charge only, and adds product
// consumption. A discountPercent of zero means no discount.
func Compute(startedAt, now time.Time, hourlyRate float64, productTotal decimal.Decimal, discountPercent float64) Charge {
	minutes := int64(now.Sub(startedAt) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}

	timeCharge := decimal.NewFromFloat(hourlyRate).
		Mul(decimal.NewFromInt(minutes)).
		Div(sixty)

	discount := decimal.Zero
	if discountPercent > 0 {
		discount = timeCharge.Mul(decimal.NewFromFloat(discountPercent)).Div(hundred)
		timeCharge = timeCharge.Sub(discount)
	}

	return Charge{
		DurationMinutes: minutes,
		TimeCharge:      timeCharge,
		DiscountAmount:  discount,
		Subtotal:        timeCharge.Add(productTotal),
	}
}

// Round2 applies the persistence rounding policy: two decimals, half up.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Round2Float is Round2 for values stored as float columns.
func Round2Float(v decimal.Decimal) float64 {
	f, _ := v.Round(2).Float64()
	return f
}
