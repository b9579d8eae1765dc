package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// ComputeIntegrityHash produces the tamper-evidence seal: a deterministic
// sha256 digest over a canonical serialization of the balance figures.
// It is a digest, not a signature: it detects edits, it does not
// authenticate an issuer. The IntegrityHash field itself is excluded.
// Timestamps participate at microsecond precision, the finest the
// timestamptz columns round-trip.
func ComputeIntegrityHash(b *DailyBalance) string {
	fields := []string{
		b.ID.String(),
		b.TenantID.String(),
		b.PeriodStart.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano),
		b.PeriodEnd.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano),
		money(b.TimeRevenue),
		money(b.ProductRevenue),
		money(b.MembershipRevenue),
		money(b.RentalRevenue),
		money(b.TotalRevenue),
		money(b.CashRevenue),
		money(b.CardRevenue),
		money(b.CreditRevenue),
		money(b.TotalCost),
		money(b.WasteCost),
		money(b.MaintenanceCost),
		money(b.NetProfit),
		money(b.CashInHand),
		money(b.CashDifference),
		strconv.FormatBool(b.HasCashAlert),
		strconv.Itoa(b.SessionCount),
		b.ClosedBy,
		b.Notes,
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
