package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	"github.com/smallbiznis/mesa/internal/config"
	costsdomain "github.com/smallbiznis/mesa/internal/costs/domain"
	costsservice "github.com/smallbiznis/mesa/internal/costs/service"
	"github.com/smallbiznis/mesa/internal/migration"
	paymentdomain "github.com/smallbiznis/mesa/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/internal/shift/domain"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/db"
	"github.com/smallbiznis/mesa/pkg/repository"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      domain.Service
	tenantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := migration.AutoMigrate(dbConn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC))

	tenantID := node.Generate()
	tenant := tenantdomain.Tenant{ID: tenantID, Name: "Club Central", HourlyRate: 6000}
	if err := dbConn.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	cfg := config.Config{Shift: config.ShiftConfig{CashTolerance: 0.01}}
	svc := NewService(Params{
		DB:       dbConn,
		Log:      log,
		GenID:    node,
		Clock:    fakeClock,
		Config:   cfg,
		Costs:    costsservice.NewAggregator(costsservice.Params{DB: dbConn, Log: log}),
		Balances: repository.ProvideStore[domain.DailyBalance](dbConn, log),
	})

	return &fixture{db: dbConn, node: node, clock: fakeClock, svc: svc, tenantID: tenantID}
}

func (f *fixture) ctx() context.Context {
	return tenantctx.WithScope(context.Background(), tenantctx.Scope{
		TenantID: f.tenantID,
		Actor:    "tester",
		Role:     tenantctx.RoleManager,
	})
}

func (f *fixture) closedLog(t *testing.T, startedAt time.Time, amount, productTotal float64) *sessiondomain.UsageLog {
	t.Helper()

	ended := startedAt.Add(time.Hour)
	usageLog := sessiondomain.UsageLog{
		ID:            f.node.Generate(),
		TenantID:      f.tenantID,
		TableID:       f.node.Generate(),
		StartedAt:     startedAt,
		EndedAt:       &ended,
		AmountCharged: amount,
		ProductTotal:  productTotal,
		PaymentStatus: sessiondomain.PaymentStatusPaid,
	}
	if err := f.db.Create(&usageLog).Error; err != nil {
		t.Fatalf("failed to create usage log: %v", err)
	}
	return &usageLog
}

func (f *fixture) payment(t *testing.T, usageLogID snowflake.ID, method paymentdomain.Method, amount float64) {
	t.Helper()

	record := paymentdomain.PaymentRecord{
		ID:         f.node.Generate(),
		TenantID:   f.tenantID,
		UsageLogID: usageLogID,
		Method:     method,
		Amount:     amount,
		Status:     paymentdomain.StatusCompleted,
	}
	if err := f.db.Create(&record).Error; err != nil {
		t.Fatalf("failed to create payment record: %v", err)
	}
}

func TestCloseSealsShift(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	log1 := f.closedLog(t, start, 6000, 3000)
	log2 := f.closedLog(t, start.Add(time.Hour), 4000, 0)
	f.payment(t, log1.ID, paymentdomain.MethodCash, 6000)
	f.payment(t, log2.ID, paymentdomain.MethodCard, 4000)

	cost := costsdomain.CostEntry{
		ID: f.node.Generate(), TenantID: f.tenantID,
		Kind: costsdomain.CostKindCOGS, Amount: 1000,
		OccurredAt: start.Add(30 * time.Minute),
	}
	if err := f.db.Create(&cost).Error; err != nil {
		t.Fatalf("failed to create cost entry: %v", err)
	}
	rental := costsdomain.AncillaryRevenue{
		ID: f.node.Generate(), TenantID: f.tenantID,
		Stream: costsdomain.StreamRental, Amount: 5000,
		OccurredAt: start.Add(time.Hour),
	}
	if err := f.db.Create(&rental).Error; err != nil {
		t.Fatalf("failed to create rental revenue: %v", err)
	}

	result, err := f.svc.Close(f.ctx(), domain.CloseRequest{
		CashInHand: 6000,
		ClosedBy:   "carla",
	})
	if err != nil {
		t.Fatalf("failed to close shift: %v", err)
	}

	balance := result.Balance
	if result.SessionCount != 2 {
		t.Fatalf("expected 2 sessions, got %d", result.SessionCount)
	}
	if balance.TimeRevenue != 7000 {
		t.Fatalf("expected 7000 time revenue, got %v", balance.TimeRevenue)
	}
	if balance.ProductRevenue != 3000 {
		t.Fatalf("expected 3000 product revenue, got %v", balance.ProductRevenue)
	}
	if balance.RentalRevenue != 5000 {
		t.Fatalf("expected 5000 rental revenue, got %v", balance.RentalRevenue)
	}
	if balance.TotalRevenue != 15000 {
		t.Fatalf("expected 15000 total revenue, got %v", balance.TotalRevenue)
	}
	if balance.CashRevenue != 6000 || balance.CardRevenue != 4000 || balance.CreditRevenue != 0 {
		t.Fatalf("unexpected method split: %v/%v/%v", balance.CashRevenue, balance.CardRevenue, balance.CreditRevenue)
	}
	if balance.NetProfit != 14000 {
		t.Fatalf("expected 14000 net profit, got %v", balance.NetProfit)
	}
	if result.HasCashAlert {
		t.Fatalf("unexpected cash alert, difference %v", result.CashDifference)
	}
	if balance.IntegrityHash == "" {
		t.Fatal("expected integrity hash")
	}

	// Every claimed log now points at the balance.
	var sealed int64
	if err := f.db.Model(&sessiondomain.UsageLog{}).
		Where("daily_balance_id = ?", balance.ID).
		Count(&sealed).Error; err != nil {
		t.Fatalf("failed to count sealed logs: %v", err)
	}
	if sealed != 2 {
		t.Fatalf("expected 2 sealed logs, got %d", sealed)
	}
}

func TestCloseTwiceFindsNothing(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	f.closedLog(t, start, 5000, 0)

	if _, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 5000, ClosedBy: "carla"}); err != nil {
		t.Fatalf("failed to close shift: %v", err)
	}

	_, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 0, ClosedBy: "carla"})
	if !errors.Is(err, domain.ErrNothingToClose) {
		t.Fatalf("expected ErrNothingToClose, got %v", err)
	}
}

func TestCloseSkipsOpenSessions(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	f.closedLog(t, start, 5000, 0)

	open := sessiondomain.UsageLog{
		ID:            f.node.Generate(),
		TenantID:      f.tenantID,
		TableID:       f.node.Generate(),
		StartedAt:     start.Add(2 * time.Hour),
		PaymentStatus: sessiondomain.PaymentStatusPending,
	}
	if err := f.db.Create(&open).Error; err != nil {
		t.Fatalf("failed to create open log: %v", err)
	}

	result, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 0, ClosedBy: "carla"})
	if err != nil {
		t.Fatalf("failed to close shift: %v", err)
	}
	if result.SessionCount != 1 {
		t.Fatalf("expected 1 session, got %d", result.SessionCount)
	}

	var reloaded sessiondomain.UsageLog
	if err := f.db.First(&reloaded, "id = ?", open.ID).Error; err != nil {
		t.Fatalf("failed to reload open log: %v", err)
	}
	if reloaded.DailyBalanceID != nil {
		t.Fatal("open session must not be claimed")
	}
}

func TestCloseRaisesCashAlert(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	usageLog := f.closedLog(t, start, 5000, 0)
	f.payment(t, usageLog.ID, paymentdomain.MethodCash, 5000)

	result, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 4950, ClosedBy: "carla"})
	if err != nil {
		t.Fatalf("failed to close shift: %v", err)
	}
	if !result.HasCashAlert {
		t.Fatal("expected cash alert")
	}
	if result.CashDifference != -50 {
		t.Fatalf("expected -50 difference, got %v", result.CashDifference)
	}
}

func TestCloseValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: -1, ClosedBy: "carla"}); !errors.Is(err, domain.ErrInvalidCash) {
		t.Fatalf("expected ErrInvalidCash, got %v", err)
	}
	if _, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 0, ClosedBy: "  "}); !errors.Is(err, domain.ErrInvalidCloser) {
		t.Fatalf("expected ErrInvalidCloser, got %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	usageLog := f.closedLog(t, start, 5000, 0)
	f.payment(t, usageLog.ID, paymentdomain.MethodCash, 5000)

	result, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 5000, ClosedBy: "carla"})
	if err != nil {
		t.Fatalf("failed to close shift: %v", err)
	}

	verified, err := f.svc.Verify(f.ctx(), result.Balance.ID)
	if err != nil {
		t.Fatalf("failed to verify balance: %v", err)
	}
	if !verified.Valid {
		t.Fatal("expected valid balance after close")
	}

	// Out-of-band edit must break the hash.
	if err := f.db.Model(&domain.DailyBalance{}).
		Where("id = ?", result.Balance.ID).
		Update("cash_revenue", 9999).Error; err != nil {
		t.Fatalf("failed to tamper balance: %v", err)
	}

	verified, err = f.svc.Verify(f.ctx(), result.Balance.ID)
	if err != nil {
		t.Fatalf("failed to verify balance: %v", err)
	}
	if verified.Valid {
		t.Fatal("expected tampered balance to fail verification")
	}
}

func TestSecondShiftWindowStartsAtPreviousSeal(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	f.closedLog(t, start, 5000, 0)

	first, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 0, ClosedBy: "carla"})
	if err != nil {
		t.Fatalf("failed to close first shift: %v", err)
	}

	f.clock.Advance(8 * time.Hour)
	f.closedLog(t, f.clock.Now().Add(-time.Hour), 3000, 0)

	second, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 0, ClosedBy: "carla"})
	if err != nil {
		t.Fatalf("failed to close second shift: %v", err)
	}
	if !second.Balance.PeriodStart.Equal(first.Balance.CreatedAt) {
		t.Fatalf("expected second window anchored at %v, got %v", first.Balance.CreatedAt, second.Balance.PeriodStart)
	}
}

func TestListPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		f.closedLog(t, start.Add(time.Duration(i)*time.Hour), 1000, 0)
		if _, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 0, ClosedBy: "carla"}); err != nil {
			t.Fatalf("failed to close shift %d: %v", i, err)
		}
		f.clock.Advance(time.Hour)
	}

	page, token, err := f.svc.List(f.ctx(), "", 2)
	if err != nil {
		t.Fatalf("failed to list balances: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(page))
	}
	if token == "" {
		t.Fatal("expected next page token")
	}
	if page[0].ID < page[1].ID {
		t.Fatal("expected newest first")
	}

	rest, token, err := f.svc.List(f.ctx(), token, 2)
	if err != nil {
		t.Fatalf("failed to list second page: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 balance, got %d", len(rest))
	}
	if token != "" {
		t.Fatalf("expected no further pages, got %q", token)
	}
}

func TestSealTimesSurviveMicrosecondStores(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	usageLog := f.closedLog(t, start, 5000, 0)
	f.payment(t, usageLog.ID, paymentdomain.MethodCash, 5000)

	// timestamptz columns drop sub-microsecond clock bits; the seal must
	// not depend on them or an untampered balance fails verification.
	f.clock.Advance(137 * time.Nanosecond)

	result, err := f.svc.Close(f.ctx(), domain.CloseRequest{CashInHand: 5000, ClosedBy: "carla"})
	if err != nil {
		t.Fatalf("failed to close shift: %v", err)
	}

	balance := result.Balance
	if !balance.PeriodStart.Equal(balance.PeriodStart.Truncate(time.Microsecond)) {
		t.Fatalf("expected microsecond-aligned period start, got %v", balance.PeriodStart)
	}
	if !balance.PeriodEnd.Equal(balance.PeriodEnd.Truncate(time.Microsecond)) {
		t.Fatalf("expected microsecond-aligned period end, got %v", balance.PeriodEnd)
	}

	verified, err := f.svc.Verify(f.ctx(), balance.ID)
	if err != nil {
		t.Fatalf("failed to verify balance: %v", err)
	}
	if !verified.Valid {
		t.Fatalf("expected valid balance, stored %s computed %s", verified.StoredHash, verified.ComputedHash)
	}
}

func TestCloseSurfacesAnchorLookupFailure(t *testing.T) {
	f := newFixture(t)

	// A db without the balances table makes the previous-seal lookup fail
	// with a real query error, which must not pass for "first shift".
	bare, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	impl := f.svc.(*Service)
	logs := []sessiondomain.UsageLog{{
		ID:        f.node.Generate(),
		StartedAt: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	}}

	_, err = impl.periodStart(bare, f.tenantID, logs)
	if err == nil {
		t.Fatal("expected query error to propagate")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected a query error, got %v", err)
	}
}
