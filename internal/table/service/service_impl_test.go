package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	memberdomain "github.com/smallbiznis/mesa/internal/member/domain"
	memberservice "github.com/smallbiznis/mesa/internal/member/service"
	"github.com/smallbiznis/mesa/internal/migration"
	"github.com/smallbiznis/mesa/internal/providers/document"
	payprovider "github.com/smallbiznis/mesa/internal/providers/payment"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/internal/table/domain"
	taxservice "github.com/smallbiznis/mesa/internal/tax/service"
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
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	tenantID := node.Generate()
	tenant := tenantdomain.Tenant{
		ID:             tenantID,
		Name:           "Club Central",
		HourlyRate:     6000,
		TaxRatePercent: 19,
		TaxName:        "IVA",
		Currency:       "CLP",
	}
	if err := dbConn.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	members := memberservice.NewService(memberservice.Params{
		Log:   log,
		Store: repository.ProvideStore[memberdomain.Member](dbConn, log),
	})
	taxResolver := taxservice.NewResolver(taxservice.Params{
		Log:     log,
		Tenants: repository.ProvideAdminStore[tenantdomain.Tenant](dbConn, log),
	})

	svc := NewService(Params{
		DB:        dbConn,
		Log:       log,
		GenID:     node,
		Clock:     fakeClock,
		Tables:    repository.ProvideStore[domain.Table](dbConn, log),
		Members:   members,
		TaxConfig: taxResolver,
		Documents: document.NewNoop(log),
		Payments:  payprovider.NewStub(log),
	})

	return &fixture{
		db:       dbConn,
		node:     node,
		clock:    fakeClock,
		svc:      svc,
		tenantID: tenantID,
	}
}

func (f *fixture) ctx() context.Context {
	return tenantctx.WithScope(context.Background(), tenantctx.Scope{
		TenantID: f.tenantID,
		Actor:    "tester",
		Role:     tenantctx.RoleManager,
	})
}

func (f *fixture) createTable(t *testing.T, number int) *domain.Table {
	t.Helper()
	table := &domain.Table{Number: number}
	if err := f.svc.Create(f.ctx(), table); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return table
}

func (f *fixture) addItem(t *testing.T, usageLogID snowflake.ID, name string, qty int, unitPrice float64) {
	t.Helper()
	item := sessiondomain.OrderItem{
		ID:          f.node.Generate(),
		TenantID:    f.tenantID,
		UsageLogID:  usageLogID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		LineTotal:   float64(qty) * unitPrice,
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("failed to create order item: %v", err)
	}
}

func TestStartSessionOccupiesTable(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 1)

	result, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	if result.Table.Status != domain.StatusOccupied {
		t.Fatalf("expected OCCUPIED, got %s", result.Table.Status)
	}
	if result.UsageLog == nil || !result.UsageLog.Open() {
		t.Fatal("expected open usage log")
	}
	if result.AbandonedSessionID != nil {
		t.Fatal("expected no abandoned session")
	}
}

func TestStartSessionOnOccupiedTableFails(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 2)

	if _, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{}); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	_, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{})
	if !errors.Is(err, domain.ErrTableOccupied) {
		t.Fatalf("expected ErrTableOccupied, got %v", err)
	}
}

func TestStopSessionChargesTimeAndProducts(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 3)

	started, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.addItem(t, started.UsageLog.ID, "bebida", 2, 1500)
	f.clock.Advance(30 * time.Minute)

	summary, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{})
	if err != nil {
		t.Fatalf("failed to stop session: %v", err)
	}
	if summary.Table.Status != domain.StatusCleaning {
		t.Fatalf("expected CLEANING, got %s", summary.Table.Status)
	}
	usageLog := summary.UsageLog
	if usageLog.DurationMinutes != 30 {
		t.Fatalf("expected 30 minutes, got %d", usageLog.DurationMinutes)
	}
	// 30 min at 6000/hr plus 2x1500 in products.
	if usageLog.AmountCharged != 6000 {
		t.Fatalf("expected 6000 charged, got %v", usageLog.AmountCharged)
	}
	if usageLog.ProductTotal != 3000 {
		t.Fatalf("expected 3000 product total, got %v", usageLog.ProductTotal)
	}
	// 19% tax backed out of the gross amount.
	if usageLog.TaxAmount != 957.98 {
		t.Fatalf("expected 957.98 tax, got %v", usageLog.TaxAmount)
	}
	if usageLog.PaymentStatus != sessiondomain.PaymentStatusPending {
		t.Fatalf("expected PENDING payment, got %s", usageLog.PaymentStatus)
	}
}

func TestStopSessionAppliesMemberDiscountToTimeOnly(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 4)

	member := memberdomain.Member{
		ID:                 f.node.Generate(),
		TenantID:           f.tenantID,
		Name:               "Ana",
		DiscountPercent:    20,
		SubscriptionStatus: memberdomain.SubscriptionStatusActive,
	}
	if err := f.db.Create(&member).Error; err != nil {
		t.Fatalf("failed to create member: %v", err)
	}

	started, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{MemberID: &member.ID})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.addItem(t, started.UsageLog.ID, "bebida", 1, 1000)
	f.clock.Advance(time.Hour)

	summary, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{})
	if err != nil {
		t.Fatalf("failed to stop session: %v", err)
	}
	usageLog := summary.UsageLog
	// 6000 time charge discounted 20%, products untouched.
	if usageLog.DiscountApplied != 1200 {
		t.Fatalf("expected 1200 discount, got %v", usageLog.DiscountApplied)
	}
	if usageLog.AmountCharged != 5800 {
		t.Fatalf("expected 5800 charged, got %v", usageLog.AmountCharged)
	}
}

func TestStartSessionUnknownMemberFails(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 5)

	missing := f.node.Generate()
	_, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{MemberID: &missing})
	if !errors.Is(err, memberdomain.ErrNotFound) {
		t.Fatalf("expected member ErrNotFound, got %v", err)
	}

	table, err = f.svc.Get(f.ctx(), table.ID)
	if err != nil {
		t.Fatalf("failed to reload table: %v", err)
	}
	if table.Status != domain.StatusAvailable {
		t.Fatalf("expected AVAILABLE after rejected start, got %s", table.Status)
	}
}

func TestDoubleStopFails(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 6)

	if _, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{}); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.clock.Advance(10 * time.Minute)
	if _, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{}); err != nil {
		t.Fatalf("failed to stop session: %v", err)
	}

	_, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{})
	if !errors.Is(err, domain.ErrTableNotOccupied) {
		t.Fatalf("expected ErrTableNotOccupied, got %v", err)
	}

	var closed int64
	if err := f.db.Model(&sessiondomain.UsageLog{}).
		Where("table_id = ? AND ended_at IS NOT NULL", table.ID).
		Count(&closed).Error; err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected exactly one closed log, got %d", closed)
	}
}

func TestStopWithoutSessionDegradesToAvailable(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 7)

	// Simulate a crashed start: status says OCCUPIED but no open log exists.
	phantom := f.node.Generate()
	if err := f.db.Model(&domain.Table{}).
		Where("id = ?", table.ID).
		Updates(map[string]any{
			"status":             domain.StatusOccupied,
			"current_session_id": phantom,
		}).Error; err != nil {
		t.Fatalf("failed to corrupt table: %v", err)
	}

	summary, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{})
	if err != nil {
		t.Fatalf("expected repair, got %v", err)
	}
	if !summary.Repaired {
		t.Fatal("expected repaired close")
	}
	if summary.UsageLog != nil {
		t.Fatal("expected no usage log on repair")
	}
	if summary.Table.Status != domain.StatusAvailable {
		t.Fatalf("expected AVAILABLE, got %s", summary.Table.Status)
	}
}

func TestDeferPaymentParksTable(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 8)

	if _, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{}); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.clock.Advance(45 * time.Minute)

	summary, err := f.svc.DeferPayment(f.ctx(), table.ID, domain.StopRequest{})
	if err != nil {
		t.Fatalf("failed to defer payment: %v", err)
	}
	if summary.Table.Status != domain.StatusPaymentPending {
		t.Fatalf("expected PAYMENT_PENDING, got %s", summary.Table.Status)
	}
	if summary.PaymentURL == "" {
		t.Fatal("expected payment url from provider")
	}
	if summary.UsageLog.PaymentStatus != sessiondomain.PaymentStatusPending {
		t.Fatalf("expected PENDING payment, got %s", summary.UsageLog.PaymentStatus)
	}
}

func TestStartOverPaymentPendingAbandonsSession(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 9)

	started, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	firstLogID := started.UsageLog.ID
	f.clock.Advance(20 * time.Minute)
	if _, err := f.svc.DeferPayment(f.ctx(), table.ID, domain.StopRequest{}); err != nil {
		t.Fatalf("failed to defer payment: %v", err)
	}

	result, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{})
	if err != nil {
		t.Fatalf("failed to start over payment pending: %v", err)
	}
	if result.AbandonedSessionID == nil || *result.AbandonedSessionID != firstLogID {
		t.Fatalf("expected abandoned session %v, got %v", firstLogID, result.AbandonedSessionID)
	}

	// The walked-away session keeps its debt for the next shift close.
	var abandoned sessiondomain.UsageLog
	if err := f.db.First(&abandoned, "id = ?", firstLogID).Error; err != nil {
		t.Fatalf("failed to reload abandoned log: %v", err)
	}
	if abandoned.PaymentStatus != sessiondomain.PaymentStatusPending {
		t.Fatalf("expected abandoned log PENDING, got %s", abandoned.PaymentStatus)
	}
}

func TestFinishCleaning(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 10)

	if _, err := f.svc.FinishCleaning(f.ctx(), table.ID); !errors.Is(err, domain.ErrTableNotCleaning) {
		t.Fatalf("expected ErrTableNotCleaning, got %v", err)
	}

	if _, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{}); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.clock.Advance(15 * time.Minute)
	if _, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{}); err != nil {
		t.Fatalf("failed to stop session: %v", err)
	}

	ready, err := f.svc.FinishCleaning(f.ctx(), table.ID)
	if err != nil {
		t.Fatalf("failed to finish cleaning: %v", err)
	}
	if ready.Status != domain.StatusAvailable {
		t.Fatalf("expected AVAILABLE, got %s", ready.Status)
	}
	if ready.CurrentSessionID != nil {
		t.Fatal("expected cleared session pointer")
	}
}

func TestMaintenanceAlertOnThresholdCrossing(t *testing.T) {
	f := newFixture(t)
	table := &domain.Table{Number: 11, MaintenanceThresholdHours: 0.5}
	if err := f.svc.Create(f.ctx(), table); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	if _, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{}); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.clock.Advance(time.Hour)
	if _, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{}); err != nil {
		t.Fatalf("failed to stop session: %v", err)
	}

	var alerts int64
	if err := f.db.Model(&domain.MaintenanceAlert{}).
		Where("table_id = ?", table.ID).
		Count(&alerts).Error; err != nil {
		t.Fatalf("failed to count alerts: %v", err)
	}
	if alerts != 1 {
		t.Fatalf("expected one maintenance alert, got %d", alerts)
	}
}

func TestStopIssuesDocument(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 12)

	if _, err := f.svc.StartSession(f.ctx(), table.ID, domain.StartRequest{}); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	f.clock.Advance(time.Hour)

	summary, err := f.svc.StopSession(f.ctx(), table.ID, domain.StopRequest{IssueDocument: true})
	if err != nil {
		t.Fatalf("failed to stop session: %v", err)
	}
	if summary.UsageLog.DocumentRef == "" {
		t.Fatal("expected document reference")
	}
	if summary.UsageLog.DocumentStatus != sessiondomain.DocumentStatusIssued {
		t.Fatalf("expected ISSUED, got %s", summary.UsageLog.DocumentStatus)
	}
}

func TestCrossTenantTableIsInvisible(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, 13)

	otherCtx := tenantctx.WithScope(context.Background(), tenantctx.Scope{
		TenantID: f.node.Generate(),
		Actor:    "intruder",
		Role:     tenantctx.RoleManager,
	})
	if _, err := f.svc.StartSession(otherCtx, table.ID, domain.StartRequest{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	f.createTable(t, 7)

	err := f.svc.Create(f.ctx(), &domain.Table{Number: 7})
	if !errors.Is(err, domain.ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}

	var count int64
	if err := f.db.Model(&domain.Table{}).
		Where("tenant_id = ? AND number = ?", f.tenantID, 7).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single table with number 7, got %d", count)
	}
}
