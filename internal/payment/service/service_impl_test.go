package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	"github.com/smallbiznis/mesa/internal/migration"
	"github.com/smallbiznis/mesa/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/db"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
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

	tenantID := node.Generate()
	tenant := tenantdomain.Tenant{ID: tenantID, Name: "Club Central", HourlyRate: 6000}
	if err := dbConn.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	svc := NewService(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)),
	})

	return &fixture{db: dbConn, node: node, svc: svc, tenantID: tenantID}
}

func (f *fixture) ctx() context.Context {
	return tenantctx.WithScope(context.Background(), tenantctx.Scope{
		TenantID: f.tenantID,
		Actor:    "tester",
		Role:     tenantctx.RoleCashier,
	})
}

// closedLog seeds a closed, unpaid session parked on a PAYMENT_PENDING table.
func (f *fixture) closedLog(t *testing.T, amount float64) (*sessiondomain.UsageLog, *tabledomain.Table) {
	t.Helper()

	started := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	ended := started.Add(time.Hour)

	table := tabledomain.Table{
		ID:       f.node.Generate(),
		TenantID: f.tenantID,
		Number:   1,
		Status:   tabledomain.StatusPaymentPending,
	}
	usageLog := sessiondomain.UsageLog{
		ID:            f.node.Generate(),
		TenantID:      f.tenantID,
		TableID:       table.ID,
		StartedAt:     started,
		EndedAt:       &ended,
		AmountCharged: amount,
		PaymentStatus: sessiondomain.PaymentStatusPending,
	}
	table.CurrentSessionID = &usageLog.ID
	if err := f.db.Create(&table).Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if err := f.db.Create(&usageLog).Error; err != nil {
		t.Fatalf("failed to create usage log: %v", err)
	}
	return &usageLog, &table
}

func TestRegisterCashReleasesTable(t *testing.T) {
	f := newFixture(t)
	usageLog, table := f.closedLog(t, 7140)

	result, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: usageLog.ID,
		Amount:     7140,
		Method:     domain.MethodCash,
	})
	if err != nil {
		t.Fatalf("failed to register payment: %v", err)
	}
	if result.Record.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", result.Record.Status)
	}
	if !result.TableReleased {
		t.Fatal("expected table release")
	}

	var reloaded tabledomain.Table
	if err := f.db.First(&reloaded, "id = ?", table.ID).Error; err != nil {
		t.Fatalf("failed to reload table: %v", err)
	}
	if reloaded.Status != tabledomain.StatusAvailable {
		t.Fatalf("expected AVAILABLE, got %s", reloaded.Status)
	}
	if reloaded.CurrentSessionID != nil {
		t.Fatal("expected cleared session pointer")
	}

	var paid sessiondomain.UsageLog
	if err := f.db.First(&paid, "id = ?", usageLog.ID).Error; err != nil {
		t.Fatalf("failed to reload log: %v", err)
	}
	if paid.PaymentStatus != sessiondomain.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", paid.PaymentStatus)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	f := newFixture(t)
	usageLog, _ := f.closedLog(t, 5000)

	if _, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: usageLog.ID, Amount: 5000, Method: domain.MethodCard,
	}); err != nil {
		t.Fatalf("failed to register payment: %v", err)
	}

	_, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: usageLog.ID, Amount: 5000, Method: domain.MethodCash,
	})
	if !errors.Is(err, domain.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	var records int64
	if err := f.db.Model(&domain.PaymentRecord{}).
		Where("usage_log_id = ?", usageLog.ID).
		Count(&records).Error; err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if records != 1 {
		t.Fatalf("expected one payment record, got %d", records)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	usageLog, _ := f.closedLog(t, 5000)

	if _, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: usageLog.ID, Amount: 0, Method: domain.MethodCash,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: usageLog.ID, Amount: 5000, Method: domain.Method("CHEQUE"),
	}); !errors.Is(err, domain.ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestRegisterSealedSessionFails(t *testing.T) {
	f := newFixture(t)
	usageLog, _ := f.closedLog(t, 5000)

	balanceID := f.node.Generate()
	if err := f.db.Model(&sessiondomain.UsageLog{}).
		Where("id = ?", usageLog.ID).
		Update("daily_balance_id", balanceID).Error; err != nil {
		t.Fatalf("failed to seal log: %v", err)
	}

	_, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: usageLog.ID, Amount: 5000, Method: domain.MethodCash,
	})
	if !errors.Is(err, sessiondomain.ErrSessionSealed) {
		t.Fatalf("expected ErrSessionSealed, got %v", err)
	}
}

func TestRegisterUnknownSessionFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(f.ctx(), domain.RegisterRequest{
		UsageLogID: f.node.Generate(), Amount: 100, Method: domain.MethodCash,
	})
	if !errors.Is(err, sessiondomain.ErrNotFound) {
		t.Fatalf("expected session ErrNotFound, got %v", err)
	}
}
