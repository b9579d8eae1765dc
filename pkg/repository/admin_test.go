package repository

import (
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/pkg/db"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/zap"
)

func newTestAdminStore(t *testing.T) (Admin[widget], *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	return ProvideAdminStore[widget](dbConn, zap.NewNop()), node
}

func TestAdminMutationsRequirePrivilegedRole(t *testing.T) {
	store, node := newTestAdminStore(t)
	tenantID := node.Generate()

	row := widget{ID: node.Generate(), TenantID: tenantID, Name: "global"}
	err := store.Create(scoped(tenantID, tenantctx.RoleCashier), &row)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	if err := store.Create(scoped(tenantID, tenantctx.RoleOwner), &row); err != nil {
		t.Fatalf("failed to create as owner: %v", err)
	}

	err = store.Updates(scoped(tenantID, tenantctx.RoleManager), row.ID, map[string]any{"name": "renamed"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for manager, got %v", err)
	}
	if err := store.Updates(scoped(tenantID, tenantctx.RoleSystem), row.ID, map[string]any{"name": "renamed"}); err != nil {
		t.Fatalf("failed to update as system: %v", err)
	}
}

func TestAdminReadsAreUnscoped(t *testing.T) {
	store, node := newTestAdminStore(t)
	tenantA := node.Generate()
	tenantB := node.Generate()

	rowA := widget{ID: node.Generate(), TenantID: tenantA, Name: "a"}
	rowB := widget{ID: node.Generate(), TenantID: tenantB, Name: "b"}
	ownerCtx := scoped(tenantA, tenantctx.RoleOwner)
	if err := store.Create(ownerCtx, &rowA); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if err := store.Create(ownerCtx, &rowB); err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	got, err := store.FindByID(scoped(tenantA, tenantctx.RoleCashier), rowB.ID)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if got == nil || got.TenantID != tenantB {
		t.Fatal("expected unscoped read to reach any tenant")
	}
}
