// Package repository provides the tenant isolation gate: every persistence
// operation on tenant-owned rows goes through a store that derives the
// tenant filter from the caller scope. There is no runtime bypass flag;
// normal operations use the tenant-scoped store and tenant administration
// uses the admin store.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	// ErrNoTenant is returned when an operation reaches a tenant-scoped
	// store without an established caller scope.
	ErrNoTenant = errors.New("no tenant scope")

	// ErrPermissionDenied is returned when a non-privileged caller issues
	// an administrative mutation.
	ErrPermissionDenied = errors.New("permission denied")
)

// TenantOwned is implemented by every row type that belongs to a tenant.
// The scoped store uses it to stamp creates with the caller's tenant id.
type TenantOwned interface {
	GetTenantID() snowflake.ID
	SetTenantID(id snowflake.ID)
}

// TenantScoped is the gate for tenant-owned rows. Reads and writes are
// constrained to the scope's tenant; rows of other tenants are invisible
// and surface as not-found, never as forbidden.
type TenantScoped[T any] interface {
	WithTx(tx *gorm.DB) TenantScoped[T]
	Find(ctx context.Context, query *T) ([]*T, error)
	FindOne(ctx context.Context, query *T) (*T, error)
	FindByID(ctx context.Context, id snowflake.ID) (*T, error)
	Create(ctx context.Context, resource *T) error
	Updates(ctx context.Context, id snowflake.ID, values any) error
	Delete(ctx context.Context, id snowflake.ID) error
	Count(ctx context.Context, query *T) (int64, error)
}

// Admin is the unscoped store for tenant administration. Mutations demand
// a privileged caller role; reads are unrestricted and reserved for
// administrative surfaces.
type Admin[T any] interface {
	WithTx(tx *gorm.DB) Admin[T]
	Find(ctx context.Context, query *T) ([]*T, error)
	FindByID(ctx context.Context, id snowflake.ID) (*T, error)
	Create(ctx context.Context, resource *T) error
	Updates(ctx context.Context, id snowflake.ID, values any) error
	Delete(ctx context.Context, id snowflake.ID) error
}
