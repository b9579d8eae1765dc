package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service is the administrative surface for tenants. All mutations are
// privileged; the admin store rejects non-privileged callers.
type Service interface {
	Create(ctx context.Context, tenant *Tenant) error
	Get(ctx context.Context, id snowflake.ID) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Update(ctx context.Context, id snowflake.ID, values map[string]any) (*Tenant, error)
}
