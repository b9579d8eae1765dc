package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/tax/domain"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Tenants repository.Admin[tenantdomain.Tenant]
}

// Resolver reads the tax snapshot off the tenant row. The lookup is
// read-only and never cached across a close transaction.
type Resolver struct {
	log     *zap.Logger
	tenants repository.Admin[tenantdomain.Tenant]
}

func NewResolver(p Params) domain.Resolver {
	return &Resolver{
		log:     p.Log.Named("tax.resolver"),
		tenants: p.Tenants,
	}
}

func (r *Resolver) Resolve(ctx context.Context, tenantID snowflake.ID) (domain.Config, error) {
	tenant, err := r.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return domain.Config{}, err
	}
	if tenant == nil {
		return domain.Config{}, domain.ErrConfigNotFound
	}
	return domain.Config{
		RatePercent: tenant.TaxRatePercent,
		Name:        tenant.TaxName,
		Exempt:      tenant.TaxExempt,
	}, nil
}
