package tenant

import (
	"github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/internal/tenant/service"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.ProvideAdminStore[domain.Tenant]),
	fx.Provide(service.NewService),
)
