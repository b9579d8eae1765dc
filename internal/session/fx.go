package session

import (
	"github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/internal/session/service"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("session.service",
	fx.Provide(repository.ProvideStore[domain.UsageLog]),
	fx.Provide(repository.ProvideStore[domain.OrderItem]),
	fx.Provide(service.NewService),
)
