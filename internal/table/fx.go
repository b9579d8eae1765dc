package table

import (
	"github.com/smallbiznis/mesa/internal/table/domain"
	"github.com/smallbiznis/mesa/internal/table/service"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("table.service",
	fx.Provide(repository.ProvideStore[domain.Table]),
	fx.Provide(service.NewService),
)
