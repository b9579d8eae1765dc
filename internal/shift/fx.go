package shift

import (
	"github.com/smallbiznis/mesa/internal/shift/domain"
	"github.com/smallbiznis/mesa/internal/shift/service"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("shift.service",
	fx.Provide(repository.ProvideStore[domain.DailyBalance]),
	fx.Provide(service.NewService),
)
