package costs

import (
	"github.com/smallbiznis/mesa/internal/costs/service"
	"go.uber.org/fx"
)

var Module = fx.Module("costs.service",
	fx.Provide(service.NewAggregator),
)
