package auditor

import "go.uber.org/fx"

var Module = fx.Module("auditor.service",
	fx.Provide(NewService),
)
