package document

import "go.uber.org/fx"

var Module = fx.Module("providers.document",
	fx.Provide(NewNoop),
)
