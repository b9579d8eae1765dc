package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/mesa/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(Start),
)

func Start(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if cfg.Audit.SweepIntervalMinutes <= 0 {
		return
	}
	interval := time.Duration(cfg.Audit.SweepIntervalMinutes) * time.Minute

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			go sched.RunForever(ctx, interval)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}
