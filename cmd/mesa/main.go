package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	"github.com/smallbiznis/mesa/internal/config"
	"github.com/smallbiznis/mesa/internal/logger"
	"github.com/smallbiznis/mesa/internal/migration"
	"github.com/smallbiznis/mesa/internal/scheduler"
	"github.com/smallbiznis/mesa/internal/server"
	"github.com/smallbiznis/mesa/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
