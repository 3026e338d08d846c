package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spk/internal/clock"
	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/migration"
	"github.com/smallbiznis/spk/internal/observability"
	"github.com/smallbiznis/spk/internal/observability/push"
	"github.com/smallbiznis/spk/internal/server"
	"github.com/smallbiznis/spk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		push.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		db.RedisModule,
		clock.Module,
		migration.Module,
		server.Module,
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
