package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/logger"
	"github.com/billingkit/taxengine/internal/migration"
	"github.com/billingkit/taxengine/internal/server"
	"github.com/billingkit/taxengine/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional domains
		server.Module,
		migration.Module,
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
