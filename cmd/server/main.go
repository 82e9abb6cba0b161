package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/config"
	"github.com/invoicestudio/backend/internal/logger"
	"github.com/invoicestudio/backend/internal/migration"
	"github.com/invoicestudio/backend/internal/seed"
	"github.com/invoicestudio/backend/internal/server"
	"github.com/invoicestudio/backend/pkg/db"
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
		seed.Module,
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
