package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/smallbiznis/facture/internal/migration"
	"github.com/smallbiznis/facture/internal/observability"
	"github.com/smallbiznis/facture/internal/server"
	"github.com/smallbiznis/facture/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
