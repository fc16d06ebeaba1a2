package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/migration"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/server"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
