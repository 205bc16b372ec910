package main

import (
	"context"

	"github.com/trezcool/shule/apps"
	"github.com/trezcool/shule/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.storage.DB == nil {
		return apps.NewArgumentError("", "migrations require the postgres database engine")
	}
	return migrateFunc(context.Background(), cli.storage.DB, args[0], args[1:]...)
}
