package main

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

func (cli *commandLine) resetPassword(kind account.Kind, uname, pwd string) error {
	ctx := context.Background()
	if kind == account.KindTeacher {
		return setPassword(ctx, cli.storage.Teachers, uname, pwd)
	}
	return setPassword(ctx, cli.storage.Students, uname, pwd)
}

func setPassword[T account.Record](ctx context.Context, repo account.Repository[T], uname, pwd string) error {
	rec, err := repo.Get(ctx, account.GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
	if err != nil {
		return err
	}
	acc := rec.Info()
	if err = acc.SetPassword(pwd); err != nil {
		return err
	}
	return repo.SetPassword(ctx, acc.ID, acc.PasswordHash)
}
