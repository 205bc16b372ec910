package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
)

func (cli *commandLine) importRoster(kind account.Kind, path, out string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	ctx := context.Background()
	var outcome roster.Outcome
	if kind == account.KindTeacher {
		outcome, err = roster.Import(ctx, cli.importer, roster.Teachers(), cli.storage.Teachers, f)
	} else {
		outcome, err = roster.Import(ctx, cli.importer, roster.Students(), cli.storage.Students, f)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d provisioned, %d failed, %d skipped\n", len(outcome.Credentials), len(outcome.Failures), outcome.Skipped)
	for _, msg := range outcome.Errors() {
		fmt.Fprintln(cli.out, "  "+msg)
	}

	rep, err := cli.importer.NewReport(outcome)
	if err != nil {
		return err
	}
	defer rep.Close()

	if out == "" {
		out = rep.Filename
	}
	if err = copyReport(rep, out); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "credentials written to %s\n", out)
	return nil
}

func copyReport(rep *roster.Report, dst string) error {
	src, err := rep.Open()
	if err != nil {
		return errors.Wrap(err, "opening report")
	}
	defer src.Close()

	w, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "creating credentials file")
	}
	if _, err = io.Copy(w, src); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing credentials file")
	}
	return w.Close()
}
