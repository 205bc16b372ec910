package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/shule/apps"
	"github.com/trezcool/shule/apps/shared"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out      io.Writer
	storage  *shared.Storage
	importer *roster.Importer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  resetpassword -kind student|teacher -username USERNAME|EMAIL - set an account's password")
	fmt.Fprintln(cli.out, "  import -kind student|teacher -file ROSTER.xlsx [-out CREDENTIALS.xlsx] - provision accounts from a roster")
	fmt.Fprintln(cli.out, "  hashpassword - print the bcrypt hash of a password, for ADMIN_PASSWORD_HASH")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordKind := resetPasswordCmd.String("kind", "", "The account kind: student or teacher.")
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username or email. The password will be prompted next.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importCmd.SetOutput(cli.out)
	importKind := importCmd.String("kind", "", "The account kind: student or teacher.")
	importFile := importCmd.String("file", "", "The .xlsx roster to import.")
	importOut := importCmd.String("out", "", "Where to write the credentials report. Defaults to the current directory.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		kind, err := parseKind(*resetPasswordKind)
		if err != nil {
			return err
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(kind, *resetPasswordUname, pwd)

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		kind, err := parseKind(*importKind)
		if err != nil {
			return err
		}
		return cli.importRoster(kind, *importFile, *importOut)

	case "hashpassword":
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func parseKind(kind string) (account.Kind, error) {
	switch k := account.Kind(kind); k {
	case account.KindStudent, account.KindTeacher:
		return k, nil
	}
	return "", apps.NewArgumentError("-kind", "must be %q or %q (got %q)", account.KindStudent, account.KindTeacher, kind)
}
