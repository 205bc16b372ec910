package main

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core/account"
)

func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), account.PasswordCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(hash))
	return nil
}
