package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core/user"
)

func (cli *commandLine) login(ctx context.Context, email, password string, role user.Role) error {
	data := user.LoginRequest{Email: email, Password: password, Role: role}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}

	store, err := cli.openSession(ctx)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	acct, err := store.Login(ctx, data.Email, data.Password, data.Role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", acct.Identity().Email, acct.Identity().Role)
	return cli.print(acct)
}

func (cli *commandLine) whoami(ctx context.Context) error {
	store, err := cli.openSession(ctx)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	acct, ok := store.CurrentUser()
	if !ok {
		return errNotLoggedIn
	}
	return cli.print(acct)
}

func (cli *commandLine) logout(ctx context.Context) error {
	store, err := cli.openSession(ctx)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	if err = store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged out")
	return nil
}
