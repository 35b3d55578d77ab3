package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/session"
	"github.com/trezcool/edupoints/core/user"
)

// cliNamespace holds the session of the command line, apart from the browsing sessions.
const cliNamespace = "cli"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in")
)

type commandLine struct {
	conf     *core.Config
	storage  session.Storage
	logger   core.Logger
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  generate -kind KIND [-count N] [-seed S] - print sample data (student|teacher|class|activity|reward|leaderboard)")
	fmt.Fprintln(cli.out, "  login -email EMAIL -role ROLE - log in; the password will be prompted next")
	fmt.Fprintln(cli.out, "  whoami - print the logged in account")
	fmt.Fprintln(cli.out, "  logout - log out")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	generateCmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	generateKind := generateCmd.String("kind", "", "The kind of data: student, teacher, class, activity, reward or leaderboard.")
	generateCount := generateCmd.Int("count", 1, "The number of items (entries for a leaderboard).")
	generateSeed := generateCmd.Int64("seed", 0, "The random seed. 0 picks a random one.")

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The email to log in with.")
	loginRole := loginCmd.String("role", "", "The role to log in as: teacher or student.")

	ctx := context.Background()

	switch args[1] {
	case "generate":
		generateCmd.SetOutput(cli.out)
		if err := generateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *generateKind == "" || *generateCount < 0 {
			generateCmd.Usage()
			return errHelp
		}
		return cli.generate(*generateKind, *generateCount, *generateSeed)

	case "login":
		loginCmd.SetOutput(cli.out)
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginEmail == "" || *loginRole == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, string(pwd), user.Role(*loginRole))

	case "whoami":
		return cli.whoami(ctx)

	case "logout":
		return cli.logout(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) print(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cli *commandLine) openSession(ctx context.Context) (*session.Store, error) {
	gen := mockgen.NewUnseeded()
	if cli.conf.Mock.Seed != 0 {
		gen = mockgen.NewSeeded(cli.conf.Mock.Seed)
	}
	return session.Open(
		ctx,
		session.Namespaced(cli.storage, cliNamespace),
		session.WithDelay(cli.conf.Mock.LoginDelay),
		session.WithGenerator(gen),
		session.WithLogger(cli.logger),
	)
}
