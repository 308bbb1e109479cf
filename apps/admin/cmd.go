package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/user"
	"github.com/projectpulse/pulse/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword  // mockable
	migrateFunc      = database.MigrateTo // mockable
	openSQLFunc      = database.Open      // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	openStore func(*core.Config) (*database.Store, error)
	validate  *validator.Validate
	out       io.Writer

	// set by loadStore
	store  *database.Store
	usrSvc *user.Service
}

func newCommandLine(conf *core.Config, openStore func(*core.Config) (*database.Store, error), validate *validator.Validate, out io.Writer) *commandLine {
	return &commandLine{
		conf:      conf,
		openStore: openStore,
		validate:  validate,
		out:       out,
	}
}

// loadStore opens the Entity Store once, for the commands that work on records.
func (cli *commandLine) loadStore(*cobra.Command, []string) error {
	if cli.store != nil {
		return nil
	}
	store, err := cli.openStore(cli.conf)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	cli.store = store
	cli.usrSvc = user.NewService(store.Users)
	return nil
}

func (cli *commandLine) close() error {
	if cli.store == nil {
		return nil
	}
	return cli.store.Close()
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.tokenCmd(),
		cli.seedCmd(),
	)
	return root
}

// run executes the command line; args excludes the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	if len(args) == 0 {
		_ = root.Help()
		return errHelp
	}
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) openSQL() (*sql.DB, error) {
	if cli.conf.Database.Engine != database.EnginePostgres {
		return nil, fmt.Errorf("migrations only apply to the %s engine (got %q)", database.EnginePostgres, cli.conf.Database.Engine)
	}
	return openSQLFunc(cli.conf)
}
