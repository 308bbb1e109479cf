package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var migrateCommands = map[string]bool{
	"up": false, "up-by-one": false, "down": false, "redo": false, "status": false,
	"up-to": true, "down-to": true,
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [VERSION]",
		Short: "Run database migrations (up, up-by-one, up-to VERSION, down, down-to VERSION, redo, status)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args[0]
			needsVersion, ok := migrateCommands[command]
			if !ok {
				return fmt.Errorf("%q: no such command", command)
			}

			var version int64
			if needsVersion {
				if len(args) < 2 {
					return fmt.Errorf("%s must be of form: migrate %s VERSION", command, command)
				}
				v, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("version must be a number (got '%s')", args[1])
				}
				version = v
			}

			db, err := cli.openSQL()
			if err != nil {
				return err
			}
			if db != nil {
				defer func() { _ = db.Close() }()
			}
			return migrateFunc(db, command, version)
		},
	}
}
