package main

import (
	"github.com/spf13/cobra"

	echoapi "github.com/projectpulse/pulse/apps/api/echo"
)

func (cli *commandLine) tokenCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Print an API token for a user",
		PreRunE: cli.loadStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := cli.token(cmd, email)
			if err != nil {
				return err
			}
			cli.printf("%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) token(cmd *cobra.Command, email string) (string, error) {
	usr, err := cli.usrSvc.GetByEmail(cmd.Context(), email)
	if err != nil {
		return "", err
	}
	return echoapi.GenerateToken(echoapi.GetUserClaims(usr))
}
