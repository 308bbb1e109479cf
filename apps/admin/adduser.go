package main

import (
	"context"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/projectpulse/pulse/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:     "adduser",
		Short:   "Create an active user; the password is prompted next",
		PreRunE: cli.loadStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword("Enter password:")
			if err != nil {
				return err
			}
			confirm, err := cli.promptPassword("Confirm password:")
			if err != nil {
				return err
			}

			usr, err := cli.addUser(cmd.Context(), user.NewUser{
				Name:            name,
				Email:           email,
				Role:            role,
				Password:        pwd,
				PasswordConfirm: confirm,
			})
			if err != nil {
				return err
			}
			cli.printf("created %s user %s (%s)\n", usr.Role, usr.Email, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "the user's full name")
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	cmd.Flags().StringVar(&role, "role", user.RoleMember, "one of admin, manager, leader, member")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) promptPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Create(ctx, nu)
}
