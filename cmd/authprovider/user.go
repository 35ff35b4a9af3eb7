package main

import (
	"fmt"

	"github.com/spf13/cobra"

	provider "github.com/goliatone/go-auth-provider"
)

// NewUserCmd creates the user subcommand.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserShowCmd())

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var msg provider.RegisterUserMessage

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, the password is hashed before it is stored",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				user, err := a.register(cmd.Context(), msg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "id=%s\n", user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&msg.Email, "email", "", "user email")
	cmd.Flags().StringVar(&msg.Username, "username", "", "username (defaults to the email local part)")
	cmd.Flags().StringVar(&msg.Password, "password", "", "plaintext password")
	cmd.Flags().BoolVar(&msg.UseHashid, "hashid", false, "derive the user id from the email")

	return cmd
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Look a user up by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				user, err := a.provider.FindByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				record, ok := user.Record()
				if !ok {
					return fmt.Errorf("user %s not found", args[0])
				}

				fmt.Fprintf(cmd.OutOrStdout(), "id=%s\nemail=%s\nusername=%s\n", record.ID, record.Email, record.Username)
				return nil
			})
		},
	}
}
