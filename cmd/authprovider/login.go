package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	var (
		uid      string
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials, optionally issuing a remember me token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				user, err := a.guard.Attempt(cmd.Context(), uid, password, remember)
				if err != nil {
					return err
				}

				id, _ := user.ID()
				fmt.Fprintf(cmd.OutOrStdout(), "id=%s\n", id)
				if token, ok := user.RememberMeToken(); ok && remember {
					fmt.Fprintf(cmd.OutOrStdout(), "remember_token=%s\n", token)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "login identifier")
	cmd.Flags().StringVar(&password, "password", "", "plaintext password")
	cmd.Flags().BoolVar(&remember, "remember", false, "issue a remember me token")

	return cmd
}

// NewRememberCmd creates the remember subcommand.
func NewRememberCmd() *cobra.Command {
	var id, token string

	cmd := &cobra.Command{
		Use:   "remember",
		Short: "Restore a user from a remember me token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				user, err := a.guard.ViaRemember(cmd.Context(), id, token)
				if err != nil {
					return err
				}

				uid, _ := user.ID()
				fmt.Fprintf(cmd.OutOrStdout(), "id=%s\n", uid)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "user id")
	cmd.Flags().StringVar(&token, "token", "", "remember me token")

	return cmd
}

// NewLogoutCmd creates the logout subcommand.
func NewLogoutCmd() *cobra.Command {
	var id, token string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Recycle the remember me token of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				user, err := a.guard.ViaRemember(cmd.Context(), id, token)
				if err != nil {
					return err
				}

				if err := a.guard.Logout(cmd.Context(), user, true); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "user id")
	cmd.Flags().StringVar(&token, "token", "", "remember me token")

	return cmd
}
