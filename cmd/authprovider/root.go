package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-auth-provider/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authprovider CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authprovider",
		Short: "Manage users behind the auth provider",
		Long: `authprovider manages the user store backing the auth provider:
apply migrations, create users, and exercise login and remember me flows.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewRememberCmd())
	cmd.AddCommand(NewLogoutCmd())

	return cmd
}

// withApp builds the app for cmd, runs fn and closes the app.
func withApp(cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(a)
}
