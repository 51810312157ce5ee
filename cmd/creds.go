package cmd

import (
	"fmt"

	"github.com/example/classpick/internal/config"
	"github.com/example/classpick/internal/credentials"
	"github.com/example/classpick/internal/registration"
	"github.com/spf13/cobra"
)

func newCredsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage the stored portal login",
	}
	cmd.AddCommand(newCredsSaveCmd())
	cmd.AddCommand(newCredsShowCmd())
	return cmd
}

func newCredsSaveCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "save",
		Short: "Encrypt and store the default portal username/password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			creds := registration.Credentials{Username: username, Password: password}
			if err := store.Save(cmd.Context(), creds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved credentials for %q to %s\n", username, store.Path())
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "portal username")
	c.Flags().StringVar(&password, "password", "", "portal password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}

func newCredsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored username",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			username, err := store.Username(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", username, store.Path())
			return nil
		},
	}
}

func openStore(cfg config.Config) (*credentials.Store, error) {
	if err := cfg.RequireSecret(); err != nil {
		return nil, err
	}
	return credentials.NewStore(cfg.CredentialsPath, cfg.SecretKey)
}
