package cmd

import (
	"fmt"

	"catalog/config"
	"catalog/db"
	"catalog/models"
	"catalog/services"

	"github.com/spf13/cobra"
)

func newCreateAdminCommand(envFile *string) *cobra.Command {
	var in services.RegisterInput

	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an admin account",
		Example: "  catalog create-admin --name Root --email root@example.com --password s3cret!",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Read(*envFile)
			conn, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if sqlDB, err := conn.DB(); err == nil {
				defer sqlDB.Close()
			}

			acc, err := services.NewAccountService(conn, nil).Register(cmd.Context(), models.RoleAdmin, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", acc.Email, acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Admin display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Admin password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
