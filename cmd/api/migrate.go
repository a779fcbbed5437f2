package main

import (
	"fmt"

	"pawtastic/internal/adapters/storage/postgres"
	"pawtastic/internal/app"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema de Postgres (tablas, índices y triggers de notificación)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
				return err
			}

			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}
			db, err := app.OpenDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema applied", nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "solo imprime el SQL")
	return cmd
}
