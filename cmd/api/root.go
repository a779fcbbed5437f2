package main

import (
	"pawtastic/internal/platform/config"
	"pawtastic/internal/platform/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := config.New()

	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "pawtastic",
		Short:         "Pawtastic core: sesión, mascotas y reservas",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "archivo de configuración (yaml, toml, json)")
	rootCmd.PersistentFlags().String("log-level", "", "debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", "", "text|json")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	serve := newServeCmd(v)
	rootCmd.AddCommand(serve, newMigrateCmd(v))

	// Sin subcomando: serve.
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	return rootCmd
}

func loadConfig(v *viper.Viper) (config.Config, logger.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	return cfg, log, nil
}
