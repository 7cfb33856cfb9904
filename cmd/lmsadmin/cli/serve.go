package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/client"
	"github.com/alexis/lmsadmin/internal/config"
	"github.com/alexis/lmsadmin/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("server") || serverURL != client.DefaultBaseURL {
			cfg.APIURL = serverURL
		}
		if cmd.Flags().Changed("timeout") {
			cfg.HTTPTimeout = timeout
		}
		if apiKey != "" {
			cfg.APIToken = apiKey
		}
		if servePort != "" {
			cfg.Port = servePort
		}
		if auditDB != "" {
			cfg.DBPath = auditDB
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := cfg.NewLogger()
		slog.SetDefault(logger)
		return server.Run(cmd.Context(), cfg, logger, Version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen address (default from LMS_PORT)")
	rootCmd.AddCommand(serveCmd)
}
