package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/client"
)

// Version is set by main.
var Version = "dev"

var (
	serverURL string
	apiKey    string
	timeout   time.Duration
	output    string
	auditDB   string
)

var rootCmd = &cobra.Command{
	Use:           "lmsadmin",
	Short:         "lmsadmin: administer the loyalty management system",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envDefault(cmd, "server", "LMS_API_URL", &serverURL)
		envDefault(cmd, "api-key", "LMS_API_TOKEN", &apiKey)
		switch output {
		case outputTable, outputJSON, outputYAML:
		default:
			return fmt.Errorf("invalid --output %q (table, json or yaml)", output)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", client.DefaultBaseURL, "Loyalty API base URL (env LMS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Bearer token for the loyalty API (env LMS_API_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&auditDB, "audit", "", "Record mutating commands in this activity database")
	rootCmd.Version = Version
}

// envDefault fills a flag from the environment unless it was set explicitly.
func envDefault(cmd *cobra.Command, flag, env string, dst *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Execute runs the CLI. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd.Version = Version
	return rootCmd.ExecuteContext(ctx)
}
