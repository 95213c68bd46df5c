// Command careplanner serves the attachment API, runs the preview worker and
// offers a small CLI over the same attachment service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/careplanner/internal/config"
	"github.com/dharsanguruparan/careplanner/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(config.Load, buildApp)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "careplanner: %v\n", err)
		os.Exit(1)
	}
}

// cli carries state resolved in PersistentPreRunE down to the subcommands.
type cli struct {
	loadConfig func() (*config.Config, error)
	build      appFactory

	logLevel string
	cfg      *config.Config
	log      *logrus.Logger
}

func newRootCommand(load func() (*config.Config, error), build appFactory) *cobra.Command {
	c := &cli{loadConfig: load, build: build}
	cmd := &cobra.Command{
		Use:   "careplanner",
		Short: "Care record attachments",
		Long: `careplanner stores files attached to care records: blobs go to an S3 compatible
object store, metadata to Postgres. Configuration is read from CAREPLANNER_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}
			c.cfg = cfg
			c.log = logging.NewWithOutput(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override CAREPLANNER_LOG_LEVEL")
	cmd.AddCommand(
		newServeCmd(c),
		newWorkerCmd(c),
		newAttachmentsCmd(c),
	)
	return cmd
}
