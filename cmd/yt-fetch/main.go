package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Services in a are set up before any
// subcommand runs; the caller closes them.
func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "yt-fetch",
		Short:         "Fetch pages and media formats with retries and progress",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath, logLevel)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")

	root.AddCommand(
		newPageCmd(a),
		newDownloadCmd(a),
		newVisitorDataCmd(a),
		newHistoryCmd(a),
	)
	return root
}
