// Command fetch issues HTTP/1.1 requests through the fetch client and can
// serve a local echo endpoint to try them against.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/f0zi/fetch/internal/config"
	"github.com/f0zi/fetch/internal/obs"
)

type rootOptions struct {
	configPath     string
	logLevel       string
	maxOutstanding int
	maxDeferred    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fetch:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:           "fetch",
		Short:         "Fetch-style HTTP/1.1 client with bounded, prioritized connection use",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "YAML config file")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.IntVar(&o.maxOutstanding, "max-outstanding", 0, "maximum sockets in use at once (0 = unbounded)")
	pf.IntVar(&o.maxDeferred, "max-deferred", 0, "maximum requests waiting for a socket (0 = unbounded)")

	root.AddCommand(newGetCmd(o), newEchoCmd(o))
	return root
}

// load reads the config file and applies the flags the user set.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("max-outstanding") {
		cfg.Client.MaxOutstanding = o.maxOutstanding
	}
	if flags.Changed("max-deferred") {
		cfg.Client.MaxDeferred = o.maxDeferred
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := obs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return obs.NewZap(level, cfg.Log.JSON)
}
