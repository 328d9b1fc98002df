// Command gesture-load drives a running enso server with synthetic players
// whose circles get noisier one by one, then checks the leaderboard order.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/enso/internal/gestureload"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := gestureload.DefaultConfig()
	var (
		logFile    string
		runTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "gesture-load",
		Short: "Load-test an enso server with noisy circles",
		Long: `gesture-load creates one session per synthetic player, submits circles
whose radial wobble grows from the first player to the last, and verifies
that the leaderboard ranks smoother circles higher.`,
		Example: `  gesture-load --url http://localhost:9080 --sessions 200 --workers 16
  gesture-load --max-noise 0.1 --attempts 5 --verbose --log load.log`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := gestureload.SetupLogging(logFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err = gestureload.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "number of synthetic players")
	f.IntVar(&cfg.AttemptsPerSession, "attempts", cfg.AttemptsPerSession, "gestures per player")
	f.IntVar(&cfg.Points, "points", cfg.Points, "points per gesture")
	f.Float64Var(&cfg.Radius, "radius", cfg.Radius, "circle radius in canvas pixels")
	f.Float64Var(&cfg.MaxNoise, "max-noise", cfg.MaxNoise, "wobble of the noisiest player as a fraction of the radius")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent HTTP workers")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", cfg.Settle, "how long to wait for the leaderboard")
	f.IntVar(&cfg.MaxLimit, "max-limit", cfg.MaxLimit, "largest leaderboard page the server accepts")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for wobble shapes")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log every submission")
	f.StringVar(&logFile, "log", "", "also write logs to this file")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "overall time limit")
	return cmd
}
