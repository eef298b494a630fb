package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 5 * time.Second

var (
	runInterval    time.Duration
	runMaxTicks    int
	runMetricsAddr string
	runNoInbox     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent continuously",
	Long: `Run the scheduler on a fixed interval until interrupted. Before every
tick, pending intents in the inbox directory are dispatched and their
replies written to the outbox.

With --metrics-addr the Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		if runInterval <= 0 {
			return fmt.Errorf("--interval must be positive")
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		loopCtx, cancelLoop := context.WithCancel(gctx)
		defer cancelLoop()

		if runMetricsAddr != "" {
			if Prom == nil {
				return fmt.Errorf("metrics not initialized")
			}
			ln, err := net.Listen("tcp", runMetricsAddr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", runMetricsAddr, err)
			}
			Logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
			g.Go(func() error { return serveMetrics(loopCtx, ln) })
		}
		g.Go(func() error {
			// Stopping the loop also stops the metrics server.
			defer cancelLoop()
			return runLoop(loopCtx, runInterval, runMaxTicks, !runNoInbox)
		})
		return g.Wait()
	},
}

// runLoop processes the inbox and ticks every interval until ctx is done or
// maxTicks ticks have run (0 means no limit).
func runLoop(ctx context.Context, interval time.Duration, maxTicks int, processInbox bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ran := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if processInbox && Inbox != nil {
			if n, err := Inbox.Process(Agent); err != nil {
				Logger.Warn("processing inbox", zap.Error(err))
			} else if n > 0 {
				Logger.Debug("processed inbox", zap.Int("intents", n))
			}
		}

		rep, err := Agent.Tick(ctx)
		if err != nil {
			// Learner failures are not fatal to the loop.
			Logger.Warn("tick failed", zap.Uint64("tick", rep.Tick), zap.Error(err))
		} else {
			Logger.Debug(formatTick(rep))
		}

		ran++
		if maxTicks > 0 && ran >= maxTicks {
			return nil
		}
	}
}

// serveMetrics serves the Prometheus handler on ln until ctx is done.
func serveMetrics(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Prom.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving metrics: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving metrics: %w", err)
	}
	return nil
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", time.Second, "Time between ticks")
	runCmd.Flags().IntVar(&runMaxTicks, "max-ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&runNoInbox, "no-inbox", false, "Do not process the inbox directory")
	rootCmd.AddCommand(runCmd)
}
