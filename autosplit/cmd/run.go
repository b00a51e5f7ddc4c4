package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sarchlab/autosplit/config"
	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/logging"
	"github.com/sarchlab/autosplit/monitoring"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/splitter"
	"github.com/sarchlab/autosplit/timer"
	"github.com/sarchlab/autosplit/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the game and drive the timer until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		dryRun, _ := cmd.Flags().GetBool("dry-run")

		return run(ctx, v, cfg, dryRun)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false,
		"do not connect to LiveSplit; send the commands to an in-memory timer")
	runCmd.Flags().Bool("slow-pc", false, "tick at 30 Hz instead of 60 Hz")
	runCmd.Flags().String("game-version", "", "game version (overrides the config)")
}

func run(ctx context.Context, v *viper.Viper, cfg *config.Config, dryRun bool) error {
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	version, err := registry.Lookup(cfg.Version)
	if err != nil {
		return err
	}

	var ctrl timer.Controller
	if dryRun {
		ctrl = timer.NewRecorder(0)
	} else {
		ls := timer.NewLiveSplit(cfg.LiveSplit.Address, cfg.LiveSplit.Timeout)
		defer ls.Close()
		ctrl = ls
	}

	live := config.NewLiveSettings(cfg)
	if v.ConfigFileUsed() != "" {
		config.Watch(v, live, func(err error) {
			logger.Warn("ignoring invalid config change", "error", err)
		})
	}

	b := splitter.MakeBuilder().
		WithVersion(version).
		WithAttacher(process.NewPollingAttacher(cfg.Attach.PollInterval)).
		WithTimer(ctrl).
		WithSettings(live).
		WithRetryInterval(cfg.Attach.RetryInterval).
		WithHook(splitter.NewLogHook(logger))

	if cfg.Trace.Path != "" {
		tracer, err := newTracer(cfg.Trace)
		if err != nil {
			return err
		}
		b = b.WithHook(hooking.OnlyAt(tracer, tracer.Positions()...))
	}

	s, err := b.Build()
	if err != nil {
		return err
	}

	if cfg.Monitor.Enabled {
		m := monitoring.NewMonitor().
			WithPortNumber(cfg.Monitor.Port).
			WithBrowser(cfg.Monitor.OpenBrowser)
		m.RegisterSplitter(s)

		addr, err := m.StartServer()
		if err != nil {
			return err
		}
		logger.Info("monitor listening", "addr", addr)

		defer shutdown(m, logger)
	}

	logger.Info("waiting for the game",
		"version", version.Name, "process", version.Process,
		"livesplit", cfg.LiveSplit.Address, "dry_run", dryRun)

	err = s.Run(ctx)
	if errors.Is(err, game.ErrFatalAttach) {
		return fmt.Errorf("cannot attach to %s: %w", version.Process, err)
	}

	return err
}

func newTracer(c config.TraceConfig) (*tracing.Tracer, error) {
	w, err := tracing.NewTraceWriter(c.Format, c.Path)
	if err != nil {
		return nil, err
	}

	if err := w.Init(); err != nil {
		return nil, err
	}

	return tracing.NewTracer(w), nil
}

func shutdown(m *monitoring.Monitor, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Shutdown(ctx); err != nil {
		logger.Warn("monitor shutdown", "error", err)
	}
}
