package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coopsched/internal/app"
	"coopsched/internal/config"
	"coopsched/internal/logx"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticksched",
		Short: "Cooperative round-robin task scheduler",
		Long: `ticksched runs a scenario of debounced inputs, blinking outputs and a
scripted pin timeline on a cooperative, single-threaded task scheduler.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "config.yml", "scenario file (defaults are used when it does not exist)")

	root.AddCommand(newRunCmd(), newValidateCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		maxTicks uint64
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scenario until it completes, max ticks elapse or a signal arrives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-ticks") {
				cfg.MaxTicks = maxTicks
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			log := logx.NewConsole(cfg.LogLevel)
			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	cmd.Flags().Uint64Var(&maxTicks, "max-ticks", 0, "stop after this many ticks (0 = until the root completes)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override log_level from the config")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the scenario file and print the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tick_ms=%d max_ticks=%d max_tasks=%d debounce_ms=%d\n",
				cfg.TickMS, cfg.MaxTicks, cfg.MaxTasks, cfg.DebounceMS)
			fmt.Fprintf(out, "inputs=%d blinkers=%d script_events=%d\n",
				len(cfg.Inputs), len(cfg.Blinkers), len(cfg.Script))
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
