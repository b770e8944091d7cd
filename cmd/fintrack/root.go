package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// app carries the services shared by every subcommand. A pre-set backend is
// used as is and never cleaned up by the command tree.
type app struct {
	be     *backend.Backend
	owned  bool
	memory bool
	logger *applog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fintrack",
		Short:         "Personal finance ledger",
		Long:          `fintrack records transactions, budgets, savings goals and recurring rules, and reports period statistics and insights.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().BoolVar(&a.memory, "memory", false, "Use a throwaway in-memory store instead of SQLite")

	cmd.AddCommand(
		newTransactionCmd(a),
		newBudgetCmd(a),
		newGoalCmd(a),
		newRecurringCmd(a),
		newStatsCmd(a),
		newInsightsCmd(a),
		newCorrelationCmd(a),
		newMoodCmd(a),
	)
	return cmd
}

func (a *app) init(ctx context.Context) error {
	if a.be != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	a.logger = cli.SetupLogger(cfg, applog.ComponentCLI, false)

	backendType := backend.SQLiteBackend
	if a.memory {
		backendType = backend.MemoryBackend
	}
	backendCfg, err := backend.ConfigFromApp(cfg, backendType)
	if err != nil {
		return err
	}

	be, err := backend.New(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	a.be = be
	a.owned = true
	a.logger.Debug("Backend ready", "type", backendType.String())
	return nil
}

func (a *app) close() error {
	if !a.owned || a.be == nil {
		return nil
	}
	err := a.be.Cleanup()
	a.be, a.owned = nil, false
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDateFlag(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}
