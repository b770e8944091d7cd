package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func newStatsCmd(a *app) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show income, expenses and budget progress for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.ParsePeriod(period)
			if err != nil {
				return err
			}
			stats, err := a.be.Stats.FinancialStats(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", string(core.PeriodMonth), "week, month, quarter or year")
	return cmd
}

func newInsightsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Score this month's finances",
		RunE: func(cmd *cobra.Command, args []string) error {
			insights, err := a.be.Insights.GetFinancialInsights(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), insights)
		},
	}
}

func newCorrelationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "correlation",
		Short: "Show days where heavy spending came with a mood drop",
		RunE: func(cmd *cobra.Command, args []string) error {
			correlations, err := a.be.Insights.GetSpendingMoodCorrelation(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), correlations)
		},
	}
}

func newMoodCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Record daily mood readings",
	}
	cmd.AddCommand(newMoodRecordCmd(a), newMoodListCmd(a))
	return cmd
}

func newMoodRecordCmd(a *app) *cobra.Command {
	var (
		date             string
		morning, evening float64
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the morning and/or evening mood of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = core.Today()
			}

			var entry core.MoodEntry
			if cmd.Flags().Changed("morning") {
				entry.Morning = &morning
			}
			if cmd.Flags().Changed("evening") {
				entry.Evening = &evening
			}
			if entry.Morning == nil && entry.Evening == nil {
				return fmt.Errorf("at least one of --morning or --evening is required")
			}

			if err := a.be.Moods.Record(cmd.Context(), d, entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded mood for %s\n", d)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&morning, "morning", 0, "Morning mood, 0 to 5")
	cmd.Flags().Float64Var(&evening, "evening", 0, "Evening mood, 0 to 5")
	return cmd
}

func newMoodListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded moods",
		RunE: func(cmd *cobra.Command, args []string) error {
			moods, err := a.be.Moods.Moods(cmd.Context())
			if err != nil {
				return err
			}
			byDay := make(map[string]core.MoodEntry, len(moods))
			for d, m := range moods {
				byDay[d.String()] = m
			}
			return printJSON(cmd.OutOrStdout(), byDay)
		},
	}
}
