package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type recurringFlags struct {
	name           string
	amount         string
	category       string
	start          string
	frequency      string
	notes          string
	createReminder bool
	reminderDays   int
}

func (f *recurringFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Rule name")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Signed amount, negative for expenses")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category id")
	cmd.Flags().StringVarP(&f.start, "start", "s", "", "First occurrence as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", string(core.Monthly), "daily, weekly, biweekly, monthly, quarterly or annually")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&f.createReminder, "reminder", false, "Schedule a reminder before each occurrence")
	cmd.Flags().IntVar(&f.reminderDays, "reminder-days", 1, "Days before the occurrence the reminder fires")
}

func newRecurringCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring transaction rules",
	}
	cmd.AddCommand(
		newRecurringAddCmd(a),
		newRecurringUpdateCmd(a),
		newRecurringDeleteCmd(a),
		newRecurringListCmd(a),
		newRecurringProcessCmd(a),
	)
	return cmd
}

func newRecurringAddCmd(a *app) *cobra.Command {
	var f recurringFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(f.amount)
			if err != nil {
				return err
			}
			freq, err := core.ParseFrequency(f.frequency)
			if err != nil {
				return err
			}
			start, err := parseDateFlag(f.start)
			if err != nil {
				return err
			}
			if start.IsZero() {
				start = core.Today()
			}

			rule, err := a.be.Ledger.AddRecurringTransaction(cmd.Context(), core.RecurringRule{
				Name:           f.name,
				Amount:         amount,
				Category:       f.category,
				StartDate:      start,
				Frequency:      freq,
				Notes:          f.notes,
				CreateReminder: f.createReminder,
				ReminderDays:   f.reminderDays,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rule)
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newRecurringUpdateCmd(a *app) *cobra.Command {
	var f recurringFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a recurring rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch services.RecurringRulePatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &f.name
			}
			if flags.Changed("amount") {
				amount, err := core.ParseAmount(f.amount)
				if err != nil {
					return err
				}
				patch.Amount = &amount
			}
			if flags.Changed("category") {
				patch.Category = &f.category
			}
			if flags.Changed("start") {
				start, err := core.ParseDate(f.start)
				if err != nil {
					return err
				}
				patch.StartDate = &start
			}
			if flags.Changed("frequency") {
				freq, err := core.ParseFrequency(f.frequency)
				if err != nil {
					return err
				}
				patch.Frequency = &freq
			}
			if flags.Changed("notes") {
				patch.Notes = &f.notes
			}
			if flags.Changed("reminder") {
				patch.CreateReminder = &f.createReminder
			}
			if flags.Changed("reminder-days") {
				patch.ReminderDays = &f.reminderDays
			}

			rule, err := a.be.Ledger.UpdateRecurringTransaction(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rule)
		},
	}
	f.register(cmd)
	return cmd
}

func newRecurringDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a recurring rule and cancel its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.be.Ledger.DeleteRecurringTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newRecurringListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.be.Ledger.Document(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc.RecurringRules)
		},
	}
}

func newRecurringProcessCmd(a *app) *cobra.Command {
	var (
		date    string
		catchUp bool
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Materialize the rules due on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = core.Today()
			}

			var created []core.Transaction
			if catchUp {
				created, err = a.be.Processor.CatchUp(cmd.Context(), d)
			} else {
				created, err = a.be.Processor.ProcessRecurringTransactions(cmd.Context(), d)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date to process as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&catchUp, "catch-up", false, "Also process every overdue date before it")
	return cmd
}
