package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage budgets",
	}
	cmd.AddCommand(
		newBudgetAddCmd(a),
		newBudgetUpdateCmd(a),
		newBudgetDeleteCmd(a),
		newBudgetListCmd(a),
		newBudgetResetCmd(a),
	)
	return cmd
}

func newBudgetAddCmd(a *app) *cobra.Command {
	var target, allocated, notes string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a budget for a category or a group",
		Long:  `Create a budget. The target is a category id, or "group-<name>" for every category of a group.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseBudgetTarget(target)
			if err != nil {
				return err
			}
			amount, err := core.ParsePositiveAmount(allocated)
			if err != nil {
				return err
			}

			b, err := a.be.Ledger.AddBudget(cmd.Context(), core.Budget{
				Target:    t,
				Allocated: amount,
				Notes:     notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", `Category id or "group-<name>"`)
	cmd.Flags().StringVarP(&allocated, "allocated", "a", "", "Allocated amount")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("allocated")
	return cmd
}

func newBudgetUpdateCmd(a *app) *cobra.Command {
	var target, allocated, notes string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch services.BudgetPatch
			if cmd.Flags().Changed("target") {
				t, err := core.ParseBudgetTarget(target)
				if err != nil {
					return err
				}
				patch.Target = &t
			}
			if cmd.Flags().Changed("allocated") {
				amount, err := core.ParsePositiveAmount(allocated)
				if err != nil {
					return err
				}
				patch.Allocated = &amount
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}

			b, err := a.be.Ledger.UpdateBudget(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", `Category id or "group-<name>"`)
	cmd.Flags().StringVarP(&allocated, "allocated", "a", "", "Allocated amount")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

func newBudgetDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.be.Ledger.DeleteBudget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newBudgetListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets with spent and remaining amounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.be.Ledger.ListBudgets(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}
}

func newBudgetResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start a new spending period for every budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.be.Ledger.ResetAllBudgets(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d budgets\n", n)
			return nil
		},
	}
}
