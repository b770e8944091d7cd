package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type goalFlags struct {
	name       string
	target     string
	targetDate string
	color      string
}

func (f *goalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Goal name")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "Target amount")
	cmd.Flags().StringVarP(&f.targetDate, "by", "b", "", "Target date as YYYY-MM-DD")
	cmd.Flags().StringVar(&f.color, "color", "", "Display color")
}

func newGoalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
	}
	cmd.AddCommand(
		newGoalAddCmd(a),
		newGoalUpdateCmd(a),
		newGoalContributeCmd(a),
		newGoalDeleteCmd(a),
		newGoalListCmd(a),
	)
	return cmd
}

func newGoalAddCmd(a *app) *cobra.Command {
	var f goalFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a savings goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := core.ParsePositiveAmount(f.target)
			if err != nil {
				return err
			}
			by, err := parseDateFlag(f.targetDate)
			if err != nil {
				return err
			}

			g, err := a.be.Ledger.AddSavingsGoal(cmd.Context(), core.SavingsGoal{
				Name:       f.name,
				Target:     target,
				TargetDate: by,
				Color:      f.color,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), g)
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalUpdateCmd(a *app) *cobra.Command {
	var f goalFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch services.SavingsGoalPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &f.name
			}
			if flags.Changed("target") {
				target, err := core.ParsePositiveAmount(f.target)
				if err != nil {
					return err
				}
				patch.Target = &target
			}
			if flags.Changed("by") {
				by, err := core.ParseDate(f.targetDate)
				if err != nil {
					return err
				}
				patch.TargetDate = &by
			}
			if flags.Changed("color") {
				patch.Color = &f.color
			}

			g, err := a.be.Ledger.UpdateSavingsGoal(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), g)
		},
	}
	f.register(cmd)
	return cmd
}

func newGoalContributeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contribute <id> <amount>",
		Short: "Add money to a savings goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			g, err := a.be.Ledger.ContributeSavingsGoal(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), g)
		},
	}
}

func newGoalDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.be.Ledger.DeleteSavingsGoal(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newGoalListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List savings goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.be.Ledger.Document(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc.SavingsGoals)
		},
	}
}
