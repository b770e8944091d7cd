package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type transactionFlags struct {
	name     string
	amount   string
	category string
	date     string
	notes    string
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Transaction name")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Signed amount, negative for expenses")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category id")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
}

func newTransactionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Manage transactions",
	}
	cmd.AddCommand(
		newTransactionAddCmd(a),
		newTransactionUpdateCmd(a),
		newTransactionDeleteCmd(a),
		newTransactionListCmd(a),
	)
	return cmd
}

func newTransactionAddCmd(a *app) *cobra.Command {
	var f transactionFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(f.amount)
			if err != nil {
				return err
			}
			date, err := parseDateFlag(f.date)
			if err != nil {
				return err
			}

			tx, err := a.be.Ledger.AddTransaction(cmd.Context(), core.Transaction{
				Name:     f.name,
				Amount:   amount,
				Category: f.category,
				Date:     date,
				Notes:    f.notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newTransactionUpdateCmd(a *app) *cobra.Command {
	var f transactionFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch services.TransactionPatch
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
			if flags.Changed("date") {
				date, err := core.ParseDate(f.date)
				if err != nil {
					return err
				}
				patch.Date = &date
			}
			if flags.Changed("notes") {
				patch.Notes = &f.notes
			}

			tx, err := a.be.Ledger.UpdateTransaction(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
	f.register(cmd)
	return cmd
}

func newTransactionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.be.Ledger.DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newTransactionListCmd(a *app) *cobra.Command {
	var (
		category string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.be.Ledger.Document(cmd.Context())
			if err != nil {
				return err
			}

			txs := make([]core.Transaction, 0, len(doc.Transactions))
			for _, tx := range doc.Transactions {
				if category == "" || tx.Category == category {
					txs = append(txs, tx)
				}
			}
			sort.SliceStable(txs, func(i, j int) bool {
				return txs[i].Timestamp.After(txs[j].Timestamp)
			})
			if limit > 0 && len(txs) > limit {
				txs = txs[:limit]
			}
			return printJSON(cmd.OutOrStdout(), txs)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list this category")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of transactions (0 for all)")
	return cmd
}
