package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/presentation/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := newApp(cmd, cli.WithOffline())
		if err != nil {
			return err
		}
		defer app.Close()

		runs, err := app.Manager.History(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}
		fmt.Println(tui.HistoryTable(runs))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the report of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, cli.WithOffline())
		if err != nil {
			return err
		}
		defer app.Close()

		rec, err := app.Manager.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		body := rec.Report
		if body == "" {
			body = rec.Summary
		}
		if rendered, err := tui.For(os.Stdout)(body); err == nil {
			body = rendered
		}
		fmt.Println(body)
		fmt.Fprintln(os.Stderr, tui.Summary(rec, false))
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>...",
	Short: "Delete recorded runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, cli.WithOffline())
		if err != nil {
			return err
		}
		defer app.Close()

		for _, id := range args {
			if err := app.Manager.Forget(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf(">>> Deleted run %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to list (0 for all)")
	historyCmd.Flags().Bool("json", false, "Print records as JSON")
}
