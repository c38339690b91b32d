package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/presentation/tui"
	"github.com/aretw0/relay/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run a system for a task",
	Long: `Runs the multi-agent research pipeline (default) or the single-agent assistant
for a task, prints the report and records the run in the history.`,
	Example: `  relay run "Latest developments in AI agents"
  relay run -s single "Summarize this week's AI news"
  relay run -p examples/pipelines/research.yaml -o reports/ "Weekly roundup"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		system, _ := cmd.Flags().GetString("system")
		pipeline, _ := cmd.Flags().GetString("pipeline")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		showGraph, _ := cmd.Flags().GetBool("graph")
		quiet, _ := cmd.Flags().GetBool("quiet")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("system") && cfg.Pipeline.System != "" {
			system = cfg.Pipeline.System
		}
		if cmd.Flags().Changed("sentiment") {
			cfg.Pipeline.Sentiment, _ = cmd.Flags().GetBool("sentiment")
		}
		if cmd.Flags().Changed("edit") {
			cfg.Pipeline.Edit, _ = cmd.Flags().GetBool("edit")
		}

		var opts []cli.AppOption
		if pipeline != "" {
			opts = append(opts, cli.WithPipelineFile(system, pipeline))
		}
		app, err := cli.NewApp(cfg, appOptions(cmd, opts...)...)
		if err != nil {
			return err
		}
		defer app.Close()

		task := strings.TrimSpace(strings.Join(args, " "))
		if task == "" {
			return session.ErrEmptyTask
		}

		render := tui.Plain
		if format == cli.FormatMarkdown && tui.IsTerminal(os.Stdout) {
			render = tui.For(os.Stdout)
			if !quiet {
				tui.PrintBanner(os.Stderr)
			}
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err = cli.Execute(ctx, app, cli.RunOptions{
			System: system,
			Task:   task,
			Format: format,
			Output: output,
			Graph:  showGraph,
			Quiet:  quiet,
		}, cli.Printer{Out: os.Stdout, Err: os.Stderr, Render: render})
		if errors.Is(err, cli.ErrRunFailed) {
			fmt.Fprintln(os.Stderr, ">>> Run did not complete.")
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("system", "s", "multi", "System to run: multi or single")
	runCmd.Flags().StringP("pipeline", "p", "", "Pipeline YAML replacing the built-in graph of the system")
	runCmd.Flags().StringP("format", "f", cli.FormatMarkdown, "Output format: markdown, json or yaml")
	runCmd.Flags().StringP("output", "o", "", "Save the report to this file or directory")
	runCmd.Flags().Bool("graph", false, "Append a Mermaid chart of the path taken")
	runCmd.Flags().BoolP("quiet", "q", false, "Print the report only")
	runCmd.Flags().Bool("sentiment", false, "Add the sentiment stage to the research pipeline")
	runCmd.Flags().Bool("edit", false, "Add the editing pass to the research pipeline")
}
