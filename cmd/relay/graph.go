package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the graph of a system",
	Long:  `Builds the graph of a system, or of a pipeline file, and prints it as a Mermaid diagram (graph TD) or JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		system, _ := cmd.Flags().GetString("system")
		pipeline, _ := cmd.Flags().GetString("pipeline")
		format, _ := cmd.Flags().GetString("format")

		var opts []cli.AppOption
		if pipeline != "" {
			opts = append(opts, cli.WithPipelineFile(system, pipeline))
		}
		app, err := newApp(cmd, append(opts, cli.WithOffline())...)
		if err != nil {
			return err
		}
		defer app.Close()

		g, err := app.Manager.Graph(system)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(g.Describe())
		case "mermaid", "":
			fmt.Print(graph.GenerateMermaid(g.Describe(), nil))
			return nil
		default:
			return fmt.Errorf("unknown format %q (want mermaid or json)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("system", "s", "multi", "System to describe: multi or single")
	graphCmd.Flags().StringP("pipeline", "p", "", "Pipeline YAML replacing the built-in graph of the system")
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}
