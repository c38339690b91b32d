package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <pipeline.yaml>...",
	Short: "Check pipeline files for consistency",
	Long:  `Compiles each pipeline file and reports dangling routes, invalid entries and unreachable stages.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			v, err := cli.ValidatePipeline(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				failed++
				continue
			}
			for _, id := range v.Unreachable {
				fmt.Fprintf(os.Stderr, "%s: warning: stage %q is unreachable from %q\n", path, id, v.Pipeline.Graph.Entry())
			}
			fmt.Printf("%s: pipeline %q is valid! ✅\n", path, v.Pipeline.Name)
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d pipelines", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
