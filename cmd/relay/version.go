package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of relay",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relay version %s\n", strings.TrimSpace(relay.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
