package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "relay",
	Short:         "Relay runs agent pipelines over a shared state graph",
	Long:          `Relay drives multi-agent research pipelines and single-agent assistants, keeps a history of their runs and serves them over HTTP and MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./relay.yaml or $XDG_CONFIG_HOME/relay/relay.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("offline", false, "Use the deterministic offline generator")
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newApp loads the configuration and wires an App for cmd.
func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, appOptions(cmd, opts...)...)
}

// appOptions appends the options implied by the persistent flags.
func appOptions(cmd *cobra.Command, opts ...cli.AppOption) []cli.AppOption {
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		opts = append(opts, cli.WithOffline())
	}
	return opts
}
