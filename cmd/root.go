package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"settler/logx"
)

var (
	configPath  string
	runtimePath string
)

var rootCmd = &cobra.Command{
	Use:   "settler",
	Short: "Ledger settlement engine CLI",
	Long:  "Command line interface for running and inspecting the ledger settlement engine.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "engine.yml", "path to engine config file")
	rootCmd.PersistentFlags().StringVar(&runtimePath, "runtime", "", "path to runtime tuning ini file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
