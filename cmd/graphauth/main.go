package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "graphauth",
	Short:         "Acquire access tokens for a graph API through a configured issuer",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("output", "text")
	v.SetDefault("limit", 20)

	// Environment variables support: GRAPHAUTH_CONFIG, ...
	v.SetEnvPrefix("GRAPHAUTH")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml (empty = defaults and GRAPHAUTH_* env)")
	rootCmd.PersistentFlags().Duration("timeout", v.GetDuration("timeout"), "time allowed for provider initialization")
	statusCmd.Flags().StringP("output", "o", v.GetString("output"), "output format: text, json or yaml")
	historyCmd.Flags().StringP("output", "o", v.GetString("output"), "output format: text, json or yaml")
	historyCmd.Flags().Int("limit", v.GetInt("limit"), "number of events to show (0 = all)")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("limit", historyCmd.Flags().Lookup("limit"))

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
