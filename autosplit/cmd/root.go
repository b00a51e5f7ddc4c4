// Package cmd provides the command-line interface of the autosplitter.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sarchlab/autosplit/config"
)

var (
	cfgFile  string
	envFiles []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autosplit",
	Short: "Autosplit watches a running game and drives a LiveSplit timer.",
	Long: `Autosplit reads a few values from the memory of a running game, ` +
		`and starts, splits and pauses game time on a LiveSplit timer ` +
		`through the LiveSplit Server component.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default is ./autosplit.yaml or "+config.ConfigDir()+"/autosplit.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		"environment files to load before reading the configuration (default .env)")
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads .env files, the config file and the environment.
func loadConfig(cmd *cobra.Command) (*viper.Viper, *config.Config, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, nil, err
	}

	v, err := config.New(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if f := cmd.Flags().Lookup("slow-pc"); f != nil {
		if err := v.BindPFlag("slow_pc_mode", f); err != nil {
			return nil, nil, err
		}
	}

	if f := cmd.Flags().Lookup("game-version"); f != nil {
		if err := v.BindPFlag("version", f); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	return v, cfg, nil
}
