package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davicafu/gamehub/internal/config"
	"github.com/davicafu/gamehub/pkg/logger"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gamehub",
	Short: "Game catalog, purchases and the async game events pipeline",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Environment)
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "directory containing config.yaml")
	rootCmd.AddCommand(serveCmd, workerCmd)
}
