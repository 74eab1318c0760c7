package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/logger"
)

var (
	configPath string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "sentinel",
	Short:         "MOEX instrument analysis with news and job-posting event signals",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log, err = logger.New(cfg.Log)
		if err != nil {
			return err
		}
		log.Debug().
			Str("config", configPath).
			Strs("universe", cfg.Universe).
			Bool("events", cfg.Events.Enabled).
			Bool("llm", cfg.Events.LLM.Enabled).
			Msg("configuration loaded")
		return nil
	},
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML config file")
	rootCmd.AddCommand(runCmd, eventsCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
