// Command socialgate runs the social login gateway and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dropDatabas3/socialgate/internal/config"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var configPath string
	root := &cobra.Command{
		Use:           "socialgate",
		Short:         "Social login gateway for Kakao, Naver, Google and Apple",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", envOr("SOCIALGATE_CONFIG", "configs/config.yaml"), "Path to YAML config (env SOCIALGATE_CONFIG)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if cfg.App.Version == "" {
			cfg.App.Version = version
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.App.LogLevel,
			ServiceName: "socialgate",
			Version:     cfg.App.Version,
		})
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newTokenCmd(),
		newKeysCmd(),
		newSeedCmd(load),
	)

	err := root.ExecuteContext(context.Background())
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type loadFunc func() (*config.Config, error)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
