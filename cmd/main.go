package main

import (
	"context"
	"errors"
	"os"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "norae",
		Usage:    "Track karaoke practice recordings, rate takes and build playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrRecorderUnavailable) {
			logger.Warn("recording not available on this system")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
