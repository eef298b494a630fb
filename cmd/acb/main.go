package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	app "github.com/valter-silva-au/ai-curious-brain/internal"
	"github.com/valter-silva-au/ai-curious-brain/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	logCfg := zap.NewProductionConfig()
	logCfg.Level = cli.LogLevel
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}

	a, err := app.NewApp(basePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing acb: %v\n", err)
		os.Exit(1)
	}

	execErr := cli.Execute()
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
		if execErr == nil {
			execErr = err
		}
	}
	_ = logger.Sync()

	if execErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", execErr)
		os.Exit(1)
	}
}
