package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/datagen"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
)

func main() {
	def := datagen.DefaultConfig()
	var (
		dir       = flag.String("dir", def.Dir, "Working directory for generated files")
		modelDir  = flag.String("models", def.ModelDir, "Directory for trained artifacts")
		profiles  = flag.Int("profiles", def.Profiles, "Number of simulated students")
		snapshots = flag.Int("snapshots", def.Snapshots, "Number of simulated peer snapshots")
		seed      = flag.Int64("seed", def.Seed, "Seed for simulation and labeling")
		epochs    = flag.Int("epochs", def.Epochs, "Gradient descent epochs")
		logDir    = flag.String("log", "", "Directory for a rotated log file")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || flag.NArg() != 1 {
		datagen.ShowHelp()
		return
	}

	if err := datagen.SetupLogging(*logDir); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := def
	cfg.Dir = *dir
	cfg.ModelDir = *modelDir
	cfg.Profiles = *profiles
	cfg.Snapshots = *snapshots
	cfg.Seed = *seed
	cfg.Epochs = *epochs

	if err := datagen.Run(ctx, cfg, flag.Arg(0)); err != nil {
		logger.Get().Error(ctx, "datagen failed", logger.String("command", flag.Arg(0)), logger.Error(err))
		os.Exit(1)
	}
}
