package datagen

import (
	"fmt"
	"os"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
)

// SetupLogging logs to the console and, when logDir is set, to a rotated
// file under it.
func SetupLogging(logDir string) error {
	if err := logger.Init(logger.WithLogDir(logDir), logger.WithFileName("datagen.log")); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the datagen tool.
func ShowHelp() {
	os.Stdout.WriteString(`Engagement datagen
==================

Builds the synthetic dataset and trains the classifier artifacts.

Usage:
  go run ./cmd/datagen [options] <simulate|label|train|balance|all>

Commands:
  simulate   write simulated_profiles.json and peer_snapshot.json
  label      score every profile and write processed_fomo_dataset.csv
  train      fit model_resume.json and model_event.json into -models
  balance    print the label distribution of the dataset
  all        run every step in order

Options:
  -dir string
        Working directory for generated files (default ".")
  -models string
        Directory for trained artifacts (default "models")
  -profiles int
        Number of simulated students (default 2000)
  -snapshots int
        Number of simulated peer snapshots (default 10)
  -seed int
        Seed for simulation and labeling (default 1)
  -epochs int
        Gradient descent epochs (default 1000)
  -log string
        Directory for a rotated log file (default: console only)
  -help
        Show this help message

Examples:
  # Rebuild everything from scratch
  go run ./cmd/datagen all

  # Larger population, train only
  go run ./cmd/datagen -profiles 10000 simulate
  go run ./cmd/datagen label
  go run ./cmd/datagen train
`)
}
