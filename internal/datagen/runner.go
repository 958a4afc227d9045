package datagen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/adapters/repository"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
)

// Commands accepted by Run.
const (
	CmdSimulate = "simulate"
	CmdLabel    = "label"
	CmdTrain    = "train"
	CmdBalance  = "balance"
	CmdAll      = "all"
)

const filePermission = 0o600

// ErrUnknownCommand is returned for a command Run does not know.
var ErrUnknownCommand = errors.New("unknown command")

// Run executes one command. "all" runs simulate, label, train and balance
// in order.
func Run(ctx context.Context, cfg Config, command string) error {
	switch command {
	case CmdSimulate:
		return simulate(ctx, cfg)
	case CmdLabel:
		return label(ctx, cfg)
	case CmdTrain:
		_, err := TrainModels(ctx, cfg)
		return err
	case CmdBalance:
		return balance(ctx, cfg)
	case CmdAll:
		for _, step := range []string{CmdSimulate, CmdLabel, CmdTrain, CmdBalance} {
			if err := Run(ctx, cfg, step); err != nil {
				return fmt.Errorf("%s: %w", step, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func simulate(ctx context.Context, cfg Config) error {
	sim := NewSimulator(cfg.Seed, cfg.Now)
	profiles := sim.Profiles(cfg.Profiles)
	snapshots := sim.Snapshots(cfg.Snapshots)

	if err := writeJSON(filepath.Join(cfg.Dir, ProfilesFile), profiles); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(cfg.Dir, SnapshotsFile), snapshots); err != nil {
		return err
	}
	logger.Get().Info(ctx, "simulated dataset written",
		logger.Int("profiles", len(profiles)),
		logger.Int("snapshots", len(snapshots)),
		logger.String("dir", cfg.Dir),
	)
	return nil
}

func label(ctx context.Context, cfg Config) error {
	var profiles []model.UserData
	if err := readJSON(filepath.Join(cfg.Dir, ProfilesFile), &profiles); err != nil {
		return err
	}
	var snapshots []model.PeerSnapshot
	if err := readJSON(filepath.Join(cfg.Dir, SnapshotsFile), &snapshots); err != nil {
		return err
	}

	records, err := Label(cfg.Seed, profiles, snapshots, cfg.Now)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(cfg.Dir, DatasetFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := WriteCSV(f, records); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	resume, event := Balance(records)
	logger.Get().Info(ctx, "training dataset written",
		logger.String("file", DatasetFile),
		logger.Int("rows", len(records)),
		logger.Int(LabelResume, resume.Positive),
		logger.Int(LabelEvent, event.Positive),
	)
	return nil
}

// TrainModels trains both classifiers from the dataset and saves their
// artifacts into cfg.ModelDir.
func TrainModels(ctx context.Context, cfg Config) (map[string]TrainResult, error) {
	records, err := readDataset(cfg)
	if err != nil {
		return nil, err
	}

	store := repository.NewFileStore(cfg.ModelDir)
	models := []struct {
		name     string
		features []string
		target   Target
	}{
		{classifier.ModelResume, classifier.ResumeFeatureNames, ResumeTarget},
		{classifier.ModelEvent, classifier.EventFeatureNames, EventTarget},
	}

	out := make(map[string]TrainResult, len(models))
	for _, m := range models {
		res, err := Train(records, m.features, m.target, cfg)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", m.name, err)
		}
		if err := store.Save(ctx, m.name, res.Artifact); err != nil {
			return nil, err
		}
		path, _ := store.Path(m.name)
		logger.Get().Info(ctx, "model trained",
			logger.String("model", m.name),
			logger.String("path", path),
			logger.Float64("trainAccuracy", res.TrainAccuracy),
			logger.Float64("testAccuracy", res.TestAccuracy),
		)
		out[m.name] = res
	}
	return out, nil
}

func balance(ctx context.Context, cfg Config) error {
	records, err := readDataset(cfg)
	if err != nil {
		return err
	}
	resume, event := Balance(records)
	for _, c := range []LabelCounts{resume, event} {
		logger.Get().Info(ctx, "label distribution",
			logger.String("label", c.Label),
			logger.Int("yes", c.Positive),
			logger.Int("no", c.Negative),
			logger.Float64("yesPct", c.PositivePct()),
			logger.Float64("noPct", c.NegativePct()),
		)
	}
	return nil
}

func readDataset(cfg Config) ([]Record, error) {
	f, err := os.Open(filepath.Join(cfg.Dir, DatasetFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
