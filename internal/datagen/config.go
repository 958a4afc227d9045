// Package datagen produces synthetic students, labels them and trains the
// classifier artifacts the service loads at start.
package datagen

import "time"

// Default file names, relative to Config.Dir.
const (
	ProfilesFile  = "simulated_profiles.json"
	SnapshotsFile = "peer_snapshot.json"
	DatasetFile   = "processed_fomo_dataset.csv"
)

// Config holds the settings of every datagen command.
type Config struct {
	Dir       string    // working directory for generated files
	ModelDir  string    // where trained artifacts are written
	Profiles  int       // number of simulated students
	Snapshots int       // number of simulated peer snapshots
	Seed      int64     // seed for simulation and labeling
	Now       time.Time // reference date for simulated activity and recency

	// Training settings.
	SplitSeed    int64
	TestFraction float64
	Epochs       int
	LearningRate float64
}

// DefaultConfig returns the settings used when flags are not given.
func DefaultConfig() Config {
	return Config{
		Dir:          ".",
		ModelDir:     "models",
		Profiles:     2000,
		Snapshots:    10,
		Seed:         1,
		Now:          time.Now(),
		SplitSeed:    42,
		TestFraction: 0.2,
		Epochs:       1000,
		LearningRate: 0.1,
	}
}
