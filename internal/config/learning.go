package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	// EnvLearningMaxSnapshotSize overrides the maximum model snapshot size.
	EnvLearningMaxSnapshotSize = "LEARNING_MAX_SNAPSHOT_SIZE"

	// EnvLearningMaxTrainingRecords overrides the maximum training data
	// records accepted per session.
	EnvLearningMaxTrainingRecords = "LEARNING_MAX_TRAINING_RECORDS"
)

// LearningConfig contains limits for learning session payloads.
type LearningConfig struct {
	MaxSnapshotSize    string `toml:"max_snapshot_size"`
	MaxTrainingRecords int    `toml:"max_training_records"`
}

// MaxSnapshotSizeBytes parses the human-readable snapshot size limit,
// e.g. "64MiB".
func (c *LearningConfig) MaxSnapshotSizeBytes() int64 {
	n, _ := units.RAMInBytes(c.MaxSnapshotSize)
	return n
}

// Finalize applies defaults, loads environment overrides, and validates the
// learning configuration.
func (c *LearningConfig) Finalize() error {
	if c.MaxSnapshotSize == "" {
		c.MaxSnapshotSize = "64MiB"
	}
	if c.MaxTrainingRecords == 0 {
		c.MaxTrainingRecords = 10000
	}
	c.loadEnv()
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *LearningConfig) Merge(overlay *LearningConfig) {
	if overlay.MaxSnapshotSize != "" {
		c.MaxSnapshotSize = overlay.MaxSnapshotSize
	}
	if overlay.MaxTrainingRecords != 0 {
		c.MaxTrainingRecords = overlay.MaxTrainingRecords
	}
}

func (c *LearningConfig) loadEnv() {
	if v := os.Getenv(EnvLearningMaxSnapshotSize); v != "" {
		c.MaxSnapshotSize = v
	}
	if v := os.Getenv(EnvLearningMaxTrainingRecords); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.MaxTrainingRecords = n
		}
	}
}

func (c *LearningConfig) validate() error {
	if _, err := units.RAMInBytes(c.MaxSnapshotSize); err != nil {
		return fmt.Errorf("invalid max_snapshot_size: %w", err)
	}
	if c.MaxTrainingRecords < 1 {
		return fmt.Errorf("max_training_records must be positive")
	}
	return nil
}
