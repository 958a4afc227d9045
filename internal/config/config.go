// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`) //nolint:gochecknoglobals // compiled once

// ProfileRules holds thresholds for the profile-completion rules.
type ProfileRules struct {
	// ResumeThreshold is a fraction in [0,1]; the resume rule compares the
	// peer upload percentage against ResumeThreshold*100.
	ResumeThreshold float64 `koanf:"resume_threshold"`

	// ProjectsAvgThreshold is the minimum batch average of projects that makes
	// an empty project list worth a nudge.
	ProjectsAvgThreshold float64 `koanf:"projects_avg_threshold"`

	// EventFomoThreshold is compared against the [0,1] FOMO score.
	EventFomoThreshold float64 `koanf:"event_fomo_threshold"`
}

// EngagementRules holds thresholds for the participation rules.
type EngagementRules struct {
	BuddiesEventThreshold int `koanf:"buddies_event_threshold"`
	EventPeerThreshold    int `koanf:"event_peer_threshold"`
	QuizInactiveDays      int `koanf:"quiz_inactive_days"`
	UserInactiveDays      int `koanf:"user_inactive_days"`
}

// MLRules holds the classifier fallback settings.
type MLRules struct {
	// NudgeProbabilityThreshold is the minimum classifier probability that
	// produces a nudge.
	NudgeProbabilityThreshold float64 `koanf:"nudge_probability_threshold"`
}

// PriorityLabels maps rule categories to the priority label put on nudges.
type PriorityLabels struct {
	Resume    string `koanf:"resume"`
	Project   string `koanf:"project"`
	EventFomo string `koanf:"event_fomo"`
	Quiz      string `koanf:"quiz"`
	Comeback  string `koanf:"comeback"`
}

// Breaker configures the circuit breaker wrapped around each classifier.
type Breaker struct {
	MaxRequests     uint32  `koanf:"max_requests"`
	IntervalSeconds int     `koanf:"interval_seconds"`
	TimeoutSeconds  int     `koanf:"timeout_seconds"`
	MinRequests     uint32  `koanf:"min_requests"`
	FailureRatio    float64 `koanf:"failure_ratio"`
}

// Metrics configures the Prometheus metrics exposed on /metrics.
type Metrics struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`

	// ConstLabels are attached to every series, e.g. {"env": "prod"}.
	ConstLabels map[string]string `koanf:"const_labels"`

	// LatencyBucketsMs overrides the latency histogram buckets.
	LatencyBucketsMs []float64 `koanf:"latency_buckets_ms"`

	// RefreshIntervalSeconds is how often gauges derived from service stats
	// are refreshed.
	RefreshIntervalSeconds int `koanf:"refresh_interval_seconds"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogDir enables a rotated log file when non-empty.
	LogDir string `koanf:"log_dir"`

	// LogMaxAgeDays bounds how long rotated log files are kept.
	LogMaxAgeDays int `koanf:"log_max_age_days"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimitRPS caps analysis requests per client IP per second; 0 disables.
	RateLimitRPS int `koanf:"rate_limit_rps"`

	// BatchWorkers sets the number of batch analysis workers.
	BatchWorkers int `koanf:"batch_workers"`

	// BatchQueueSize bounds the in-memory batch job queue.
	BatchQueueSize int `koanf:"batch_queue_size"`

	// MaxBatchSize caps the number of items in one batch request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// ModelDir holds the classifier artifacts.
	ModelDir        string `koanf:"model_dir"`
	ResumeModelFile string `koanf:"resume_model_file"`
	EventModelFile  string `koanf:"event_model_file"`

	// OTelEndpoint enables OTLP trace export when non-empty.
	OTelEndpoint string `koanf:"otel_endpoint"`

	ProfileRules    ProfileRules    `koanf:"profile_rules"`
	EngagementRules EngagementRules `koanf:"engagement_rules"`
	MLRules         MLRules         `koanf:"ml_rules"`
	PriorityLabels  PriorityLabels  `koanf:"priority_labels"`
	Breaker         Breaker         `koanf:"breaker"`
	Metrics         Metrics         `koanf:"metrics"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogDir:             "",
		LogMaxAgeDays:      7,
		Addr:               ":8000",
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       50,
		BatchWorkers:       runtime.NumCPU() * 2,
		BatchQueueSize:     10_000,
		MaxBatchSize:       500,
		ModelDir:           "models",
		ResumeModelFile:    "model_resume.json",
		EventModelFile:     "model_event.json",
		ProfileRules: ProfileRules{
			ResumeThreshold:      0.8,
			ProjectsAvgThreshold: 1.0,
			EventFomoThreshold:   0.7,
		},
		EngagementRules: EngagementRules{
			BuddiesEventThreshold: 2,
			EventPeerThreshold:    8,
			QuizInactiveDays:      14,
			UserInactiveDays:      21,
		},
		MLRules: MLRules{
			NudgeProbabilityThreshold: 0.6,
		},
		PriorityLabels: PriorityLabels{
			Resume:    "high",
			Project:   "medium",
			EventFomo: "high",
			Quiz:      "medium",
			Comeback:  "medium",
		},
		Breaker: Breaker{
			MaxRequests:     3,
			IntervalSeconds: 60,
			TimeoutSeconds:  30,
			MinRequests:     10,
			FailureRatio:    0.6,
		},
		Metrics: Metrics{
			Enabled:                true,
			Namespace:              "insight",
			Subsystem:              "engagement",
			RefreshIntervalSeconds: 5,
		},
	}
}

// Validate checks threshold units and required values. All fractions must
// lie in [0,1] so that they are comparable with the values they gate.
func (c *Config) Validate(_ context.Context) error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr must not be empty")
	}
	fractions := map[string]float64{
		"profile_rules.resume_threshold":       c.ProfileRules.ResumeThreshold,
		"profile_rules.event_fomo_threshold":   c.ProfileRules.EventFomoThreshold,
		"ml_rules.nudge_probability_threshold": c.MLRules.NudgeProbabilityThreshold,
		"breaker.failure_ratio":                c.Breaker.FailureRatio,
	}
	for _, key := range sortedKeys(fractions) {
		if v := fractions[key]; v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be within [0,1], got %v", key, v))
		}
	}
	if c.ProfileRules.ProjectsAvgThreshold < 0 {
		problems = append(problems, "profile_rules.projects_avg_threshold must not be negative")
	}
	counts := map[string]int{
		"engagement_rules.buddies_event_threshold": c.EngagementRules.BuddiesEventThreshold,
		"engagement_rules.event_peer_threshold":    c.EngagementRules.EventPeerThreshold,
		"engagement_rules.quiz_inactive_days":      c.EngagementRules.QuizInactiveDays,
		"engagement_rules.user_inactive_days":      c.EngagementRules.UserInactiveDays,
	}
	for _, key := range sortedKeys(counts) {
		if counts[key] < 0 {
			problems = append(problems, key+" must not be negative")
		}
	}
	labels := map[string]string{
		"priority_labels.resume":     c.PriorityLabels.Resume,
		"priority_labels.project":    c.PriorityLabels.Project,
		"priority_labels.event_fomo": c.PriorityLabels.EventFomo,
		"priority_labels.quiz":       c.PriorityLabels.Quiz,
		"priority_labels.comeback":   c.PriorityLabels.Comeback,
	}
	for _, key := range sortedKeys(labels) {
		if strings.TrimSpace(labels[key]) == "" {
			problems = append(problems, key+" must not be empty")
		}
	}
	for key, name := range map[string]string{"metrics.namespace": c.Metrics.Namespace, "metrics.subsystem": c.Metrics.Subsystem} {
		if name != "" && !metricNamePattern.MatchString(name) {
			problems = append(problems, fmt.Sprintf("%s %q is not a valid metric name prefix", key, name))
		}
	}
	for label := range c.Metrics.ConstLabels {
		if !metricNamePattern.MatchString(label) {
			problems = append(problems, fmt.Sprintf("metrics.const_labels key %q is not a valid label name", label))
		}
	}
	if c.Metrics.RefreshIntervalSeconds < 0 {
		problems = append(problems, "metrics.refresh_interval_seconds must not be negative")
	}
	if !sort.Float64sAreSorted(c.Metrics.LatencyBucketsMs) {
		problems = append(problems, "metrics.latency_buckets_ms must be in increasing order")
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
