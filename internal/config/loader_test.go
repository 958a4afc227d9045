package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.ProfileRules.ResumeThreshold, convey.ShouldEqual, 0.8)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("INSIGHT_ADDR", ":8080")
			_ = os.Setenv("INSIGHT_BATCH_WORKERS", "16")
			_ = os.Setenv("INSIGHT_PROFILE_RULES__RESUME_THRESHOLD", "0.9")
			_ = os.Setenv("INSIGHT_ENGAGEMENT_RULES__QUIZ_INACTIVE_DAYS", "30")
			_ = os.Setenv("INSIGHT_PRIORITY_LABELS__QUIZ", "low")
			_ = os.Setenv("INSIGHT_CORS_ALLOWED_ORIGINS", "https://campus.example, https://admin.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults including nested keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BatchWorkers, convey.ShouldEqual, 16)
				convey.So(cfg.ProfileRules.ResumeThreshold, convey.ShouldEqual, 0.9)
				convey.So(cfg.EngagementRules.QuizInactiveDays, convey.ShouldEqual, 30)
				convey.So(cfg.PriorityLabels.Quiz, convey.ShouldEqual, "low")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://campus.example", "https://admin.example"})
			})

			convey.Convey("And untouched nested keys keep their defaults", func() {
				convey.So(cfg.ProfileRules.EventFomoThreshold, convey.ShouldEqual, 0.7)
				convey.So(cfg.PriorityLabels.Resume, convey.ShouldEqual, "high")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
batch_workers: 24
profile_rules:
  resume_threshold: 0.75
  projects_avg_threshold: 2
engagement_rules:
  buddies_event_threshold: 3
ml_rules:
  nudge_probability_threshold: 0.5
priority_labels:
  comeback: high
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("INSIGHT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BatchWorkers, convey.ShouldEqual, 24)
				convey.So(cfg.ProfileRules.ResumeThreshold, convey.ShouldEqual, 0.75)
				convey.So(cfg.ProfileRules.ProjectsAvgThreshold, convey.ShouldEqual, 2)
				convey.So(cfg.EngagementRules.BuddiesEventThreshold, convey.ShouldEqual, 3)
				convey.So(cfg.MLRules.NudgeProbabilityThreshold, convey.ShouldEqual, 0.5)
				convey.So(cfg.PriorityLabels.Comeback, convey.ShouldEqual, "high")
				convey.So(cfg.PriorityLabels.Resume, convey.ShouldEqual, "high") // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\nbatch_workers: 24\n")
			_ = os.Setenv("INSIGHT_CONFIG", tmpFile)
			_ = os.Setenv("INSIGHT_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")   // Overridden by env
				convey.So(cfg.BatchWorkers, convey.ShouldEqual, 24) // From file
			})
		})

		convey.Convey("When a .env file supplies values", func() {
			dir := t.TempDir()
			dotenv := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(dotenv, []byte("INSIGHT_LOG_LEVEL=debug\nINSIGHT_ML_RULES__NUDGE_PROBABILITY_THRESHOLD=0.4\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("INSIGHT_DOTENV", dotenv)

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are applied like environment variables", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.MLRules.NudgeProbabilityThreshold, convey.ShouldEqual, 0.4)
			})
		})

		convey.Convey("When the named .env file does not exist", func() {
			_ = os.Setenv("INSIGHT_DOTENV", "/non/existent/.env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("INSIGHT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("INSIGHT_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("INSIGHT_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("INSIGHT_BATCH_WORKERS", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a threshold from the environment is out of range", func() {
			_ = os.Setenv("INSIGHT_PROFILE_RULES__EVENT_FOMO_THRESHOLD", "70")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if name := kv[:i]; len(name) >= len(config.EnvPrefix) && name[:len(config.EnvPrefix)] == config.EnvPrefix {
					_ = os.Unsetenv(name)
				}
				break
			}
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insight-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
