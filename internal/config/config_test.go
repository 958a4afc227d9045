package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.BatchWorkers, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.ProfileRules.ResumeThreshold, convey.ShouldEqual, 0.8)
			convey.So(cfg.ProfileRules.EventFomoThreshold, convey.ShouldEqual, 0.7)
			convey.So(cfg.EngagementRules.QuizInactiveDays, convey.ShouldEqual, 14)
			convey.So(cfg.MLRules.NudgeProbabilityThreshold, convey.ShouldEqual, 0.6)
			convey.So(cfg.PriorityLabels.Resume, convey.ShouldEqual, "high")
		})

		convey.Convey("And the defaults validate", func() {
			convey.So(cfg.Validate(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the resume threshold is given as a percentage", func() {
			cfg.ProfileRules.ResumeThreshold = 80

			convey.Convey("Then validation rejects the unit mismatch", func() {
				err := cfg.Validate(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "profile_rules.resume_threshold")
			})
		})

		convey.Convey("When a probability threshold is negative", func() {
			cfg.MLRules.NudgeProbabilityThreshold = -0.1

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(ctx), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a day threshold is negative", func() {
			cfg.EngagementRules.UserInactiveDays = -1

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(ctx).Error(), convey.ShouldContainSubstring, "user_inactive_days")
			})
		})

		convey.Convey("When a priority label is blank", func() {
			cfg.PriorityLabels.Quiz = " "

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(ctx).Error(), convey.ShouldContainSubstring, "priority_labels.quiz")
			})
		})

		convey.Convey("When a metrics prefix or label is not a valid name", func() {
			cfg.Metrics.Namespace = "insight-engine"
			cfg.Metrics.ConstLabels = map[string]string{"deploy env": "prod"}

			convey.Convey("Then both are reported", func() {
				err := cfg.Validate(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics.namespace")
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics.const_labels")
			})
		})

		convey.Convey("When latency buckets are out of order", func() {
			cfg.Metrics.LatencyBucketsMs = []float64{5, 1}

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(ctx).Error(), convey.ShouldContainSubstring, "latency_buckets_ms")
			})
		})

		convey.Convey("When thresholds sit on the boundaries", func() {
			cfg.ProfileRules.ResumeThreshold = 1
			cfg.ProfileRules.EventFomoThreshold = 0
			cfg.EngagementRules.BuddiesEventThreshold = 0

			convey.Convey("Then validation passes", func() {
				convey.So(cfg.Validate(ctx), convey.ShouldBeNil)
			})
		})
	})
}
