package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	service "github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/app"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/config"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New(context.Background())
	cfg.ModelDir = t.TempDir()
	cfg.BatchWorkers = 2
	return cfg
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("INSIGHT_ADDR", ":8080")
		_ = os.Setenv("INSIGHT_BATCH_WORKERS", "4")
		defer func() {
			_ = os.Unsetenv("INSIGHT_ADDR")
			_ = os.Unsetenv("INSIGHT_BATCH_WORKERS")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.BatchWorkers, convey.ShouldEqual, 4)
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given a metrics config section", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Metrics.Namespace = "campus"
		cfg.Metrics.ConstLabels = map[string]string{"env": "test"}
		cfg.Metrics.RefreshIntervalSeconds = 2

		metrics.Init(metricsOptions(cfg)...)
		defer metrics.Init()

		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		h := newHandler(ctx, cfg, svc)

		metrics.RecordAnalysis("generated", 1)

		convey.Convey("Then /metrics uses the configured prefix and labels", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `campus_engagement_analyses_total{env="test",outcome="generated"} 1`)
			convey.So(w.Body.String(), convey.ShouldNotContainSubstring, "insight_engagement_analyses_total")
		})

		convey.Convey("And the refresh interval follows the config", func() {
			convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 2*time.Second)
		})
	})

	convey.Convey("Given metrics are disabled", t, func() {
		cfg := testConfig(t)
		cfg.Metrics.Enabled = false

		metrics.Init(metricsOptions(cfg)...)
		defer metrics.Init()
		metrics.RecordAnalysis("generated", 1)

		convey.Convey("Then nothing is recorded", func() {
			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			for _, mf := range families {
				if mf.GetName() == "insight_engagement_analyses_total" {
					convey.So(len(mf.GetMetric()), convey.ShouldEqual, 0)
				}
			}
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc)

		convey.Convey("Then API and docs routes are served", func() {
			for _, path := range []string{"/", "/health", "/version", "/stats", "/metrics", "/api-docs", "/openapi.yaml"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And analysis works end to end", func() {
			body := `{"user_data":{"user_id":"stu_1"},"peer_snapshot":{}}`
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze-engagement", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"status":"generated"`)
		})

		convey.Convey("And the metrics updater reads the stats without panicking", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a free port", t, func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := l.Addr().String()
		_ = l.Close()

		cfg := testConfig(t)
		cfg.Addr = addr

		convey.Convey("When run is cancelled after serving", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			var resp *http.Response
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + addr + "/health")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("timed out", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
