// Package service wires configuration, classifiers and the nudge pipeline
// into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/adapters/mq/queue"
	workerpool "github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/adapters/mq/worker"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/adapters/repository"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/config"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/nudge"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/rules"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/metrics"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/telemetry"
)

const stopTimeout = 10 * time.Second

// Model status values reported by GetStats.
const (
	ModelLoaded      = "loaded"
	ModelUnavailable = "unavailable"
)

// Service runs engagement analyses. Everything a request reads is built once
// in Start and never mutated afterwards.
type Service struct {
	mu sync.RWMutex

	cfg   *config.Config
	store repository.Store
	now   func() time.Time

	// Injected classifiers take precedence over the store.
	resume classifier.Classifier
	event  classifier.Classifier

	// Built by Start.
	assembler   *nudge.Assembler
	jobs        *queue.InMemoryQueue
	pool        *workerpool.Pool
	modelStatus map[string]string

	started bool

	analyses atomic.Int64
	batches  atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults come from config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore sets where classifier artifacts are loaded from.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClassifiers injects ready classifiers instead of loading artifacts.
func WithClassifiers(resume, event classifier.Classifier) Option {
	return func(s *Service) {
		s.resume = resume
		s.event = event
	}
}

// WithClock sets the time source used for recency calculations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		now:         time.Now,
		modelStatus: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}
	if s.store == nil {
		s.store = repository.NewFileStore(s.cfg.ModelDir,
			repository.WithFileName(classifier.ModelResume, s.cfg.ResumeModelFile),
			repository.WithFileName(classifier.ModelEvent, s.cfg.EventModelFile),
		)
	}
	return s
}

// Start loads the classifiers, builds the pipeline and starts the batch workers.
// A missing model artifact is logged and leaves that classifier unavailable.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting engagement service...")

	resume := s.classifierFor(ctx, classifier.ModelResume, s.resume)
	event := s.classifierFor(ctx, classifier.ModelEvent, s.event)

	s.assembler = nudge.NewAssembler(NewRuleEngine(s.cfg), resume, event,
		nudge.WithProbabilityThreshold(s.cfg.MLRules.NudgeProbabilityThreshold),
		nudge.WithClock(s.now),
	)

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.BatchQueueSize))
	s.pool = workerpool.NewPool(s.cfg.BatchWorkers, s.jobs, s.assembler)
	// Workers outlive the start-up context; Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "engagement service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.cfg.BatchQueueSize),
		logger.String("resumeModel", s.modelStatus[classifier.ModelResume]),
		logger.String("eventModel", s.modelStatus[classifier.ModelEvent]),
	)
	return nil
}

// classifierFor returns the injected classifier or loads one from the store,
// wrapped in a circuit breaker when it is usable.
func (s *Service) classifierFor(ctx context.Context, name string, injected classifier.Classifier) classifier.Classifier {
	c := injected
	if c == nil {
		loaded, err := repository.LoadClassifier(ctx, s.store, name)
		if err != nil {
			s.modelStatus[name] = ModelUnavailable
			s.logger.Warn(ctx, "classifier unavailable", logger.String("model", name), logger.Error(err))
			return loaded
		}
		c = loaded
	}
	s.modelStatus[name] = ModelLoaded

	b := s.cfg.Breaker
	return classifier.NewBreaker(c,
		classifier.WithMaxRequests(b.MaxRequests),
		classifier.WithInterval(time.Duration(b.IntervalSeconds)*time.Second),
		classifier.WithTimeout(time.Duration(b.TimeoutSeconds)*time.Second),
		classifier.WithTripPolicy(b.MinRequests, b.FailureRatio),
	)
}

// NewRuleEngine builds the rule engine from configuration.
func NewRuleEngine(cfg *config.Config) *rules.Engine {
	return rules.NewEngine(
		rules.Thresholds{
			ResumeFraction:   cfg.ProfileRules.ResumeThreshold,
			ProjectsAvg:      cfg.ProfileRules.ProjectsAvgThreshold,
			EventFomo:        cfg.ProfileRules.EventFomoThreshold,
			BuddiesEvent:     cfg.EngagementRules.BuddiesEventThreshold,
			EventPeer:        cfg.EngagementRules.EventPeerThreshold,
			QuizInactiveDays: cfg.EngagementRules.QuizInactiveDays,
			UserInactiveDays: cfg.EngagementRules.UserInactiveDays,
		},
		rules.Labels{
			Resume:    cfg.PriorityLabels.Resume,
			Project:   cfg.PriorityLabels.Project,
			EventFomo: cfg.PriorityLabels.EventFomo,
			Quiz:      cfg.PriorityLabels.Quiz,
			Comeback:  cfg.PriorityLabels.Comeback,
		},
	)
}

// Stop gracefully shuts down the service, letting queued batch jobs finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping engagement service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "engagement service stopped")
}

func (s *Service) pipeline() (*nudge.Assembler, *queue.InMemoryQueue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.assembler, s.jobs, nil
}

// Analyze produces the nudges for one student.
func (s *Service) Analyze(ctx context.Context, req model.EngagementRequest) (model.EngagementResult, error) {
	a, _, err := s.pipeline()
	if err != nil {
		return model.EngagementResult{}, err
	}
	s.analyses.Add(1)
	return a.Assemble(ctx, req.UserData, req.PeerSnapshot), nil
}

// AnalyzeBatch analyzes every request on the worker pool and returns the
// results in request order.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []model.EngagementRequest) ([]model.EngagementResult, error) {
	_, jobs, err := s.pipeline()
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if limit := s.cfg.MaxBatchSize; limit > 0 && len(reqs) > limit {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(reqs), limit)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "service.analyze_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(reqs))))
	defer span.End()

	batchID := uuid.NewString()
	span.SetAttributes(attribute.String("batch.id", batchID))
	reply := make(chan queue.Result, len(reqs))
	for i, r := range reqs {
		err := jobs.Enqueue(ctx, queue.Job{
			BatchID: batchID,
			Index:   i,
			User:    r.UserData,
			Peer:    r.PeerSnapshot,
			Trace:   span.SpanContext(),
			Reply:   reply,
		})
		if err != nil {
			s.logger.Warn(ctx, "batch rejected",
				logger.String("batch_id", batchID),
				logger.Int("accepted", i),
				logger.Int("size", len(reqs)),
				logger.Error(err),
			)
			if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
				return nil, fmt.Errorf("%w: %w", ErrOverloaded, err)
			}
			return nil, err
		}
	}

	s.batches.Add(1)
	s.analyses.Add(int64(len(reqs)))

	results := make([]model.EngagementResult, len(reqs))
	for range reqs {
		select {
		case r := <-reply:
			results[r.Index] = r.Result
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.logger.Info(ctx, "batch analyzed", logger.String("batch_id", batchID), logger.Int("size", len(reqs)))
	return results, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"analyses":     s.analyses.Load(),
		"batches":      s.batches.Load(),
		"maxBatchSize": s.cfg.MaxBatchSize,
		"queueSize":    s.cfg.BatchQueueSize,
	}

	if s.started {
		stats["workerCount"] = s.pool.Size()
		stats["queueLength"] = s.jobs.Len()
		stats["batchJobsProcessed"] = s.pool.Processed()
		models := make(map[string]string, len(s.modelStatus))
		for k, v := range s.modelStatus {
			models[k] = v
		}
		stats["models"] = models
		metrics.UpdateBatchWorkerCount(s.pool.Size())
	}
	return stats
}
