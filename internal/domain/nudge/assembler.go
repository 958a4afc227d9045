// Package nudge assembles the final nudge list from rules, classifiers and
// filler.
package nudge

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/rules"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/metrics"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/telemetry"
)

// MaxNudges caps the number of nudges in a result.
const MaxNudges = 3

// Nudge sources used in logs and metrics.
const (
	SourceRule     = "rule"
	SourceModel    = "model"
	SourceFiller   = "filler"
	SourceFallback = "fallback"
)

// Analysis outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
)

// Stage is a step of the assembly state machine.
type Stage string

// Stages in the order they are visited.
const (
	StageRulesPending    Stage = "rules_pending"
	StageRulesDone       Stage = "rules_done"
	StageMLResumePending Stage = "ml_resume_pending"
	StageMLEventPending  Stage = "ml_event_pending"
	StageFillerPending   Stage = "filler_pending"
	StageFinalized       Stage = "finalized"
)

// Fixed nudges.
var (
	ResumeModelNudge = model.Nudge{ //nolint:gochecknoglobals // fixed text
		Type:     model.NudgeProfile,
		Title:    "AI thinks uploading your resume could boost your visibility!",
		Action:   "Update your profile with a resume.",
		Priority: model.PriorityMedium,
	}
	EventModelNudge = model.Nudge{ //nolint:gochecknoglobals // fixed text
		Type:     model.NudgeEvent,
		Title:    "AI suggests you may benefit from attending events!",
		Action:   "Look out for upcoming events to join.",
		Priority: model.PriorityMedium,
	}
	FillerNudge = model.Nudge{ //nolint:gochecknoglobals // fixed text
		Type:     model.NudgeProfile,
		Title:    "Stay active to grow your presence!",
		Action:   "Explore community features and attend events.",
		Priority: model.PriorityLow,
	}
	FallbackNudge = model.Nudge{ //nolint:gochecknoglobals // fixed text
		Type:     model.NudgeProfile,
		Title:    "We encountered an error analyzing your engagement.",
		Action:   "Please try again later or contact support.",
		Priority: model.PriorityLow,
	}
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock injects the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithProbabilityThreshold sets the minimum classifier probability that
// yields a nudge.
func WithProbabilityThreshold(p float64) Option {
	return func(a *Assembler) {
		a.threshold = p
	}
}

// Assembler runs rules, then classifiers, then filler until MaxNudges
// nudges exist. It holds no per-request state and is safe for concurrent use.
type Assembler struct {
	engine    *rules.Engine
	resume    classifier.Classifier
	event     classifier.Classifier
	threshold float64
	now       func() time.Time
	log       logger.Logger
	tracer    trace.Tracer
}

const defaultProbabilityThreshold = 0.6

// NewAssembler creates an assembler. Nil classifiers are skipped.
func NewAssembler(engine *rules.Engine, resume, event classifier.Classifier, opts ...Option) *Assembler {
	a := &Assembler{
		engine:    engine,
		resume:    resume,
		event:     event,
		threshold: defaultProbabilityThreshold,
		now:       time.Now,
		log:       logger.Get().Named("nudge"),
		tracer:    telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble produces the nudges for one student. It never fails: any panic
// is turned into a single fallback nudge.
func (a *Assembler) Assemble(ctx context.Context, user model.UserData, peer model.PeerSnapshot) (res model.EngagementResult) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "nudge.assemble", trace.WithAttributes(attribute.String("user.id", user.UserID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error(ctx, "engagement analysis failed",
				logger.String("user_id", user.UserID),
				logger.Any("panic", r),
			)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			metrics.RecordPipelineFallback()
			metrics.RecordNudge(SourceFallback, string(FallbackNudge.Type))
			metrics.RecordAnalysis(OutcomeFallback, msSince(start))
			res = Fallback(user.UserID)
		}
	}()

	a.log.Info(ctx, "analyzing engagement", logger.String("user_id", user.UserID))

	r := &run{in: rules.NewInput(user, peer, a.now())}
	metrics.ObserveFomoScore(r.in.Fomo.Score)
	for stage := StageRulesPending; stage != StageFinalized; {
		stage = a.step(ctx, stage, r)
	}
	nudges, sources := r.nudges, r.sources
	if len(nudges) > MaxNudges {
		nudges, sources = nudges[:MaxNudges], sources[:MaxNudges]
	}
	for i, n := range nudges {
		metrics.RecordNudge(sources[i], string(n.Type))
	}

	span.SetAttributes(attribute.Int("nudges.count", len(nudges)))
	metrics.RecordAnalysis(OutcomeGenerated, msSince(start))
	return model.EngagementResult{UserID: user.UserID, Nudges: nudges, Status: model.StatusGenerated}
}

// run is the state of one assembly.
type run struct {
	in      rules.Input
	nudges  []model.Nudge
	sources []string
}

// step performs one state transition. Every transition after the rules is
// gated only by the nudge count.
func (a *Assembler) step(ctx context.Context, stage Stage, r *run) Stage {
	user, peer := r.in.User, r.in.Peer
	switch stage {
	case StageRulesPending:
		for _, n := range a.runRules(ctx, r.in) {
			r.push(SourceRule, n)
		}
		return StageRulesDone

	case StageRulesDone:
		return a.next(StageMLResumePending, r)

	case StageMLResumePending:
		r.add(a.predict(ctx, a.resume, classifier.ResumeFeatures(user, peer)), ResumeModelNudge)
		return a.next(StageMLEventPending, r)

	case StageMLEventPending:
		r.add(a.predict(ctx, a.event, classifier.EventFeatures(user, peer, r.in.Fomo.Score)), EventModelNudge)
		return a.next(StageFillerPending, r)

	case StageFillerPending:
		for len(r.nudges) < MaxNudges {
			a.log.Info(ctx, "adding filler nudge", logger.String("user_id", user.UserID))
			metrics.RecordFillerNudge()
			r.push(SourceFiller, FillerNudge)
		}
		return StageFinalized

	default:
		return StageFinalized
	}
}

func (r *run) add(ok bool, n model.Nudge) {
	if ok {
		r.push(SourceModel, n)
	}
}

func (r *run) push(source string, n model.Nudge) {
	r.nudges = append(r.nudges, n)
	r.sources = append(r.sources, source)
}

func (a *Assembler) next(want Stage, r *run) Stage {
	if len(r.nudges) < MaxNudges {
		return want
	}
	return StageFinalized
}

func (a *Assembler) runRules(ctx context.Context, in rules.Input) []model.Nudge {
	ctx, span := a.tracer.Start(ctx, "nudge.rules")
	defer span.End()

	outcomes := a.engine.Evaluate(in)
	for _, o := range outcomes {
		result := "skipped"
		switch {
		case o.Failed:
			result = "error"
			a.log.Warn(ctx, "rule failed",
				logger.String("user_id", in.User.UserID),
				logger.String("rule", o.Rule),
				logger.String("reason", o.Reason),
			)
		case o.Fired:
			result = "fired"
			a.log.Info(ctx, "rule fired",
				logger.String("user_id", in.User.UserID),
				logger.String("rule", o.Rule),
				logger.String("reason", o.Reason),
			)
		default:
			a.log.Debug(ctx, "rule skipped",
				logger.String("user_id", in.User.UserID),
				logger.String("rule", o.Rule),
				logger.String("reason", o.Reason),
			)
		}
		metrics.RecordRuleEvaluation(o.Rule, result)
	}
	fired := rules.Nudges(outcomes)
	span.SetAttributes(attribute.Int("rules.fired", len(fired)))
	return fired
}

// predict reports whether c recommends a nudge. Classifier errors are
// logged and mean "no".
func (a *Assembler) predict(ctx context.Context, c classifier.Classifier, f classifier.Features) bool {
	if c == nil {
		return false
	}
	ctx, span := a.tracer.Start(ctx, "nudge.classifier", trace.WithAttributes(attribute.String("model", c.Name())))
	defer span.End()

	p, err := c.PredictProbability(ctx, f)
	if err != nil {
		span.RecordError(err)
		metrics.RecordClassifierError(c.Name())
		a.log.Error(ctx, "classifier failed", logger.String("model", c.Name()), logger.Error(err))
		return false
	}
	metrics.ObserveClassifierProbability(c.Name(), p)
	span.SetAttributes(attribute.Float64("probability", p))
	a.log.Info(ctx, "classifier probability", logger.String("model", c.Name()), logger.Float64("probability", p))
	if p < a.threshold {
		return false
	}
	a.log.Info(ctx, "classifier nudge triggered", logger.String("model", c.Name()))
	return true
}

// Fallback is the result returned when analysis fails unexpectedly.
func Fallback(userID string) model.EngagementResult {
	return model.EngagementResult{
		UserID: userID,
		Nudges: []model.Nudge{FallbackNudge},
		Status: model.StatusGenerated,
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
