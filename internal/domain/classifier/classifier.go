// Package classifier provides the probability estimators consulted when the
// rules leave nudge slots open.
package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
)

// Model names.
const (
	ModelResume = "resume"
	ModelEvent  = "event"
)

// Feature names shared by training and inference.
const (
	FeatureKarma                     = "karma"
	FeatureProjectsAdded             = "projects_added"
	FeatureResumeUploaded            = "resume_uploaded"
	FeatureBatchResumeUploadedPct    = "batch_resume_uploaded_pct"
	FeatureEventFomoScore            = "event_fomo_score"
	FeatureBatchAttendingEventsCount = "batch_attending_events_count"
)

// ResumeFeatureNames is the default feature order of the resume model.
var ResumeFeatureNames = []string{ //nolint:gochecknoglobals // fixed training layout
	FeatureKarma, FeatureProjectsAdded, FeatureResumeUploaded, FeatureBatchResumeUploadedPct,
}

// EventFeatureNames is the default feature order of the event model.
var EventFeatureNames = []string{ //nolint:gochecknoglobals // fixed training layout
	FeatureKarma, FeatureResumeUploaded, FeatureEventFomoScore, FeatureBatchAttendingEventsCount,
}

// Features maps feature names to values. The model decides the order.
type Features map[string]float64

// Classifier estimates the probability that a nudge is worthwhile.
type Classifier interface {
	// Name identifies the model in logs and metrics.
	Name() string
	// PredictProbability returns a probability in [0,1].
	PredictProbability(ctx context.Context, f Features) (float64, error)
}

// ResumeFeatures extracts the resume model inputs.
func ResumeFeatures(user model.UserData, peer model.PeerSnapshot) Features {
	return Features{
		FeatureKarma:                  float64(user.Profile.Karma),
		FeatureProjectsAdded:          float64(user.Profile.ProjectsAdded),
		FeatureResumeUploaded:         boolToFloat(user.Profile.ResumeUploaded),
		FeatureBatchResumeUploadedPct: peer.BatchResumeUploadedPct,
	}
}

// EventFeatures extracts the event model inputs.
func EventFeatures(user model.UserData, peer model.PeerSnapshot, fomoScore float64) Features {
	return Features{
		FeatureKarma:                     float64(user.Profile.Karma),
		FeatureResumeUploaded:            boolToFloat(user.Profile.ResumeUploaded),
		FeatureEventFomoScore:            fomoScore,
		FeatureBatchAttendingEventsCount: float64(peer.BatchAttendingEventsCount),
	}
}

// Vector orders f by names.
func Vector(f Features, names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := f[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		out[i] = v
	}
	return out, nil
}

// Artifact is the serialized form of a trained logistic regression.
type Artifact struct {
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Validate checks that the artifact can be evaluated.
func (a Artifact) Validate() error {
	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	if len(a.FeatureNames) != len(a.Coefficients) {
		return fmt.Errorf("%w: %d features but %d coefficients", ErrInvalidModel, len(a.FeatureNames), len(a.Coefficients))
	}
	seen := make(map[string]struct{}, len(a.FeatureNames))
	for _, n := range a.FeatureNames {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate feature %s", ErrInvalidModel, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Logistic evaluates a trained logistic regression. It is immutable after
// construction and safe for concurrent use.
type Logistic struct {
	name     string
	artifact Artifact
}

// NewLogistic creates a classifier from a validated artifact.
func NewLogistic(name string, a Artifact) (*Logistic, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	cp := Artifact{
		FeatureNames: append([]string(nil), a.FeatureNames...),
		Coefficients: append([]float64(nil), a.Coefficients...),
		Intercept:    a.Intercept,
	}
	return &Logistic{name: name, artifact: cp}, nil
}

// Name implements Classifier.
func (l *Logistic) Name() string { return l.name }

// FeatureNames returns the order the model was trained with.
func (l *Logistic) FeatureNames() []string {
	return append([]string(nil), l.artifact.FeatureNames...)
}

// PredictProbability implements Classifier.
func (l *Logistic) PredictProbability(ctx context.Context, f Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	x, err := Vector(f, l.artifact.FeatureNames)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", l.name, err)
	}
	z := l.artifact.Intercept
	for i, v := range x {
		z += l.artifact.Coefficients[i] * v
	}
	return Sigmoid(z), nil
}

// Sigmoid is the logistic function.
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Unavailable stands in for a model that could not be loaded. It never
// produces a probability.
type Unavailable struct {
	name   string
	reason error
}

// NewUnavailable records why the named model is missing.
func NewUnavailable(name string, reason error) *Unavailable {
	return &Unavailable{name: name, reason: reason}
}

// Name implements Classifier.
func (u *Unavailable) Name() string { return u.name }

// PredictProbability implements Classifier.
func (u *Unavailable) PredictProbability(context.Context, Features) (float64, error) {
	if u.reason != nil {
		return 0, fmt.Errorf("%s: %w: %w", u.name, ErrModelUnavailable, u.reason)
	}
	return 0, fmt.Errorf("%s: %w", u.name, ErrModelUnavailable)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
