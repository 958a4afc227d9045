package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/adapters/repository"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
	. "github.com/smartystreets/goconvey/convey"
)

func eventArtifact() classifier.Artifact {
	return classifier.Artifact{
		FeatureNames: []string{"karma", "resume_uploaded", "event_fomo_score", "batch_attending_events_count"},
		Coefficients: []float64{0, 0, 12, 0},
		Intercept:    -6,
	}
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in an empty directory", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "models")
		store := repository.NewFileStore(dir)

		Convey("When loading a model that was never saved", func() {
			_, err := store.Load(ctx, classifier.ModelEvent)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When saving and loading an artifact", func() {
			So(store.Save(ctx, classifier.ModelEvent, eventArtifact()), ShouldBeNil)
			got, err := store.Load(ctx, classifier.ModelEvent)

			Convey("Then the artifact is returned intact", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, eventArtifact())
			})

			Convey("And it lives under the default file name", func() {
				_, err := os.Stat(filepath.Join(dir, "model_event.json"))
				So(err, ShouldBeNil)
			})
		})

		Convey("When saving an invalid artifact", func() {
			err := store.Save(ctx, classifier.ModelEvent, classifier.Artifact{FeatureNames: []string{"a"}})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidArtifact), ShouldBeTrue)
			})
		})

		Convey("When the file holds garbage", func() {
			So(os.MkdirAll(dir, 0o755), ShouldBeNil)
			So(os.WriteFile(filepath.Join(dir, "model_resume.json"), []byte("{not json"), 0o600), ShouldBeNil)
			_, err := store.Load(ctx, classifier.ModelResume)

			Convey("Then ErrInvalidArtifact is returned", func() {
				So(errors.Is(err, repository.ErrInvalidArtifact), ShouldBeTrue)
			})
		})

		Convey("When asking for an unknown model", func() {
			_, err := store.Load(ctx, "churn")

			Convey("Then ErrUnknownModel is returned", func() {
				So(errors.Is(err, repository.ErrUnknownModel), ShouldBeTrue)
			})
		})

		Convey("When a custom file name is configured", func() {
			custom := repository.NewFileStore(dir, repository.WithFileName(classifier.ModelEvent, "event_v2.json"))
			So(custom.Save(ctx, classifier.ModelEvent, eventArtifact()), ShouldBeNil)

			Convey("Then the artifact is stored there", func() {
				path, err := custom.Path(classifier.ModelEvent)
				So(err, ShouldBeNil)
				So(filepath.Base(path), ShouldEqual, "event_v2.json")
				_, err = os.Stat(path)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestLoadClassifier(t *testing.T) {
	Convey("Given a store", t, func() {
		ctx := context.Background()
		store := repository.NewFileStore(t.TempDir())

		Convey("When the artifact is missing", func() {
			c, err := repository.LoadClassifier(ctx, store, classifier.ModelEvent)

			Convey("Then an unavailable classifier is returned with the error", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, perr := c.PredictProbability(ctx, classifier.Features{})
				So(errors.Is(perr, classifier.ErrModelUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the artifact exists", func() {
			So(store.Save(ctx, classifier.ModelEvent, eventArtifact()), ShouldBeNil)
			c, err := repository.LoadClassifier(ctx, store, classifier.ModelEvent)

			Convey("Then the logistic model predicts", func() {
				So(err, ShouldBeNil)
				p, err := c.PredictProbability(ctx, classifier.Features{
					"karma": 100, "resume_uploaded": 0, "event_fomo_score": 0.5, "batch_attending_events_count": 3,
				})
				So(err, ShouldBeNil)
				So(p, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})
	})
}

func TestShippedModels(t *testing.T) {
	Convey("Given the artifacts shipped in models/", t, func() {
		ctx := context.Background()
		store := repository.NewFileStore(filepath.Join("..", "..", "..", "models"))

		resume, err := repository.LoadClassifier(ctx, store, classifier.ModelResume)
		So(err, ShouldBeNil)
		event, err := repository.LoadClassifier(ctx, store, classifier.ModelEvent)
		So(err, ShouldBeNil)

		Convey("Then they use the feature layouts the service builds", func() {
			a, err := store.Load(ctx, classifier.ModelResume)
			So(err, ShouldBeNil)
			So(a.FeatureNames, ShouldResemble, classifier.ResumeFeatureNames)
			a, err = store.Load(ctx, classifier.ModelEvent)
			So(err, ShouldBeNil)
			So(a.FeatureNames, ShouldResemble, classifier.EventFeatureNames)
		})

		Convey("And the resume model follows the labeling rule", func() {
			missing, _ := resume.PredictProbability(ctx, classifier.Features{
				classifier.FeatureKarma: 190, classifier.FeatureProjectsAdded: 0,
				classifier.FeatureResumeUploaded: 0, classifier.FeatureBatchResumeUploadedPct: 90,
			})
			uploaded, _ := resume.PredictProbability(ctx, classifier.Features{
				classifier.FeatureKarma: 190, classifier.FeatureProjectsAdded: 0,
				classifier.FeatureResumeUploaded: 1, classifier.FeatureBatchResumeUploadedPct: 90,
			})
			So(missing, ShouldBeGreaterThan, 0.9)
			So(uploaded, ShouldBeLessThan, 0.5)
		})

		Convey("And the event model follows the FOMO score", func() {
			high, _ := event.PredictProbability(ctx, classifier.Features{
				classifier.FeatureKarma: 190, classifier.FeatureResumeUploaded: 0,
				classifier.FeatureEventFomoScore: 0.82, classifier.FeatureBatchAttendingEventsCount: 2,
			})
			low, _ := event.PredictProbability(ctx, classifier.Features{
				classifier.FeatureKarma: 190, classifier.FeatureResumeUploaded: 0,
				classifier.FeatureEventFomoScore: 0.3, classifier.FeatureBatchAttendingEventsCount: 2,
			})
			So(high, ShouldBeGreaterThan, 0.9)
			So(low, ShouldBeLessThan, 0.5)
		})
	})
}
