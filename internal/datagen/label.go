package datagen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/fomo"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
)

// Label column names.
const (
	LabelResume = "should_nudge_resume"
	LabelEvent  = "should_nudge_event"
)

// Labeling thresholds.
const (
	resumeLabelPct   = 80
	eventLabelScore  = 0.5
	datasetFloatBits = 64
)

// ErrNoSnapshots is returned when labeling has no peer context to draw from.
var ErrNoSnapshots = errors.New("no peer snapshots to label against")

// ErrMalformedDataset is returned when a dataset CSV cannot be read back.
var ErrMalformedDataset = errors.New("malformed dataset")

// datasetColumns is the CSV header; features first, labels last.
//
//nolint:gochecknoglobals // fixed file layout
var datasetColumns = []string{
	classifier.FeatureResumeUploaded,
	classifier.FeatureKarma,
	classifier.FeatureProjectsAdded,
	classifier.FeatureBatchResumeUploadedPct,
	classifier.FeatureEventFomoScore,
	classifier.FeatureBatchAttendingEventsCount,
	LabelResume,
	LabelEvent,
}

// Record is one labeled training row.
type Record struct {
	Features    classifier.Features
	NudgeResume bool
	NudgeEvent  bool
}

// Label pairs every student with a randomly drawn snapshot, scores the pair
// and applies the labeling rules:
//
//	should_nudge_resume = no resume and peer upload above 80%
//	should_nudge_event  = FOMO score of at least 0.5
func Label(seed int64, users []model.UserData, peers []model.PeerSnapshot, now time.Time) ([]Record, error) {
	if len(peers) == 0 {
		return nil, ErrNoSnapshots
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data

	out := make([]Record, 0, len(users))
	for _, u := range users {
		peer := peers[rng.Intn(len(peers))]
		score := fomo.Score(u, peer, now).Score

		f := classifier.ResumeFeatures(u, peer)
		for k, v := range classifier.EventFeatures(u, peer, score) {
			f[k] = v
		}
		out = append(out, Record{
			Features:    f,
			NudgeResume: !u.Profile.ResumeUploaded && peer.BatchResumeUploadedPct > resumeLabelPct,
			NudgeEvent:  score >= eventLabelScore,
		})
	}
	return out, nil
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(datasetColumns); err != nil {
		return err
	}
	nFeatures := len(datasetColumns) - 2
	row := make([]string, len(datasetColumns))
	for _, r := range records {
		for i, col := range datasetColumns[:nFeatures] {
			row[i] = strconv.FormatFloat(r.Features[col], 'f', -1, datasetFloatBits)
		}
		row[nFeatures] = boolDigit(r.NudgeResume)
		row[nFeatures+1] = boolDigit(r.NudgeEvent)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a dataset written by WriteCSV. Columns are matched by name.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedDataset, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, col := range datasetColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedDataset, col)
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedDataset, line, err)
		}

		rec := Record{Features: make(classifier.Features, len(datasetColumns)-2)}
		for _, col := range datasetColumns[:len(datasetColumns)-2] {
			v, err := strconv.ParseFloat(row[index[col]], datasetFloatBits)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %w", ErrMalformedDataset, line, col, err)
			}
			rec.Features[col] = v
		}
		rec.NudgeResume = row[index[LabelResume]] == "1"
		rec.NudgeEvent = row[index[LabelEvent]] == "1"
		out = append(out, rec)
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
