package datagen

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
)

// ErrNotEnoughData is returned when a split leaves no rows to train or test on.
var ErrNotEnoughData = errors.New("not enough rows to train")

// Target selects the label a model is trained on.
type Target func(Record) bool

// ResumeTarget and EventTarget select the two labels.
func ResumeTarget(r Record) bool { return r.NudgeResume }
func EventTarget(r Record) bool  { return r.NudgeEvent }

// TrainResult is a fitted model and its accuracy on both splits.
type TrainResult struct {
	Artifact      classifier.Artifact
	TrainAccuracy float64
	TestAccuracy  float64
	TrainRows     int
	TestRows      int
}

// Split shuffles rows with seed and holds out testFraction of them.
func Split(records []Record, seed int64, testFraction float64) (train, test []Record) {
	idx := rand.New(rand.NewSource(seed)).Perm(len(records)) //nolint:gosec // reproducible split
	nTest := int(math.Round(float64(len(records)) * testFraction))
	test = make([]Record, 0, nTest)
	train = make([]Record, 0, len(records)-nTest)
	for i, j := range idx {
		if i < nTest {
			test = append(test, records[j])
		} else {
			train = append(train, records[j])
		}
	}
	return train, test
}

// Train fits a logistic regression on the named features with full-batch
// gradient descent. Features are standardized while fitting; the returned
// coefficients apply to raw feature values.
func Train(records []Record, features []string, target Target, cfg Config) (TrainResult, error) {
	train, test := Split(records, cfg.SplitSeed, cfg.TestFraction)
	if len(train) == 0 || len(test) == 0 {
		return TrainResult{}, fmt.Errorf("%w: %d rows", ErrNotEnoughData, len(records))
	}

	x, y, err := matrix(train, features, target)
	if err != nil {
		return TrainResult{}, err
	}
	mean, std := moments(x, len(features))
	for _, row := range x {
		for j := range row {
			row[j] = (row[j] - mean[j]) / std[j]
		}
	}

	w := make([]float64, len(features))
	var b float64
	grad := make([]float64, len(features))
	n := float64(len(x))
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var gb float64
		for i, row := range x {
			diff := classifier.Sigmoid(dot(w, row)+b) - y[i]
			for j, v := range row {
				grad[j] += diff * v
			}
			gb += diff
		}
		for j := range w {
			w[j] -= cfg.LearningRate * grad[j] / n
		}
		b -= cfg.LearningRate * gb / n
	}

	a := classifier.Artifact{
		FeatureNames: append([]string(nil), features...),
		Coefficients: make([]float64, len(features)),
		Intercept:    b,
	}
	for j := range w {
		a.Coefficients[j] = w[j] / std[j]
		a.Intercept -= w[j] * mean[j] / std[j]
	}

	res := TrainResult{Artifact: a, TrainRows: len(train), TestRows: len(test)}
	if res.TrainAccuracy, err = Accuracy(a, train, target); err != nil {
		return TrainResult{}, err
	}
	if res.TestAccuracy, err = Accuracy(a, test, target); err != nil {
		return TrainResult{}, err
	}
	return res, nil
}

// Accuracy is the share of rows the artifact classifies correctly at 0.5.
func Accuracy(a classifier.Artifact, records []Record, target Target) (float64, error) {
	if len(records) == 0 {
		return 0, ErrNotEnoughData
	}
	correct := 0
	for _, r := range records {
		v, err := classifier.Vector(r.Features, a.FeatureNames)
		if err != nil {
			return 0, err
		}
		if (classifier.Sigmoid(dot(a.Coefficients, v)+a.Intercept) >= 0.5) == target(r) {
			correct++
		}
	}
	return float64(correct) / float64(len(records)), nil
}

func matrix(records []Record, features []string, target Target) ([][]float64, []float64, error) {
	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, r := range records {
		v, err := classifier.Vector(r.Features, features)
		if err != nil {
			return nil, nil, err
		}
		x[i] = v
		if target(r) {
			y[i] = 1
		}
	}
	return x, y, nil
}

// moments returns per-column mean and standard deviation. Constant columns
// get a deviation of 1 so they standardize to zero.
func moments(x [][]float64, cols int) (mean, std []float64) {
	mean = make([]float64, cols)
	std = make([]float64, cols)
	n := float64(len(x))
	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
