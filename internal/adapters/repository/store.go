// Package repository stores trained classifier artifacts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/classifier"
)

// Store provides read/write access to model artifacts.
type Store interface {
	// Load returns the artifact of the named model.
	// Returns ErrNotFound if no artifact was saved.
	Load(ctx context.Context, model string) (classifier.Artifact, error)
	// Save persists the artifact of the named model.
	Save(ctx context.Context, model string, a classifier.Artifact) error
}

const defaultFileMode = 0o644

// FileStore keeps one JSON document per model in a directory.
type FileStore struct {
	dir   string
	files map[string]string
	mode  os.FileMode
}

// NewFileStore creates a store rooted at dir with the default file names
// model_resume.json and model_event.json.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{
		dir: dir,
		files: map[string]string{
			classifier.ModelResume: "model_resume.json",
			classifier.ModelEvent:  "model_event.json",
		},
		mode: defaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file backing model.
func (s *FileStore) Path(model string) (string, error) {
	name, ok := s.files[model]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return filepath.Join(s.dir, name), nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, model string) (classifier.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return classifier.Artifact{}, err
	}
	path, err := s.Path(model)
	if err != nil {
		return classifier.Artifact{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return classifier.Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return classifier.Artifact{}, fmt.Errorf("read %s: %w", path, err)
	}
	var a classifier.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return classifier.Artifact{}, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, path, err)
	}
	if err := a.Validate(); err != nil {
		return classifier.Artifact{}, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, path, err)
	}
	return a, nil
}

// Save implements Store. The artifact is written to a temporary file first
// and renamed into place.
func (s *FileStore) Save(ctx context.Context, model string, a classifier.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	path, err := s.Path(model)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", model, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil { //nolint:mnd // directory permissions
		return fmt.Errorf("create %s: %w", s.dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), s.mode); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// LoadClassifier builds a ready-to-use classifier for model. Any load error
// yields an Unavailable classifier together with the error, so callers can
// log it and keep running.
func LoadClassifier(ctx context.Context, s Store, model string) (classifier.Classifier, error) {
	a, err := s.Load(ctx, model)
	if err != nil {
		return classifier.NewUnavailable(model, err), err
	}
	l, err := classifier.NewLogistic(model, a)
	if err != nil {
		return classifier.NewUnavailable(model, err), err
	}
	return l, nil
}
