package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// Default file sink settings.
const (
	defaultFileName     = "app.log"
	defaultMaxAge       = 7 * 24 * time.Hour
	defaultRotationTime = 24 * time.Hour
	logDirPermission    = 0o750
)

type options struct {
	stdout   io.Writer
	logDir   string
	fileName string
	maxAge   time.Duration
}

func defaultOptions() options {
	return options{
		stdout:   os.Stdout,
		fileName: defaultFileName,
		maxAge:   defaultMaxAge,
	}
}

// Option configures Init.
type Option func(*options)

// WithLogDir enables a daily rotated file sink under dir.
func WithLogDir(dir string) Option {
	return func(o *options) {
		o.logDir = dir
	}
}

// WithFileName overrides the base name of the rotated file (default app.log).
func WithFileName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.fileName = name
		}
	}
}

// WithMaxAge sets how long rotated files are kept.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxAge = d
		}
	}
}

// WithWriter replaces stdout as the console sink.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.stdout = w
		}
	}
}

// newRotatingFile opens <dir>/<name>.YYYYMMDD and keeps <dir>/<name> linked
// to the current file.
func newRotatingFile(dir, name string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, logDirPermission); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	base := filepath.Join(dir, name)
	return rotatelogs.New(
		base+".%Y%m%d",
		rotatelogs.WithLinkName(base),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(defaultRotationTime),
	)
}
