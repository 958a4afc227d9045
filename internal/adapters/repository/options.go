package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileName maps a model name to the file holding its artifact.
func WithFileName(model, file string) Option {
	return func(s *FileStore) {
		if model != "" && file != "" {
			s.files[model] = file
		}
	}
}

// WithFileMode sets the permissions used when saving artifacts.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}
