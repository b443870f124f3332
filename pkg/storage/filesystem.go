package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// ErrInvalidKey is returned for keys that would resolve outside the store
// directory.
var ErrInvalidKey = errors.New("invalid storage key")

// FilesystemStore keeps one file per key inside a single directory.
type FilesystemStore struct {
	dir         string
	retryConfig retry.Config
}

func NewFilesystemStore(dir string) *FilesystemStore {
	return &FilesystemStore{
		dir: dir,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Dir returns the directory backing the store.
func (s *FilesystemStore) Dir() string {
	return s.dir
}

// ResolvePath ensures the key maps to a direct child of the store directory.
func (s *FilesystemStore) ResolvePath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	baseDir := filepath.Clean(s.dir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, key))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	return cleanPath, nil
}

type readResult struct {
	value string
	found bool
}

func (s *FilesystemStore) Get(key string) (string, bool, error) {
	path, err := s.ResolvePath(key)
	if err != nil {
		return "", false, err
	}

	retryer := retry.New[readResult](s.retryConfig)
	res, err := retryer.Do(context.Background(), func(ctx context.Context) (readResult, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return readResult{}, nil
			}
			return readResult{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		return readResult{value: string(data), found: true}, nil
	})
	if err != nil {
		return "", false, err
	}
	return res.value, res.found, nil
}

func (s *FilesystemStore) Set(key, value string) error {
	path, err := s.ResolvePath(key)
	if err != nil {
		return err
	}
	// G301: Use 0700 for directories
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp := path + ".tmp"
	// G306: Use 0600 for files
	if err := os.WriteFile(tmp, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStore) Remove(keys ...string) error {
	var errs []error
	for _, key := range keys {
		path, err := s.ResolvePath(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
