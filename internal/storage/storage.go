// Package storage persists uploaded files such as user avatars.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects under a directory on disk. Used when no S3
// bucket is configured.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes data to <dir>/<key> atomically and returns its URL.
func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating object dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming object: %w", err)
	}
	return s.baseURL + filepath.ToSlash(clean), nil
}

// Ping checks that the storage directory still exists.
func (s *LocalStore) Ping(context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Name identifies the backend in health output.
func (s *LocalStore) Name() string { return "file://" + s.dir }
