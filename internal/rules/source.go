package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"github.com/dtroode/appblock/internal/model"
)

// Source loads the rules document. The version changes whenever the
// document does, so an unchanged document is not parsed again.
type Source interface {
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) ([]byte, error)
}

// WatchedSource reports changes itself instead of being polled.
type WatchedSource interface {
	Source
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// FileSource reads rules from a local file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Changes watches the directory of the file, so editors that replace the
// file by rename are followed too. The channel holds at most one pending
// change and is closed when ctx is done.
func (s *FileSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create rules file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch rules directory: %w", err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changes, nil
}

func (s *FileSource) Version(_ context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to stat rules file: %w", err)
	}

	return strconv.FormatInt(info.ModTime().UnixNano(), 10) + "-" + strconv.FormatInt(info.Size(), 10), nil
}

func (s *FileSource) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return data, nil
}

// ObjectSource reads rules from an object in a bucket.
type ObjectSource struct {
	storage model.Storage
	key     string
}

func NewObjectSource(storage model.Storage, key string) *ObjectSource {
	return &ObjectSource{
		storage: storage,
		key:     key,
	}
}

func (s *ObjectSource) Version(ctx context.Context) (string, error) {
	info, err := s.storage.Stat(ctx, s.key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", fmt.Errorf("rules object %q: %w", s.key, err)
		}
		return "", err
	}
	return info.ETag, nil
}

func (s *ObjectSource) Load(ctx context.Context) ([]byte, error) {
	rc, err := s.storage.Download(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules object: %w", err)
	}
	return data, nil
}
