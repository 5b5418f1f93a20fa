package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource serves a token stored in a file, such as a projected service
// account token, and reloads it whenever the file is rewritten or replaced
type FileSource struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	token string
	err   error

	watcher *fsnotify.Watcher
	done    chan struct{}
	closeMu sync.Once
}

// FileSourceOption configures a FileSource
type FileSourceOption func(*FileSource)

// WithFileLogger sets the logger
func WithFileLogger(logger *slog.Logger) FileSourceOption {
	return func(s *FileSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileSource reads path once and starts watching its directory. The
// directory is watched instead of the file so atomic rename-over updates are
// seen
func NewFileSource(path string, opts ...FileSourceOption) (*FileSource, error) {
	s := &FileSource{
		path:   filepath.Clean(path),
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.reload(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create token file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch token directory: %w", err)
	}
	s.watcher = w

	go s.watch()

	return s, nil
}

// Token implements CredentialSource
func (s *FileSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return "", s.err
	}
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Close stops watching the token file
func (s *FileSource) Close() error {
	var err error
	s.closeMu.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

func (s *FileSource) reload() error {
	data, err := os.ReadFile(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.err = fmt.Errorf("read token file: %w", err)
		return s.err
	}
	s.token = strings.TrimSpace(string(data))
	s.err = nil
	return nil
}

func (s *FileSource) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Warn("token file reload failed", "path", s.path, "error", err)
				continue
			}
			s.logger.Debug("token file reloaded", "path", s.path)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("token file watcher error", "path", s.path, "error", err)
		}
	}
}
