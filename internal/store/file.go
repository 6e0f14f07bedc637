package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"form4qa/internal/domain"

	"github.com/gofrs/flock"
)

const fileVersion = "1"

// FileStore keeps all projects in one JSON file. A lock file guards
// read-modify-write so the CLI and the server can share the data directory.
type FileStore struct {
	path     string
	fileLock *flock.Flock
	mu       sync.Mutex
	timeout  time.Duration
}

type fileData struct {
	Projects []domain.Project `json:"projects"`
	Metadata fileMetadata     `json:"metadata"`
}

type fileMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileStore stores projects in dir/projects.json, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	path := filepath.Join(dir, "projects.json")
	return &FileStore{
		path:     path,
		fileLock: flock.New(path + ".lock"),
		timeout:  3 * time.Second,
	}, nil
}

// Path of the backing JSON file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context, id string) (*domain.Project, error) {
	var out *domain.Project
	err := s.withLock(ctx, func() error {
		data, err := s.read()
		if err != nil {
			return err
		}
		for i := range data.Projects {
			if data.Projects[i].ID == id {
				p := data.Projects[i]
				out = &p
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (s *FileStore) List(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := s.withLock(ctx, func() error {
		data, err := s.read()
		if err != nil {
			return err
		}
		out = data.Projects
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortProjects(out)
	return out, nil
}

func (s *FileStore) Save(ctx context.Context, p *domain.Project) error {
	return s.withLock(ctx, func() error {
		data, err := s.read()
		if err != nil {
			return err
		}
		replaced := false
		for i := range data.Projects {
			if data.Projects[i].ID == p.ID {
				data.Projects[i] = *p
				replaced = true
				break
			}
		}
		if !replaced {
			data.Projects = append(data.Projects, *p)
		}
		return s.write(data)
	})
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	return s.withLock(ctx, func() error {
		data, err := s.read()
		if err != nil {
			return err
		}
		for i := range data.Projects {
			if data.Projects[i].ID == id {
				data.Projects = append(data.Projects[:i], data.Projects[i+1:]...)
				return s.write(data)
			}
		}
		return ErrNotFound
	})
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	locked, err := s.fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire file lock on %s", s.path)
	}
	defer func() { _ = s.fileLock.Unlock() }()

	return fn()
}

// read must be called with the lock held. A missing or empty file is an empty store.
func (s *FileStore) read() (*fileData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) || (err == nil && len(raw) == 0) {
		now := time.Now()
		return &fileData{Projects: []domain.Project{}, Metadata: fileMetadata{Version: fileVersion, CreatedAt: now}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return &data, nil
}

// write replaces the file atomically.
func (s *FileStore) write(data *fileData) error {
	data.Metadata.UpdatedAt = time.Now()
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
