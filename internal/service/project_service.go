package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"form4qa/internal/domain"
	"form4qa/internal/ingest"
	"form4qa/internal/requirements"
	"form4qa/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRecordNotFound = errors.New("treatment record not found")
	ErrTestNotFound   = errors.New("testing requirement not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// ProjectService owns project state and applies every edit as
// load, mutate, save under one lock.
type ProjectService struct {
	mu        sync.Mutex
	store     store.ProjectStore
	engine    *requirements.Engine
	pipeline  *ingest.Pipeline
	defaults  domain.TestConfiguration
	headerRow int
	newID     func() string
	now       func() time.Time
	logger    *zap.Logger
}

// Options for NewProjectService. Zero values take the defaults.
type Options struct {
	Defaults  domain.TestConfiguration // configuration of new projects
	HeaderRow *int                     // zero-based; nil takes ingest.DefaultHeaderRow
	NewID     func() string
	Now       func() time.Time
}

func NewProjectService(st store.ProjectStore, engine *requirements.Engine, logger *zap.Logger, opts Options) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = requirements.NewEngine()
	}
	s := &ProjectService{
		store:     st,
		engine:    engine,
		pipeline:  ingest.NewPipeline(engine, logger),
		defaults:  opts.Defaults,
		headerRow: ingest.DefaultHeaderRow,
		newID:     opts.NewID,
		now:       opts.Now,
		logger:    logger,
	}
	if s.defaults.CompactionMethod == "" {
		s.defaults = domain.DefaultTestConfiguration()
	}
	if opts.HeaderRow != nil && *opts.HeaderRow >= 0 {
		s.headerRow = *opts.HeaderRow
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ProjectInfo list entry
type ProjectInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
	Treatments   int       `json:"treatments"`
	Requirements int       `json:"requirements"`
}

func (s *ProjectService) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	now := s.now()
	p := &domain.Project{
		ID:                  s.newID(),
		Name:                name,
		Created:             now,
		Updated:             now,
		TreatmentRecords:    []domain.TreatmentRecord{},
		TestingRequirements: []domain.TestingRequirement{},
		TestConfiguration:   s.defaults,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	s.logger.Info("Project created", zap.String("project_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return s.store.Load(ctx, id)
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	projects, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	out := make([]ProjectInfo, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectInfo{
			ID:           p.ID,
			Name:         p.Name,
			Created:      p.Created,
			Updated:      p.Updated,
			Treatments:   len(p.TreatmentRecords),
			Requirements: len(p.TestingRequirements),
		})
	}
	return out, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Project deleted", zap.String("project_id", id))
	return nil
}

// IngestForm4 replaces the project's records and requirements with the
// workbook's. A structural failure leaves the project untouched.
func (s *ProjectService) IngestForm4(ctx context.Context, id string, r io.Reader) (*ingest.Result, error) {
	var res *ingest.Result
	_, err := s.mutate(ctx, id, func(p *domain.Project) error {
		opts := ingest.Options{HeaderRow: s.headerRow, Config: p.TestConfiguration}
		out, err := s.pipeline.Ingest(r, opts)
		if err != nil {
			return err
		}
		p.TreatmentRecords = out.TreatmentRecords
		p.TestingRequirements = out.TestingRequirements
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ImportTracking replaces the project's records and requirements with a
// previously maintained QA tracking workbook.
func (s *ProjectService) ImportTracking(ctx context.Context, id string, r io.Reader) (*ingest.TrackingResult, error) {
	var res *ingest.TrackingResult
	_, err := s.mutate(ctx, id, func(p *domain.Project) error {
		out, err := s.pipeline.ImportTracking(r)
		if err != nil {
			return err
		}
		p.TreatmentRecords = out.TreatmentRecords
		p.TestingRequirements = out.ExistingTests
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateTestConfiguration stores cfg and regenerates every requirement,
// keeping recorded progress for tests that still apply.
func (s *ProjectService) UpdateTestConfiguration(ctx context.Context, id string, cfg domain.TestConfiguration) (*domain.Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(p *domain.Project) error {
		before := len(p.TestingRequirements)
		p.TestConfiguration = cfg
		p.TestingRequirements = s.engine.Regenerate(p.TreatmentRecords, p.TestingRequirements, cfg)
		s.logger.Info("Testing requirements regenerated",
			zap.String("project_id", p.ID),
			zap.Int("before", before),
			zap.Int("after", len(p.TestingRequirements)))
		return nil
	})
}

func (s *ProjectService) mutate(ctx context.Context, id string, fn func(p *domain.Project) error) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.Updated = s.now()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	return p, nil
}
