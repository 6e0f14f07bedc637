package service

import (
	"context"
	"fmt"

	"form4qa/internal/domain"
	"form4qa/internal/export"
	"form4qa/internal/requirements"
)

// TestProgress manual counters for a requirement without reports.
type TestProgress struct {
	Completed  int `json:"testsCompleted"`
	InProgress int `json:"testsInProgress"`
}

func (s *ProjectService) SetTestProgress(ctx context.Context, projectID, testID string, tp TestProgress) (*domain.TestingRequirement, error) {
	return s.updateRequirement(ctx, projectID, testID, func(t *domain.TestingRequirement) error {
		return requirements.SetProgress(t, tp.Completed, tp.InProgress)
	})
}

func (s *ProjectService) AddTestReport(ctx context.Context, projectID, testID string, r domain.TestReport) (*domain.TestingRequirement, error) {
	return s.updateRequirement(ctx, projectID, testID, func(t *domain.TestingRequirement) error {
		return requirements.AddReport(t, r)
	})
}

func (s *ProjectService) RemoveTestReport(ctx context.Context, projectID, testID, reportNumber string) (*domain.TestingRequirement, error) {
	return s.updateRequirement(ctx, projectID, testID, func(t *domain.TestingRequirement) error {
		return requirements.RemoveReport(t, reportNumber)
	})
}

func (s *ProjectService) updateRequirement(ctx context.Context, projectID, testID string, fn func(t *domain.TestingRequirement) error) (*domain.TestingRequirement, error) {
	var out domain.TestingRequirement
	_, err := s.mutate(ctx, projectID, func(p *domain.Project) error {
		i := p.FindRequirement(testID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTestNotFound, testID)
		}
		if err := fn(&p.TestingRequirements[i]); err != nil {
			return err
		}
		out = p.TestingRequirements[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Export renders the project workbook and its download file name.
func (s *ProjectService) Export(ctx context.Context, projectID string) ([]byte, string, error) {
	p, err := s.store.Load(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	data, err := export.Workbook(p, now)
	if err != nil {
		return nil, "", err
	}
	return data, export.FileName(p.Name, now), nil
}
