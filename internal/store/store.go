// Package store persists projects for the single local user.
package store

import (
	"context"
	"errors"

	"form4qa/internal/domain"
)

var ErrNotFound = errors.New("project not found")

// ProjectStore load/save/delete of whole projects.
type ProjectStore interface {
	Load(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Save(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}
