package service

import (
	"context"
	"fmt"

	"form4qa/internal/domain"
	"form4qa/internal/export"

	"go.uber.org/zap"
)

// TreatmentUpdate nil fields are left unchanged.
type TreatmentUpdate struct {
	Status         *domain.TreatmentStatus `json:"status,omitempty"`
	PhotosReceived *bool                   `json:"photosReceived,omitempty"`
	PhotosReviewed *bool                   `json:"photosReviewed,omitempty"`
	ITPReceived    *bool                   `json:"itpReceived,omitempty"`
	LineComplete   *bool                   `json:"lineComplete,omitempty"`
}

func (u TreatmentUpdate) validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *u.Status)
	}
	if u.Status == nil && u.PhotosReceived == nil && u.PhotosReviewed == nil && u.ITPReceived == nil && u.LineComplete == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return nil
}

func (u TreatmentUpdate) apply(r *domain.TreatmentRecord) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.PhotosReceived != nil {
		r.PhotosReceived = *u.PhotosReceived
	}
	if u.PhotosReviewed != nil {
		r.PhotosReviewed = *u.PhotosReviewed
	}
	if u.ITPReceived != nil {
		r.ITPReceived = *u.ITPReceived
	}
	if u.LineComplete != nil {
		r.LineComplete = *u.LineComplete
	}
}

func (s *ProjectService) UpdateTreatment(ctx context.Context, projectID, recordID string, u TreatmentUpdate) (*domain.TreatmentRecord, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}
	var out domain.TreatmentRecord
	_, err := s.mutate(ctx, projectID, func(p *domain.Project) error {
		i := p.FindTreatment(recordID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
		}
		u.apply(&p.TreatmentRecords[i])
		out = p.TreatmentRecords[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkUpdate applies u to every listed record. Unknown ids fail the whole batch.
func (s *ProjectService) BulkUpdate(ctx context.Context, projectID string, recordIDs []string, u TreatmentUpdate) (int, error) {
	if len(recordIDs) == 0 {
		return 0, fmt.Errorf("%w: no records selected", ErrInvalidInput)
	}
	if err := u.validate(); err != nil {
		return 0, err
	}
	n := 0
	_, err := s.mutate(ctx, projectID, func(p *domain.Project) error {
		idx := make([]int, 0, len(recordIDs))
		seen := make(map[string]bool, len(recordIDs))
		for _, id := range recordIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			i := p.FindTreatment(id)
			if i < 0 {
				return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
			}
			idx = append(idx, i)
		}
		for _, i := range idx {
			u.apply(&p.TreatmentRecords[i])
		}
		n = len(idx)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Bulk update applied", zap.String("project_id", projectID), zap.Int("records", n))
	return n, nil
}

// Filter selects treatment records for the dashboard list.
type Filter string

const (
	FilterAll           Filter = "all"
	FilterPlanned       Filter = "planned"
	FilterInProgress    Filter = "in-progress"
	FilterCompleted     Filter = "completed"
	FilterLineComplete  Filter = "line-complete"
	FilterMissingPhotos Filter = "missing-photos"
	FilterMissingITP    Filter = "missing-itp"
)

func (f Filter) match(r *domain.TreatmentRecord) (bool, error) {
	switch f {
	case FilterAll, "":
		return true, nil
	case FilterPlanned:
		return r.Status == domain.TreatmentPlanned, nil
	case FilterInProgress:
		return r.Status == domain.TreatmentInProgress, nil
	case FilterCompleted:
		return r.Status == domain.TreatmentCompleted, nil
	case FilterLineComplete:
		return r.LineComplete, nil
	case FilterMissingPhotos:
		return !r.PhotosReceived, nil
	case FilterMissingITP:
		return !r.ITPReceived, nil
	}
	return false, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, string(f))
}

func (s *ProjectService) FilterTreatments(ctx context.Context, projectID string, f Filter) ([]domain.TreatmentRecord, error) {
	p, err := s.store.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TreatmentRecord, 0, len(p.TreatmentRecords))
	for i := range p.TreatmentRecords {
		ok, err := f.match(&p.TreatmentRecords[i])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p.TreatmentRecords[i])
		}
	}
	return out, nil
}

// Stats dashboard counters plus the export summary.
type Stats struct {
	Total         int            `json:"total"`
	Planned       int            `json:"planned"`
	InProgress    int            `json:"inProgress"`
	Completed     int            `json:"completed"`
	LineComplete  int            `json:"lineComplete"`
	MissingPhotos int            `json:"missingPhotos"`
	MissingITP    int            `json:"missingITP"`
	Summary       export.Summary `json:"summary"`
}

func (s *ProjectService) Stats(ctx context.Context, projectID string) (*Stats, error) {
	p, err := s.store.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st := &Stats{Summary: export.Summarize(p)}
	for _, r := range p.TreatmentRecords {
		st.Total++
		switch r.Status {
		case domain.TreatmentPlanned:
			st.Planned++
		case domain.TreatmentInProgress:
			st.InProgress++
		case domain.TreatmentCompleted:
			st.Completed++
		}
		if r.LineComplete {
			st.LineComplete++
		}
		if !r.PhotosReceived {
			st.MissingPhotos++
		}
		if !r.ITPReceived {
			st.MissingITP++
		}
	}
	return st, nil
}

// ActionUpdate maps a dashboard bulk action name to its update.
func ActionUpdate(action string) (TreatmentUpdate, error) {
	yes := true
	status := func(s domain.TreatmentStatus) TreatmentUpdate { return TreatmentUpdate{Status: &s} }
	switch action {
	case "mark-planned":
		return status(domain.TreatmentPlanned), nil
	case "mark-in-progress":
		return status(domain.TreatmentInProgress), nil
	case "mark-completed":
		return status(domain.TreatmentCompleted), nil
	case "line-complete":
		return TreatmentUpdate{LineComplete: &yes}, nil
	case "photos-received":
		return TreatmentUpdate{PhotosReceived: &yes}, nil
	case "photos-reviewed":
		return TreatmentUpdate{PhotosReviewed: &yes}, nil
	case "itp-received":
		return TreatmentUpdate{ITPReceived: &yes}, nil
	}
	return TreatmentUpdate{}, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
}
