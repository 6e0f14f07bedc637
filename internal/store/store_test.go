package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"form4qa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(id string, created time.Time) *domain.Project {
	return &domain.Project{
		ID:      id,
		Name:    "Project " + id,
		Created: created,
		TreatmentRecords: []domain.TreatmentRecord{
			{ID: id + "-r1", LineNo: 1, TreatmentCode: "SPR_STB", Status: domain.TreatmentPlanned},
		},
		TestConfiguration: domain.DefaultTestConfiguration(),
	}
}

func storeContract(t *testing.T, s ProjectStore) {
	ctx := context.Background()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, project("b", t0.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, project("a", t0)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	p, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Project a", p.Name)
	require.Len(t, p.TreatmentRecords, 1)

	// save replaces, callers' later edits stay local until saved again
	p.Name = "Renamed"
	p.TreatmentRecords[0].Status = domain.TreatmentCompleted
	require.NoError(t, s.Save(ctx, p))
	p.Name = "not saved"
	again, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)
	assert.Equal(t, domain.TreatmentCompleted, again.TreatmentRecords[0].Status)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	storeContract(t, s)

	// a second handle on the same directory sees the data
	other, err := NewFileStore(dir)
	require.NoError(t, err)
	list, err := other.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects.json"), []byte("{not json"), 0o644))
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = s.List(context.Background())
	assert.Error(t, err)
}
