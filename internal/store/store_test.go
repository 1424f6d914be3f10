package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relboard/internal/model"
)

func release(id string) model.Release {
	d := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return model.Release{ID: id, Start: d, End: d}
}

func TestReplaceAndSnapshot(t *testing.T) {
	s := New()

	got, refreshed := s.Snapshot()
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.True(t, refreshed.IsZero())

	s.Replace([]model.Release{release("a"), release("b")})
	got, refreshed = s.Snapshot()
	require.Len(t, got, 2)
	assert.False(t, refreshed.IsZero())
	assert.Equal(t, 2, s.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Replace([]model.Release{release("a")})

	got, _ := s.Snapshot()
	got[0].ID = "mutated"

	again, _ := s.Snapshot()
	assert.Equal(t, "a", again[0].ID)
}

func TestReplaceCopiesInput(t *testing.T) {
	s := New()
	in := []model.Release{release("a")}
	s.Replace(in)

	in[0].ID = "mutated"
	got, _ := s.Snapshot()
	assert.Equal(t, "a", got[0].ID)
}

func TestReplaceNil(t *testing.T) {
	s := New()
	s.Replace([]model.Release{release("a")})
	s.Replace(nil)

	got, _ := s.Snapshot()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Replace([]model.Release{release("a")})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Snapshot()
		}()
	}
	wg.Wait()
}
