package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetOrCreate(t *testing.T) {
	mgr := NewManager()

	a := mgr.GetOrCreate("a")
	assert.Equal(t, "a", a.ID())
	assert.Same(t, a, mgr.GetOrCreate("a"))

	generated := mgr.GetOrCreate("")
	assert.NotEmpty(t, generated.ID())
	assert.NotEqual(t, "a", generated.ID())

	assert.Equal(t, 2, mgr.Len())
}

func TestManager_GetAndDelete(t *testing.T) {
	mgr := NewManager()

	_, err := mgr.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := mgr.GetOrCreate("x")
	got, err := mgr.Get("x")
	require.NoError(t, err)
	assert.Same(t, s, got)

	mgr.Delete("x")
	mgr.Delete("x")
	_, err = mgr.Get("x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	mgr := NewManager()
	a := mgr.GetOrCreate("a")
	b := mgr.GetOrCreate("b")

	a.Append(msg("only in a"))
	b.EnqueuePending("only in b")

	assert.Equal(t, Stats{Messages: 1, Undo: 1}, a.Stats())
	assert.Equal(t, Stats{Pending: 1}, b.Stats())
}

func TestManager_Range(t *testing.T) {
	mgr := NewManager()
	for i := 0; i < 5; i++ {
		mgr.GetOrCreate(fmt.Sprintf("s%d", i))
	}

	seen := 0
	mgr.Range(func(*Session) bool {
		seen++
		return true
	})
	assert.Equal(t, 5, seen)

	seen = 0
	mgr.Range(func(*Session) bool {
		seen++
		return seen < 2
	})
	assert.Equal(t, 2, seen)
}

func TestManager_Prune(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mgr := NewManager()
	mgr.now = func() time.Time { return now }

	mgr.GetOrCreate("stale")
	busy := mgr.GetOrCreate("busy")
	busy.EnqueuePending("waiting")

	now = now.Add(2 * time.Hour)
	mgr.GetOrCreate("fresh")

	assert.Equal(t, 0, mgr.Prune(0))
	assert.Equal(t, 1, mgr.Prune(time.Hour))

	_, err := mgr.Get("stale")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = mgr.Get("busy")
	assert.NoError(t, err)
	_, err = mgr.Get("fresh")
	assert.NoError(t, err)
}

func TestManager_Close(t *testing.T) {
	mgr := NewManager()
	mgr.GetOrCreate("a")
	require.NoError(t, mgr.Close())
	assert.Equal(t, 0, mgr.Len())
}

func TestManager_ConcurrentGetOrCreate(t *testing.T) {
	mgr := NewManager()
	var wg sync.WaitGroup
	results := make([]*Session, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := mgr.GetOrCreate("shared")
			s.Append(msg(fmt.Sprintf("p%d", i)))
			results[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 20, results[0].Stats().Messages)
	assert.Equal(t, 1, mgr.Len())
}
