package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResetStore struct {
	mu       sync.Mutex
	calls    []time.Time
	affected int64
	err      error
}

func (f *fakeResetStore) ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.affected, f.err
}

func (f *fakeResetStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestResetTokenSweeper_Sweep(t *testing.T) {
	store := &fakeResetStore{affected: 3}
	w := NewResetTokenSweeper(nil, store, time.Minute)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	n, err := w.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, store.calls, 1)
	assert.Equal(t, fixed, store.calls[0])
}

func TestResetTokenSweeper_SweepError(t *testing.T) {
	store := &fakeResetStore{err: errors.New("db down")}
	w := NewResetTokenSweeper(nil, store, time.Minute)

	n, err := w.Sweep()
	assert.EqualError(t, err, "db down")
	assert.Zero(t, n)
}

func TestResetTokenSweeper_DefaultInterval(t *testing.T) {
	w := NewResetTokenSweeper(nil, &fakeResetStore{}, 0)
	assert.Equal(t, time.Hour, w.interval)
}

func TestResetTokenSweeper_RunsOnTickAndStops(t *testing.T) {
	store := &fakeResetStore{}
	w := NewResetTokenSweeper(nil, store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
