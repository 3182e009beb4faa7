package timer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type alerts struct {
	mu       sync.Mutex
	notified []string
	beeps    int
}

func (a *alerts) notify(title, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notified = append(a.notified, title+": "+message)
	return nil
}

func (a *alerts) beep() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.beeps++
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *alerts) {
	t.Helper()
	a := &alerts{}
	path := filepath.Join(t.TempDir(), "state", "timer.json")
	return NewService(path, append([]Option{WithAlerts(a.notify, a.beep)}, opts...)...), a
}

func TestStartAndCurrent(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return now }))

	require.False(t, svc.IsRunning())
	require.NoError(t, svc.Start(10, true))
	require.True(t, svc.IsRunning())

	st, err := svc.Current()
	require.NoError(t, err)
	require.Equal(t, 10, st.Minutes)
	require.True(t, st.Sound)
	require.True(t, st.EndsAt.Equal(now.Add(10*time.Minute)))
	require.Equal(t, 10*time.Minute, st.Remaining(now))

	data, err := os.ReadFile(svc.Path())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "started_at")
	require.Contains(t, raw, "ends_at")
	require.EqualValues(t, 10, raw["minutes"])
}

func TestExpiredTimerIsNotRunning(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return now }))
	require.NoError(t, svc.Start(5, false))

	now = now.Add(5 * time.Minute)

	require.False(t, svc.IsRunning())
	_, err := svc.Current()
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestStartRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(t)
	require.Error(t, svc.Start(0, false))
	require.False(t, svc.IsRunning())
}

func TestStartUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	svc := NewService(filepath.Join(blocker, "timer.json"))

	require.Error(t, svc.Start(10, false))
}

func TestStop(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Stop(), "stopping a stopped timer")

	require.NoError(t, svc.Start(10, false))
	require.NoError(t, svc.Stop())
	require.False(t, svc.IsRunning())
}

func TestWait_NotRunning(t *testing.T) {
	svc, _ := newTestService(t)
	require.ErrorIs(t, svc.Wait(context.Background()), ErrNotRunning)
}

func TestWait_Expires(t *testing.T) {
	svc, a := newTestService(t)
	now := time.Now()
	require.NoError(t, svc.write(State{StartedAt: now, EndsAt: now.Add(150 * time.Millisecond), Minutes: 1, Sound: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))

	require.Equal(t, []string{"mob timer: 1 minutes are up. Hand over to the next typist."}, a.notified)
	require.Equal(t, 1, a.beeps)
	_, err := os.Stat(svc.Path())
	require.True(t, errors.Is(err, os.ErrNotExist), "expired timer is cleared")
}

func TestWait_NoNotifyNoSound(t *testing.T) {
	svc, a := newTestService(t, WithNotify(false))
	now := time.Now()
	require.NoError(t, svc.write(State{StartedAt: now, EndsAt: now.Add(50 * time.Millisecond), Minutes: 1}))

	require.NoError(t, svc.Wait(context.Background()))

	require.Empty(t, a.notified)
	require.Zero(t, a.beeps)
}

func TestWait_StoppedByAnotherProcess(t *testing.T) {
	svc, a := newTestService(t)
	require.NoError(t, svc.Start(10, false))

	other := NewService(svc.Path())
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = other.Stop()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.ErrorIs(t, svc.Wait(ctx), ErrStopped)
	require.Empty(t, a.notified)
}

func TestWait_RestartShortens(t *testing.T) {
	svc, a := newTestService(t)
	require.NoError(t, svc.Start(10, false))

	other := NewService(svc.Path())
	go func() {
		time.Sleep(100 * time.Millisecond)
		now := time.Now()
		_ = other.write(State{StartedAt: now, EndsAt: now.Add(100 * time.Millisecond), Minutes: 2})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))
	require.Len(t, a.notified, 1)
	require.Contains(t, a.notified[0], "2 minutes are up")
}

func TestWait_Cancelled(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Start(10, false))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)
	require.True(t, svc.IsRunning(), "cancelling a wait leaves the timer running")
}
