// Package timer keeps the mob timer as a small state file so that every
// mob process on the machine sees the same countdown.
package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"

	"github.com/zjrosen/mob/internal/log"
)

// ErrNotRunning is returned when no timer is active.
var ErrNotRunning = errors.New("timer is not running")

// ErrStopped is returned by Wait when the timer is stopped before expiry.
var ErrStopped = errors.New("timer was stopped")

// State is the persisted timer.
type State struct {
	StartedAt time.Time `json:"started_at"`
	EndsAt    time.Time `json:"ends_at"`
	Minutes   int       `json:"minutes"`
	Sound     bool      `json:"sound"`
}

// Remaining is the time left at now, never negative.
func (s State) Remaining(now time.Time) time.Duration {
	return max(s.EndsAt.Sub(now), 0)
}

// Service reads and writes the timer state file.
type Service struct {
	path   string
	notify bool
	now    func() time.Time
	alert  func(title, message string) error
	beep   func() error
}

// Option configures a Service.
type Option func(*Service)

// WithNotify toggles the desktop notification on expiry.
func WithNotify(enabled bool) Option {
	return func(s *Service) { s.notify = enabled }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAlerts replaces the desktop notification and beep.
func WithAlerts(notify func(title, message string) error, beep func() error) Option {
	return func(s *Service) {
		s.alert = notify
		s.beep = beep
	}
}

// NewService returns a timer persisted at path.
func NewService(path string, opts ...Option) *Service {
	s := &Service{
		path:   path,
		notify: true,
		now:    time.Now,
		alert: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file location.
func (s *Service) Path() string {
	return s.path
}

// Current returns the active timer or ErrNotRunning. An expired timer is
// not running.
func (s *Service) Current() (State, error) {
	st, err := s.read()
	if err != nil {
		return State{}, err
	}
	if !st.EndsAt.After(s.now()) {
		return State{}, ErrNotRunning
	}
	return st, nil
}

// IsRunning reports whether an unexpired timer exists.
func (s *Service) IsRunning() bool {
	_, err := s.Current()
	return err == nil
}

// Start begins a countdown of minutes, replacing any previous timer.
func (s *Service) Start(minutes int, sound bool) error {
	if minutes <= 0 {
		return fmt.Errorf("timer minutes must be positive, got %d", minutes)
	}
	now := s.now()
	st := State{
		StartedAt: now,
		EndsAt:    now.Add(time.Duration(minutes) * time.Minute),
		Minutes:   minutes,
		Sound:     sound,
	}
	if err := s.write(st); err != nil {
		return err
	}
	log.Info(log.CatTimer, "timer started", "minutes", minutes, "sound", sound, "ends_at", st.EndsAt)
	return nil
}

// Stop cancels the timer. Stopping a stopped timer is not an error.
func (s *Service) Stop() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stopping timer: %w", err)
	}
	log.Info(log.CatTimer, "timer stopped")
	return nil
}

// Wait blocks until the timer expires, then alerts and clears it. A timer
// restarted by another process extends the wait; one stopped by another
// process ends it with ErrStopped.
func (s *Service) Wait(ctx context.Context) error {
	st, err := s.read()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watching timer: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching timer: %w", err)
	}

	for {
		remaining := st.Remaining(s.now())
		if remaining == 0 {
			s.expire(st)
			return nil
		}
		deadline := time.NewTimer(remaining)

		select {
		case <-ctx.Done():
			deadline.Stop()
			return ctx.Err()

		case <-deadline.C:
			// Re-read in case a restart raced the deadline.
			next, err := s.read()
			if errors.Is(err, ErrNotRunning) {
				return ErrStopped
			}
			if err != nil {
				return err
			}
			st = next

		case ev, ok := <-watcher.Events:
			deadline.Stop()
			if !ok {
				return errors.New("timer watch closed")
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			next, err := s.read()
			if errors.Is(err, ErrNotRunning) {
				log.Info(log.CatTimer, "timer stopped while waiting")
				return ErrStopped
			}
			if err != nil {
				// Partially written file; the next event carries the rest.
				log.Debug(log.CatTimer, "unreadable timer state", "error", err)
				continue
			}
			if !next.EndsAt.Equal(st.EndsAt) {
				log.Info(log.CatTimer, "timer changed while waiting", "ends_at", next.EndsAt)
			}
			st = next

		case err, ok := <-watcher.Errors:
			deadline.Stop()
			if !ok {
				return errors.New("timer watch closed")
			}
			log.Warn(log.CatTimer, "timer watch error", "error", err)
		}
	}
}

func (s *Service) expire(st State) {
	log.Info(log.CatTimer, "timer expired", "minutes", st.Minutes)
	if s.notify {
		msg := fmt.Sprintf("%d minutes are up. Hand over to the next typist.", st.Minutes)
		if err := s.alert("mob timer", msg); err != nil {
			log.Warn(log.CatTimer, "notification failed", "error", err)
		}
	}
	if st.Sound {
		if err := s.beep(); err != nil {
			log.Warn(log.CatTimer, "beep failed", "error", err)
		}
	}
	if err := s.Stop(); err != nil {
		log.Warn(log.CatTimer, "clearing expired timer failed", "error", err)
	}
}

func (s *Service) read() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, ErrNotRunning
	}
	if err != nil {
		return State{}, fmt.Errorf("reading timer: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decoding timer %s: %w", s.path, err)
	}
	return st, nil
}

// write replaces the state file atomically so watchers never see a
// partial document.
func (s *Service) write(st State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating timer directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding timer: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".timer-*.json")
	if err != nil {
		return fmt.Errorf("writing timer: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing timer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing timer: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing timer: %w", err)
	}
	return nil
}
