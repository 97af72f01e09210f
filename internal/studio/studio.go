package studio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrBusy is returned when a login or generation run is requested while
// another one is still in flight. Both flows hold an exclusive browser
// session and write the same session artifact, so concurrent runs are
// rejected rather than queued.
var ErrBusy = errors.New("another studio automation is already running")

// Config wires the Studio facade.
type Config struct {
	// EntryURL is the studio landing page used for login.
	EntryURL string
	// CreateURL is the composition page used for generation.
	CreateURL string
	// LandingPattern is the URL glob reached after login succeeds.
	LandingPattern string
	// AudioDir receives downloaded artifacts.
	AudioDir string
	// Headless controls the browser window; keep false so the user can
	// complete login and clear visual checks.
	Headless bool
	// SlowMoMillis delays each browser operation.
	SlowMoMillis float64
	// LoginTimeout bounds interactive credential entry.
	LoginTimeout time.Duration
	// RenderTimeout bounds the remote track render.
	RenderTimeout time.Duration
	// StepTimeout bounds every other UI interaction.
	StepTimeout time.Duration
}

// Defaults for unset Config durations.
const (
	defaultLoginTimeout  = 3 * time.Minute
	defaultRenderTimeout = 4 * time.Minute
	defaultStepTimeout   = 15 * time.Second
)

// Studio coordinates the browser automation flows: it owns the session
// artifact, guarantees at most one in-flight automation per process, and
// tears the browser down on every exit path.
type Studio struct {
	mu       sync.Mutex
	cfg      Config
	sessions *SessionStore

	// newDriver is swapped by tests for a deterministic double.
	// withSession restores the saved storage state into the browser.
	newDriver func(withSession bool) (Driver, error)
}

// New creates a Studio using Playwright-driven Chromium sessions.
func New(cfg Config, sessions *SessionStore) *Studio {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}

	s := &Studio{cfg: cfg, sessions: sessions}
	s.newDriver = func(withSession bool) (Driver, error) {
		opts := LaunchOptions{
			Headless:     cfg.Headless,
			SlowMoMillis: cfg.SlowMoMillis,
		}
		if withSession {
			opts.SessionFile = sessions.Path()
		}
		return NewPlaywrightDriver(opts)
	}
	return s
}

// Sessions returns the session store owned by this Studio.
func (s *Studio) Sessions() *SessionStore {
	return s.sessions
}

// EnsureSession makes sure a valid session artifact exists, running the
// interactive login flow when it doesn't. Login is never run speculatively:
// a valid artifact short-circuits without touching the browser.
func (s *Studio) EnsureSession() error {
	if s.sessions.Valid() {
		return nil
	}

	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()

	// Re-check under the lock: a concurrent login may have finished.
	if s.sessions.Valid() {
		return nil
	}

	slog.Info("no valid studio session, starting interactive login")
	driver, err := s.newDriver(false)
	if err != nil {
		return fmt.Errorf("launching browser for login: %w", err)
	}
	defer driver.Close()

	return Login(driver, s.sessions, LoginConfig{
		EntryURL:       s.cfg.EntryURL,
		LandingPattern: s.cfg.LandingPattern,
		LoginTimeout:   s.cfg.LoginTimeout,
		StepTimeout:    s.cfg.StepTimeout,
	})
}

// GenerateAudio runs the full generation workflow with the saved session and
// returns the path of the downloaded artifact. The session must already be
// valid (see EnsureSession). Exactly one automation runs at a time; a second
// caller gets ErrBusy immediately.
func (s *Studio) GenerateAudio(lyrics string) (string, error) {
	if !s.sessions.Valid() {
		return "", ErrSessionMissing
	}

	if !s.mu.TryLock() {
		return "", ErrBusy
	}
	defer s.mu.Unlock()

	driver, err := s.newDriver(true)
	if err != nil {
		return "", fmt.Errorf("launching browser for generation: %w", err)
	}
	defer driver.Close()

	workflow := NewWorkflow(driver, WorkflowConfig{
		CreateURL:     s.cfg.CreateURL,
		AudioDir:      s.cfg.AudioDir,
		RenderTimeout: s.cfg.RenderTimeout,
		StepTimeout:   s.cfg.StepTimeout,
	})
	return workflow.Run(lyrics)
}
