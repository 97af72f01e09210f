package studio

import (
	"fmt"
	"log/slog"
	"time"
)

// LoginConfig bounds the interactive authentication flow.
type LoginConfig struct {
	// EntryURL is the studio landing page.
	EntryURL string
	// LandingPattern is the URL glob reached after a successful login.
	LandingPattern string
	// LoginTimeout bounds the wait for the user to complete interactive
	// credential entry. Minutes, not seconds: a human is typing.
	LoginTimeout time.Duration
	// StepTimeout bounds the non-interactive navigation steps.
	StepTimeout time.Duration
}

const selSignIn = "text=Sign In"

// Login drives the studio's sign-in sequence once and persists the resulting
// session through store. The sign-in control being absent is treated as
// already authenticated, not as a failure. A timeout waiting for the
// authenticated landing page is fatal; the caller must re-invoke to retry.
func Login(d Driver, store *SessionStore, cfg LoginConfig) error {
	if err := d.Goto(cfg.EntryURL, cfg.StepTimeout*4); err != nil {
		return fmt.Errorf("opening studio entry page: %w", err)
	}
	slog.Info("studio entry page open", "url", cfg.EntryURL)

	if err := d.WaitVisible(selSignIn, cfg.StepTimeout); err != nil {
		slog.Info("sign-in control not found, assuming already authenticated")
	} else if err := d.Click(selSignIn, cfg.StepTimeout); err != nil {
		return fmt.Errorf("activating sign-in: %w", err)
	}

	slog.Info("waiting for interactive login to complete",
		"timeout", cfg.LoginTimeout.String())
	if err := d.WaitForURL(cfg.LandingPattern, cfg.LoginTimeout); err != nil {
		return fmt.Errorf("login did not complete in %s: %w", cfg.LoginTimeout, err)
	}

	state, err := d.SessionState()
	if err != nil {
		return fmt.Errorf("capturing session state: %w", err)
	}
	if err := store.Save(state); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	slog.Info("studio session saved", "path", store.Path(), "bytes", len(state))
	return nil
}
