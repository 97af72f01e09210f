package studio

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLoginConfig() LoginConfig {
	return LoginConfig{
		EntryURL:       "https://studio.example/",
		LandingPattern: "**/home",
		LoginTimeout:   time.Minute,
		StepTimeout:    time.Second,
	}
}

func TestLoginSavesSession(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	state := bytes.Repeat([]byte("c"), 300)
	d := &fakeDriver{
		stateFn: func() ([]byte, error) { return state, nil },
	}

	if err := Login(d, store, testLoginConfig()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !store.Valid() {
		t.Fatal("session invalid after login")
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, state) {
		t.Error("persisted session differs from captured state")
	}

	clicked := false
	for _, call := range d.calls {
		if call == "click "+selSignIn {
			clicked = true
		}
	}
	if !clicked {
		t.Error("sign-in control present but never activated")
	}
}

func TestLoginSignInAbsentIsNotFatal(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	d := &fakeDriver{
		waitVisibleFn: func(sel string, _ time.Duration) error {
			if sel == selSignIn {
				return errors.New("timed out")
			}
			return nil
		},
	}

	if err := Login(d, store, testLoginConfig()); err != nil {
		t.Fatalf("Login with absent sign-in control: %v", err)
	}
	for _, call := range d.calls {
		if strings.HasPrefix(call, "click ") {
			t.Errorf("unexpected click without sign-in control: %s", call)
		}
	}
	if !store.Valid() {
		t.Error("session not saved when already authenticated")
	}
}

func TestLoginLandingTimeoutIsFatal(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	timeout := errors.New("navigation timeout")
	d := &fakeDriver{
		waitForURLFn: func(string, time.Duration) error { return timeout },
	}

	err := Login(d, store, testLoginConfig())
	if !errors.Is(err, timeout) {
		t.Fatalf("Login = %v, want wrapped timeout", err)
	}
	if store.Valid() {
		t.Error("session saved despite failed login")
	}
	for _, call := range d.calls {
		if call == "session-state" {
			t.Error("session state captured despite failed login")
		}
	}
}

func TestLoginStateCaptureFailure(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	broken := errors.New("context gone")
	d := &fakeDriver{
		stateFn: func() ([]byte, error) { return nil, broken },
	}

	if err := Login(d, store, testLoginConfig()); !errors.Is(err, broken) {
		t.Fatalf("Login = %v, want wrapped capture error", err)
	}
	if store.Valid() {
		t.Error("session saved despite capture failure")
	}
}
