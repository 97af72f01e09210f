package studio

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStudio(t *testing.T, d Driver) *Studio {
	t.Helper()
	cfg := Config{
		EntryURL:       "https://studio.example/",
		CreateURL:      "https://studio.example/create",
		LandingPattern: "**/home",
		AudioDir:       t.TempDir(),
	}
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	s := New(cfg, store)
	s.newDriver = func(bool) (Driver, error) { return d, nil }
	return s
}

func seedValidSession(t *testing.T, s *Studio) {
	t.Helper()
	if err := s.Sessions().Save(bytes.Repeat([]byte("s"), 200)); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureSessionSkipsLoginWhenValid(t *testing.T) {
	d := &fakeDriver{}
	s := newTestStudio(t, d)
	seedValidSession(t, s)

	if err := s.EnsureSession(); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if len(d.calls) != 0 {
		t.Errorf("browser touched despite valid session: %v", d.calls)
	}
}

func TestEnsureSessionRunsLoginWhenInvalid(t *testing.T) {
	d := &fakeDriver{}
	s := newTestStudio(t, d)

	if err := s.EnsureSession(); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if !s.Sessions().Valid() {
		t.Error("no valid session after EnsureSession")
	}
	if len(d.calls) == 0 {
		t.Error("login never touched the browser")
	}
	if !d.closed {
		t.Error("driver not closed after login")
	}
}

func TestEnsureSessionClosesDriverOnFailure(t *testing.T) {
	d := &fakeDriver{
		waitForURLFn: func(string, time.Duration) error {
			return errors.New("navigation timeout")
		},
	}
	s := newTestStudio(t, d)

	if err := s.EnsureSession(); err == nil {
		t.Fatal("EnsureSession succeeded despite login failure")
	}
	if !d.closed {
		t.Error("driver leaked after failed login")
	}
}

func TestGenerateAudioRequiresSession(t *testing.T) {
	d := &fakeDriver{}
	s := newTestStudio(t, d)

	if _, err := s.GenerateAudio("lyrics"); !errors.Is(err, ErrSessionMissing) {
		t.Fatalf("GenerateAudio without session = %v, want ErrSessionMissing", err)
	}
	if len(d.calls) != 0 {
		t.Errorf("browser touched without a session: %v", d.calls)
	}
}

func TestGenerateAudioProducesArtifactPath(t *testing.T) {
	d := &fakeDriver{}
	s := newTestStudio(t, d)
	seedValidSession(t, s)

	path, err := s.GenerateAudio("[Verse 1]\nhello")
	if err != nil {
		t.Fatalf("GenerateAudio: %v", err)
	}
	if !strings.HasSuffix(path, ".mp3") {
		t.Errorf("artifact path = %q", path)
	}
	if !d.closed {
		t.Error("driver not closed after generation")
	}
}

func TestGenerateAudioClosesDriverOnFailure(t *testing.T) {
	d := &fakeDriver{
		downloadFn: func(string, string, time.Duration) error {
			return errors.New("download blocked")
		},
	}
	s := newTestStudio(t, d)
	seedValidSession(t, s)

	if _, err := s.GenerateAudio("lyrics"); err == nil {
		t.Fatal("GenerateAudio succeeded despite sabotage")
	}
	if !d.closed {
		t.Error("driver leaked after failed generation")
	}
}

func TestGenerateAudioRejectsConcurrentRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	d := &fakeDriver{
		gotoFn: func(string, time.Duration) error {
			close(started)
			<-release
			return nil
		},
	}
	s := newTestStudio(t, d)
	seedValidSession(t, s)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := s.GenerateAudio("lyrics"); err != nil {
			t.Errorf("first run: %v", err)
		}
	}()

	<-started
	if _, err := s.GenerateAudio("lyrics"); !errors.Is(err, ErrBusy) {
		t.Errorf("second run = %v, want ErrBusy", err)
	}
	close(release)
	wg.Wait()
}

func TestEnsureSessionRejectsConcurrentLogin(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	d := &fakeDriver{
		gotoFn: func(string, time.Duration) error {
			close(started)
			<-release
			return nil
		},
	}
	s := newTestStudio(t, d)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.EnsureSession(); err != nil {
			t.Errorf("first login: %v", err)
		}
	}()

	<-started
	if err := s.EnsureSession(); !errors.Is(err, ErrBusy) {
		t.Errorf("second login = %v, want ErrBusy", err)
	}
	close(release)
	wg.Wait()
}
