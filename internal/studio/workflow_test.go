package studio

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeDriver implements Driver with overridable behavior and a call log.
type fakeDriver struct {
	gotoFn        func(url string, timeout time.Duration) error
	waitForURLFn  func(pattern string, timeout time.Duration) error
	waitVisibleFn func(selector string, timeout time.Duration) error
	clickFn       func(selector string, timeout time.Duration) error
	fillFn        func(selector, text string, timeout time.Duration) error
	downloadFn    func(selector, dest string, timeout time.Duration) error
	stateFn       func() ([]byte, error)

	calls  []string
	closed bool
}

func (f *fakeDriver) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) Goto(url string, timeout time.Duration) error {
	f.record("goto %s", url)
	if f.gotoFn != nil {
		return f.gotoFn(url, timeout)
	}
	return nil
}

func (f *fakeDriver) WaitForURL(pattern string, timeout time.Duration) error {
	f.record("wait-url %s", pattern)
	if f.waitForURLFn != nil {
		return f.waitForURLFn(pattern, timeout)
	}
	return nil
}

func (f *fakeDriver) WaitVisible(selector string, timeout time.Duration) error {
	f.record("wait %s", selector)
	if f.waitVisibleFn != nil {
		return f.waitVisibleFn(selector, timeout)
	}
	return nil
}

func (f *fakeDriver) Click(selector string, timeout time.Duration) error {
	f.record("click %s", selector)
	if f.clickFn != nil {
		return f.clickFn(selector, timeout)
	}
	return nil
}

func (f *fakeDriver) Fill(selector, text string, timeout time.Duration) error {
	f.record("fill %s", selector)
	if f.fillFn != nil {
		return f.fillFn(selector, text, timeout)
	}
	return nil
}

func (f *fakeDriver) Download(selector, dest string, timeout time.Duration) error {
	f.record("download %s -> %s", selector, dest)
	if f.downloadFn != nil {
		return f.downloadFn(selector, dest, timeout)
	}
	return nil
}

func (f *fakeDriver) SessionState() ([]byte, error) {
	f.record("session-state")
	if f.stateFn != nil {
		return f.stateFn()
	}
	return []byte(strings.Repeat("s", 200)), nil
}

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

func testWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		CreateURL:     "https://studio.example/create",
		AudioDir:      "/tmp/audio",
		RenderTimeout: time.Minute,
		StepTimeout:   time.Second,
	}
}

func TestWorkflowHappyPath(t *testing.T) {
	d := &fakeDriver{}
	w := NewWorkflow(d, testWorkflowConfig())

	path, err := w.Run("[Verse 1]\nhello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(path, "/tmp/audio/song_") || !strings.HasSuffix(path, ".mp3") {
		t.Errorf("artifact path = %q", path)
	}

	wantOrder := []string{
		"goto https://studio.example/create",
		"wait " + selLyricsInput,
		"fill " + selLyricsInput,
		"click " + selCreateButton,
		"wait " + selTrackOptions,
		"click " + selTrackOptions,
		"click " + selDownloadEntry,
		"click " + selAudioFormat,
	}
	if len(d.calls) != len(wantOrder)+1 { // +1 for the download call
		t.Fatalf("got %d driver calls: %v", len(d.calls), d.calls)
	}
	for i, want := range wantOrder {
		if d.calls[i] != want {
			t.Errorf("call %d = %q, want %q", i, d.calls[i], want)
		}
	}
	if !strings.HasPrefix(d.calls[len(d.calls)-1], "download "+selConfirmPrompt) {
		t.Errorf("last call = %q, want download", d.calls[len(d.calls)-1])
	}
}

func TestWorkflowArtifactNamesAreUnique(t *testing.T) {
	d := &fakeDriver{}
	w := NewWorkflow(d, testWorkflowConfig())

	first, err := w.Run("lyrics")
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Run("lyrics")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("two runs produced the same artifact path %q", first)
	}
}

func TestWorkflowFailureNamesStepAndStops(t *testing.T) {
	boom := errors.New("element not found")

	cases := []struct {
		name     string
		wantStep Step
		sabotage func(d *fakeDriver)
	}{
		{
			name:     "navigation fails",
			wantStep: StepOpenStudio,
			sabotage: func(d *fakeDriver) {
				d.gotoFn = func(string, time.Duration) error { return boom }
			},
		},
		{
			name:     "lyrics input never appears",
			wantStep: StepFillLyrics,
			sabotage: func(d *fakeDriver) {
				d.waitVisibleFn = func(sel string, _ time.Duration) error {
					if sel == selLyricsInput {
						return boom
					}
					return nil
				}
			},
		},
		{
			name:     "lyrics fill fails",
			wantStep: StepFillLyrics,
			sabotage: func(d *fakeDriver) {
				d.fillFn = func(string, string, time.Duration) error { return boom }
			},
		},
		{
			name:     "create button fails",
			wantStep: StepTriggerCreate,
			sabotage: func(d *fakeDriver) {
				d.clickFn = func(sel string, _ time.Duration) error {
					if sel == selCreateButton {
						return boom
					}
					return nil
				}
			},
		},
		{
			name:     "render times out",
			wantStep: StepAwaitRender,
			sabotage: func(d *fakeDriver) {
				d.waitVisibleFn = func(sel string, _ time.Duration) error {
					if sel == selTrackOptions {
						return boom
					}
					return nil
				}
			},
		},
		{
			name:     "options menu fails",
			wantStep: StepOpenMenu,
			sabotage: func(d *fakeDriver) {
				d.clickFn = func(sel string, _ time.Duration) error {
					if sel == selTrackOptions {
						return boom
					}
					return nil
				}
			},
		},
		{
			name:     "download entry fails",
			wantStep: StepSelectDownload,
			sabotage: func(d *fakeDriver) {
				d.clickFn = func(sel string, _ time.Duration) error {
					if sel == selDownloadEntry {
						return boom
					}
					return nil
				}
			},
		},
		{
			name:     "format choice fails",
			wantStep: StepSelectFormat,
			sabotage: func(d *fakeDriver) {
				d.clickFn = func(sel string, _ time.Duration) error {
					if sel == selAudioFormat {
						return boom
					}
					return nil
				}
			},
		},
		{
			name:     "save fails",
			wantStep: StepSaveArtifact,
			sabotage: func(d *fakeDriver) {
				d.downloadFn = func(string, string, time.Duration) error { return boom }
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDriver{}
			tc.sabotage(d)
			w := NewWorkflow(d, testWorkflowConfig())

			_, err := w.Run("lyrics")
			if err == nil {
				t.Fatal("Run succeeded despite sabotage")
			}

			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("error %v is not a StepError", err)
			}
			if stepErr.Step != tc.wantStep {
				t.Errorf("failed step = %s, want %s", stepErr.Step, tc.wantStep)
			}
			if !errors.Is(err, boom) {
				t.Errorf("StepError does not wrap the cause: %v", err)
			}

			// Nothing after the failure point may have executed.
			if tc.wantStep != StepSaveArtifact {
				for _, call := range d.calls {
					if strings.HasPrefix(call, "download ") {
						t.Errorf("download executed after failure at %s", tc.wantStep)
					}
				}
			}
		})
	}
}
