package studio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Step names one unit of the generation workflow. Each step has its own
// timeout and failure reporting; a failed step aborts the run.
type Step string

const (
	StepOpenStudio     Step = "open-studio"
	StepFillLyrics     Step = "fill-lyrics"
	StepTriggerCreate  Step = "trigger-create"
	StepAwaitRender    Step = "await-render"
	StepOpenMenu       Step = "open-menu"
	StepSelectDownload Step = "select-download"
	StepSelectFormat   Step = "select-format"
	StepSaveArtifact   Step = "save-artifact"
)

// StepError reports which workflow step failed and why. The workflow never
// resumes from a failed step; callers restart from the beginning.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Selectors for the studio UI. These are the parts most likely to break when
// the remote app changes, which is why every activation is its own step.
const (
	selLyricsInput    = "textarea"
	selCreateButton   = `button:has-text("Create")`
	selTrackOptions   = `button[aria-label="More Options"]`
	selDownloadEntry  = "text=Download"
	selAudioFormat    = "text=MP3 Audio"
	selConfirmPrompt  = "text=Download Anyway"
)

// WorkflowConfig bounds each phase of the generation run.
type WorkflowConfig struct {
	// CreateURL is the studio's composition page.
	CreateURL string
	// AudioDir receives downloaded artifacts.
	AudioDir string
	// RenderTimeout bounds the wait for the track to finish rendering.
	// Remote generation is slow and may need the user to clear a visual
	// anti-automation check, so this is on the order of minutes.
	RenderTimeout time.Duration
	// StepTimeout bounds every other UI interaction.
	StepTimeout time.Duration
}

// Workflow drives the studio through composition, rendering, and artifact
// retrieval. It is a linear sequence with no backward transitions: any step
// failure aborts the run with a StepError naming the step, and no later step
// executes.
type Workflow struct {
	driver Driver
	cfg    WorkflowConfig
}

// NewWorkflow creates a Workflow over an already-authenticated driver.
func NewWorkflow(d Driver, cfg WorkflowConfig) *Workflow {
	return &Workflow{driver: d, cfg: cfg}
}

// Run submits lyrics, triggers generation, waits for the render, walks the
// download menu, and saves the audio artifact. It returns the saved file
// path. The run performs no retries; the caller decides whether to start
// over after a failure.
func (w *Workflow) Run(lyrics string) (string, error) {
	if err := w.driver.Goto(w.cfg.CreateURL, w.cfg.StepTimeout*4); err != nil {
		return "", &StepError{Step: StepOpenStudio, Err: err}
	}
	slog.Info("studio composition page open")

	if err := w.driver.WaitVisible(selLyricsInput, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepFillLyrics, Err: err}
	}
	if err := w.driver.Fill(selLyricsInput, lyrics, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepFillLyrics, Err: err}
	}
	slog.Info("lyrics submitted", "chars", len(lyrics))

	if err := w.driver.Click(selCreateButton, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepTriggerCreate, Err: err}
	}
	slog.Info("generation triggered, waiting for render",
		"timeout", w.cfg.RenderTimeout.String())

	// The longest and most failure-prone wait: the track options control
	// only appears once the remote side has finished rendering (and the
	// user has cleared any visual check). Its timeout must not disturb the
	// steps already completed.
	if err := w.driver.WaitVisible(selTrackOptions, w.cfg.RenderTimeout); err != nil {
		return "", &StepError{Step: StepAwaitRender, Err: err}
	}
	slog.Info("track rendered")

	if err := w.driver.Click(selTrackOptions, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepOpenMenu, Err: err}
	}
	if err := w.driver.Click(selDownloadEntry, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepSelectDownload, Err: err}
	}
	if err := w.driver.Click(selAudioFormat, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepSelectFormat, Err: err}
	}

	dest := filepath.Join(w.cfg.AudioDir, artifactName())
	if err := w.driver.Download(selConfirmPrompt, dest, w.cfg.StepTimeout); err != nil {
		return "", &StepError{Step: StepSaveArtifact, Err: err}
	}
	slog.Info("audio artifact saved", "path", dest)

	return dest, nil
}

// artifactName builds a collision-free file name: the creation time keeps
// artifacts sortable, the random suffix separates runs within a second.
func artifactName() string {
	return fmt.Sprintf("song_%d_%s.mp3", time.Now().Unix(), uuid.NewString()[:8])
}
