package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ProduceRequest carries a photo description and the style knobs for a song.
type ProduceRequest struct {
	Description string
	Mood        string
	Genre       string
	Language    string
}

// Production is the outcome of a song production run. AudioPath is empty when
// the run degraded to lyrics only; AudioError then explains why.
type Production struct {
	Lyrics     string `json:"lyrics"`
	AudioPath  string `json:"audio_path,omitempty"`
	AudioError string `json:"audio_error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// LyricsWriter generates song lyrics from a description.
type LyricsWriter interface {
	Write(ctx context.Context, description, mood, genre, language string) (string, error)
}

// AudioStudio renders lyrics into an audio artifact through the external
// studio. EnsureSession must leave a valid session behind before
// GenerateAudio is called.
type AudioStudio interface {
	EnsureSession() error
	GenerateAudio(lyrics string) (string, error)
}

// Producer turns a photo description into a finished song: lyrics first, then
// audio through the studio automation.
type Producer struct {
	writer LyricsWriter
	studio AudioStudio
}

// NewProducer wires a Producer to its lyrics writer and studio.
func NewProducer(writer LyricsWriter, studio AudioStudio) *Producer {
	return &Producer{writer: writer, studio: studio}
}

// Produce writes lyrics and drives the studio to render them.
//
// A lyrics failure fails the request. An audio failure (session, busy studio,
// or a workflow step) degrades to a lyrics-only result so the user keeps the
// text even when the browser automation falls over.
func (p *Producer) Produce(ctx context.Context, req ProduceRequest) (*Production, error) {
	start := time.Now()

	text, err := p.writer.Write(ctx, req.Description, req.Mood, req.Genre, req.Language)
	if err != nil {
		return nil, fmt.Errorf("writing lyrics: %w", err)
	}

	out := &Production{Lyrics: text}
	if path, err := p.renderAudio(text); err != nil {
		slog.Warn("audio generation failed, returning lyrics only", "error", err)
		out.AudioError = err.Error()
	} else {
		out.AudioPath = path
	}

	out.DurationMs = time.Since(start).Milliseconds()
	return out, nil
}

func (p *Producer) renderAudio(text string) (string, error) {
	if err := p.studio.EnsureSession(); err != nil {
		return "", fmt.Errorf("preparing studio session: %w", err)
	}
	path, err := p.studio.GenerateAudio(text)
	if err != nil {
		return "", fmt.Errorf("rendering audio: %w", err)
	}
	return path, nil
}
