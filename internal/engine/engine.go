package engine

import "context"

// Engine abstracts the local inference backend. Captioning, description
// refinement, lyrics writing, and embedding all go through this interface
// instead of depending on a concrete client, so tests can substitute a stub.
type Engine interface {
	// Chat sends messages to the given model and returns the assistant's
	// response. Messages may carry base64 images for vision models.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// Embed returns the embedding vector for the given text using the specified model.
	Embed(ctx context.Context, model string, text string) ([]float32, error)

	// IsRunning reports whether the inference backend is reachable.
	IsRunning(ctx context.Context) bool

	// ListModels returns the names of all locally available models.
	ListModels(ctx context.Context) ([]string, error)

	// HasModel reports whether the given model name is available locally.
	HasModel(ctx context.Context, name string) bool

	// PullModel downloads a model. The optional callback receives progress updates.
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}
