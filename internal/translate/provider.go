// Package translate turns completed source-language sentences into
// per-language translations via a streaming chat provider, one worker
// per target language with bounded conversation history for context.
package translate

import "context"

// Chat roles used in translation requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a translation conversation. History pairs
// alternate user (source sentence) and assistant (translation) so the
// model keeps terminology consistent across a session.
type ChatMessage struct {
	Role    string
	Content string
}

// Request is a single translation call. The system prompt and history
// are rebuilt fresh for every call; providers must not retain state
// between requests.
type Request struct {
	SystemPrompt string
	History      []ChatMessage
	Input        string
}

// Chunk is one streamed piece of the model's reply. A non-nil Err
// terminates the stream.
type Chunk struct {
	Text string
	Err  error
}

// Provider streams chat completions. The returned channel is closed
// when the stream ends, after an error chunk if the stream failed.
type Provider interface {
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}
