package inference

import "context"

// RoleUser is the conversation role the orchestrator submits prompts under.
const RoleUser = "user"

// Message is one entry of an ordered chat completion conversation.
type Message struct {
	Role    string
	Content string
}

// Client is implemented by inference transports, e.g. the Hugging Face APIs.
type Client interface {
	// Name returns the name of the backing provider, e.g. "huggingface".
	Name() string

	// ImageToText invokes the named vision model over the provided image
	// bytes and returns the generated text. The image data should be the
	// full contents of the uploaded file including any header.
	ImageToText(ctx context.Context, image []byte, model string) (string, error)

	// ChatCompletion invokes the named chat model over the ordered messages
	// and returns the content of the first returned choice's message.
	ChatCompletion(ctx context.Context, model string, messages []Message, maxTokens int, temperature float64) (string, error)

	// IsHealthy returns whether the inference endpoint is responding.
	IsHealthy() bool
}
