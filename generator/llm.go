package generator

import "context"

// LLMClient abstracts the chat completions gateway so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, route Route, prompt Prompt) (Completion, error)
}

// Completion is the part of a chat completion the pipeline reads.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	// Images are image locators returned by image-capable models.
	Images []string
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	Name      string
	Arguments string
}

// LLMSettings holds transport options shared by every route.
type LLMSettings struct {
	MaxRetries int
}
