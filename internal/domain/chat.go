package domain

// ChatMessage is the provider-agnostic chat message shape passed from the
// summarizer to the completion engine.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionParams bounds a single completion call.
type CompletionParams struct {
	MaxTokens   int
	Temperature float32
}
