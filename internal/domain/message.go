package domain

// Prompt is one language-model request: a system instruction and a single user message.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
}

// ChatMessage is an outbound chat notification.
type ChatMessage struct {
	ChatID         string
	Text           string
	Markdown       bool
	DisablePreview bool
}
