package domain

// ChatMessage is the provider-agnostic chat message shape sent to
// chat-style model runtimes.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
