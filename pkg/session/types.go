// Package session keeps per-conversation history in memory. A session holds
// an ordered message history, a redo buffer of undone messages, and a FIFO
// queue of prompts deferred for later processing.
package session

import (
	"time"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/google/uuid"
)

// Message is one recorded exchange. Messages are immutable once created.
type Message struct {
	// ID is the unique identifier for this message.
	ID string `json:"id"`
	// UserPrompt is the prompt as submitted.
	UserPrompt string `json:"user_prompt"`
	// AIResponse is the text returned by the provider.
	AIResponse string `json:"ai_response"`
	// Category is the classification of the prompt.
	Category classifier.Category `json:"category"`
	// ProviderID identifies the provider that answered.
	ProviderID string `json:"provider_id"`
	// ProviderName is the provider's display name.
	ProviderName string `json:"provider_name"`
	// CreatedAt is when the exchange completed.
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message stamped with a fresh id and the current time.
func NewMessage(prompt, response string, category classifier.Category, providerID, providerName string) *Message {
	return &Message{
		ID:           uuid.New().String(),
		UserPrompt:   prompt,
		AIResponse:   response,
		Category:     category,
		ProviderID:   providerID,
		ProviderName: providerName,
		CreatedAt:    time.Now().UTC(),
	}
}

// Stats is a read-only snapshot of session sizes.
type Stats struct {
	Messages int `json:"messages"`
	Pending  int `json:"pending"`
	// Undo is the number of messages that can be undone.
	Undo int `json:"undo"`
	Redo int `json:"redo"`
}
