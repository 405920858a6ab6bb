package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	ChatRoleUser  = "user"      // Player
	ChatRoleAgent = "assistant" // Lore assistant
)

// MaxMessageLength bounds a single lore question.
const MaxMessageLength = 2000

// ChatMessage represents a single message in a lore chat transcript.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest represents a lore question submitted by the player.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply and the transcript so far.
// Fallback is set when the reply is the stand-in for a failed call.
type ChatResponse struct {
	Reply       string        `json:"reply"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
	Fallback    bool          `json:"fallback,omitempty"`
}

func (cr *ChatRequest) Validate() error {
	if strings.TrimSpace(cr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if utf8.RuneCountInString(cr.Message) > MaxMessageLength {
		return fmt.Errorf("message must be at most %d characters", MaxMessageLength)
	}
	return nil
}

func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: content}
}

func NewAgentMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleAgent, Content: content}
}
