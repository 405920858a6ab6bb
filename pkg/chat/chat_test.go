package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"question", "Who rules the citadel?", false},
		{"empty", "", true},
		{"whitespace", "  \n\t ", true},
		{"at limit", strings.Repeat("a", MaxMessageLength), false},
		{"over limit", strings.Repeat("a", MaxMessageLength+1), true},
		{"multibyte at limit", strings.Repeat("é", MaxMessageLength), false},
		{"multibyte over limit", strings.Repeat("語", MaxMessageLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ChatRequest{Message: tt.message}
			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, ChatMessage{Role: "user", Content: "hi"}, NewUserMessage("hi"))
	assert.Equal(t, ChatMessage{Role: "assistant", Content: "well met"}, NewAgentMessage("well met"))
}
