package llm

import (
	"context"
	"fmt"

	"github.com/avillegas/chatrelay/internal/domain"
)

// MockClient is a deterministic stand-in for the Gemini client, useful
// for local development and tests.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) GenerateReply(ctx context.Context, history []*domain.Message) (string, error) {
	last := lastUserText(history)
	return fmt.Sprintf("You said %q. Tell me more.", last), nil
}

func (m *MockClient) GenerateWithImage(ctx context.Context, history []*domain.Message, mimeType string, data []byte) (string, error) {
	last := lastUserText(history)
	return fmt.Sprintf("I looked at your %s image (%d bytes). You said %q.", mimeType, len(data), last), nil
}

func lastUserText(history []*domain.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser && len(history[i].Parts) > 0 {
			return history[i].Parts[0]
		}
	}
	return ""
}
