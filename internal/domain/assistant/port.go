package assistant

import "context"

// Client port for the conversational assistant backend
type Client interface {
	Chat(ctx context.Context, message, systemContext string) (string, error)
}
