package chat

import (
	"context"

	"github.com/renuka1112/cyberspy/internal/domain/assistant"
)

type Service struct {
	client assistant.Client
}

func NewService(client assistant.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Chat(ctx context.Context, message, systemContext string) (string, error) {
	return s.client.Chat(ctx, message, systemContext)
}
