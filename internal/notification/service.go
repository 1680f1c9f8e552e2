package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
)

// Service fans sync notifications out to every configured channel
type Service struct {
	discord *DiscordService
}

// NewService creates a notification service. Without a webhook URL it is a no-op.
func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		discord: discord,
	}
}

func (s *Service) SendSuccess(ctx context.Context, report domain.SyncReport) error {
	if s.discord == nil {
		return nil
	}
	return s.discord.SendSuccess(ctx, report)
}

func (s *Service) SendError(ctx context.Context, err error) error {
	if s.discord == nil {
		return nil
	}
	return s.discord.SendError(ctx, err)
}
