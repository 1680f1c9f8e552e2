package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
)

const (
	colorSuccess = 0x00ff00
	colorFailure = 0xff0000
)

// DiscordService posts sync summaries to a Discord webhook
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

func (s *DiscordService) SendSuccess(ctx context.Context, report domain.SyncReport) error {
	kind := "Incremental"
	if report.Full {
		kind = "Full"
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("metasync: %s sync committed", kind),
		Description: "Catalog watermarks and lookup cache were saved",
		Color:       colorSuccess,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		Fields: []discordField{
			classField("Series", report.Series),
			classField("Movies", report.Movies),
		},
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func (s *DiscordService) SendError(ctx context.Context, err error) error {
	embed := discordEmbed{
		Title:       "metasync: sync failed",
		Description: fmt.Sprintf("Sync failed with error:\n```%s```", err.Error()),
		Color:       colorFailure,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func classField(name string, r domain.ClassSyncReport) discordField {
	return discordField{
		Name:   name,
		Value:  fmt.Sprintf("%d in catalog, %d processed, %d resolved (%.1f%%)", r.Total, r.Planned, r.Resolved, r.ResolvedPercent()),
		Inline: false,
	}
}

func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
