package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/briquette/internal/config"
	"github.com/mamadbah2/briquette/internal/domain/models"
)

// Client delivers KPI snapshots to an external webhook.
type Client interface {
	SendSnapshot(ctx context.Context, id string, snapshot models.ProfitSnapshot) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client. It returns nil when no URL is configured.
func NewClient(cfg config.NotifyConfig) *WebhookClient {
	if cfg.WebhookURL == "" {
		return nil
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &WebhookClient{httpClient: restyClient, url: cfg.WebhookURL}
}

// snapshotEvent is the JSON body posted to the webhook.
type snapshotEvent struct {
	Event    string                `json:"event"`
	ID       string                `json:"id"`
	Snapshot models.ProfitSnapshot `json:"snapshot"`
}

// SendSnapshot posts one snapshot. Any status >= 400 is an error; nothing is retried.
func (c *WebhookClient) SendSnapshot(ctx context.Context, id string, snapshot models.ProfitSnapshot) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(snapshotEvent{Event: "kpi.snapshot", ID: id, Snapshot: snapshot}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post kpi snapshot: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook rejected snapshot: status=%d, body=%s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
