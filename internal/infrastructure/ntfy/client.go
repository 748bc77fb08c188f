package ntfy

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Config holds ntfy push configuration
type Config struct {
	Endpoint string // Base URL, e.g. https://ntfy.sh
	Topic    string // Topic the user's devices subscribe to
	Token    string // Optional access token for protected topics
}

// Client publishes push notifications to an ntfy topic. It implements
// domain.Notifier.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new ntfy client
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://ntfy.sh"
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Notify publishes one message to the configured topic. ntfy takes the body
// as plain text and metadata as headers.
func (c *Client) Notify(ctx context.Context, title, body string) error {
	url := strings.TrimSuffix(c.config.Endpoint, "/") + "/" + c.config.Topic

	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Tags", "stopwatch")
	req.Header.Set("Priority", "default")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	log.Printf("[ntfy] Publishing to topic %s: %s", c.config.Topic, title)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ntfy error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
