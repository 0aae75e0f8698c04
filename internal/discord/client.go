// Package discord is a thin REST adapter for the chat platform: it fetches
// channel messages, downloads voice-message attachments, and posts the
// finished episode back with a file attachment.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"loom/internal/services"
)

const (
	defaultBaseURL     = "https://discord.com/api/v10"
	defaultHTTPTimeout = 60 * time.Second
	messagePageLimit   = 100

	// discordEpochMs is the platform's snowflake epoch (2015-01-01 UTC).
	discordEpochMs = 1420070400000
)

// Config holds the bot credentials and channel routing.
type Config struct {
	BotToken       string
	ChannelID      string
	SendChannelID  string
	BaseURL        string
	TimeoutSeconds int
}

// Client talks to the platform REST API with bot authentication.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient overrides the transport, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a REST client from config.
func NewClient(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether the client has credentials to operate.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.BotToken) != "" && strings.TrimSpace(c.cfg.ChannelID) != ""
}

// Attachment is one uploaded file on a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
}

// IsAudio reports whether the attachment carries voice-message audio.
func (a Attachment) IsAudio() bool {
	return strings.Contains(a.ContentType, "audio")
}

// Author identifies the message sender.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

// Message is the subset of the message object the pipeline needs.
type Message struct {
	ID          string       `json:"id"`
	Author      Author       `json:"author"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
}

// snowflakeAfter converts a cutoff time to a snowflake ID so history
// pagination can use the API's `after` parameter.
func snowflakeAfter(cutoff time.Time) string {
	ms := cutoff.UnixMilli() - discordEpochMs
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
}

// FetchMessagesSince pages through channel history newer than the cutoff,
// oldest first. Pagination stops on a short page.
func (c *Client) FetchMessagesSince(ctx context.Context, cutoff time.Time) ([]Message, error) {
	if !c.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "discord", "fetch", "bot token or channel id missing", nil)
	}

	var collected []Message
	after := snowflakeAfter(cutoff)
	for {
		page, err := c.fetchPage(ctx, after)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		// The API returns newest-first; reverse for chronological order.
		for i := len(page) - 1; i >= 0; i-- {
			collected = append(collected, page[i])
		}
		after = collected[len(collected)-1].ID
		if len(page) < messagePageLimit {
			break
		}
	}
	return collected, nil
}

func (c *Client) fetchPage(ctx context.Context, after string) ([]Message, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/messages?%s", c.cfg.BaseURL, url.PathEscape(c.cfg.ChannelID),
		url.Values{"limit": {strconv.Itoa(messagePageLimit)}, "after": {after}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "discord", "fetch", "build request", err)
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "discord", "fetch", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "discord", "fetch", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalTool, "discord", "fetch",
			fmt.Sprintf("status %d: %s", resp.StatusCode, summarizeBody(body)), nil)
	}

	var page []Message
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "discord", "fetch", "decode response", err)
	}
	return page, nil
}

// DownloadAttachment streams an attachment to w. Attachment URLs are
// pre-signed CDN links and need no authentication.
func (c *Client) DownloadAttachment(ctx context.Context, attachment Attachment, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "discord", "download", attachment.Filename, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "discord", "download", attachment.Filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalTool, "discord", "download",
			fmt.Sprintf("%s: status %d", attachment.Filename, resp.StatusCode), nil)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return services.Wrap(services.ErrExternalTool, "discord", "download", attachment.Filename, err)
	}
	return nil
}

// SendFile posts a message with one file attachment to the publish channel.
// Falls back to the harvest channel when no publish channel is configured.
func (c *Client) SendFile(ctx context.Context, message, filePath string, content io.Reader) error {
	channelID := strings.TrimSpace(c.cfg.SendChannelID)
	if channelID == "" {
		channelID = strings.TrimSpace(c.cfg.ChannelID)
	}
	if strings.TrimSpace(c.cfg.BotToken) == "" || channelID == "" {
		return services.Wrap(services.ErrConfiguration, "discord", "send", "bot token or channel id missing", nil)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return services.Wrap(services.ErrTransient, "discord", "send", "encode payload", err)
	}
	if err := writer.WriteField("payload_json", string(payload)); err != nil {
		return services.Wrap(services.ErrTransient, "discord", "send", "write payload", err)
	}
	part, err := writer.CreateFormFile("files[0]", filepath.Base(filePath))
	if err != nil {
		return services.Wrap(services.ErrTransient, "discord", "send", "create file part", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return services.Wrap(services.ErrTransient, "discord", "send", "copy file", err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrTransient, "discord", "send", "finish form", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.cfg.BaseURL, url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return services.Wrap(services.ErrTransient, "discord", "send", "build request", err)
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "discord", "send", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return services.Wrap(services.ErrExternalTool, "discord", "send",
			fmt.Sprintf("status %d: %s", resp.StatusCode, summarizeBody(body)), nil)
	}
	return nil
}

func summarizeBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty body"
	}
	const limit = 200
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
