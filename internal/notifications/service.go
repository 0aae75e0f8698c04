package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "Loom/0.1.0"

// Config carries the ntfy settings.
type Config struct {
	Topic          string
	TimeoutSeconds int
}

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyHarvestCompleted(ctx context.Context, authors, files int) error
	NotifyRunStarted(ctx context.Context, sources int) error
	NotifyRunCompleted(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyEpisodeReady(ctx context.Context, outputPath string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg Config) Service {
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyHarvestCompleted(ctx context.Context, authors, files int) error {
	data := payload{
		title:   "Loom - Harvest Complete",
		message: fmt.Sprintf("Harvested %d voice messages from %d speakers", files, authors),
		tags:    []string{"loom", "harvest", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, sources int) error {
	data := payload{
		title:   "Loom - Run Started",
		message: fmt.Sprintf("Started processing %d audio sources", sources),
		tags:    []string{"loom", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, completed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Loom - Run Complete"
		message = fmt.Sprintf("Pipeline run complete: %d sources processed in %s", completed, durationText)
	} else {
		title = "Loom - Run Complete (with errors)"
		message = fmt.Sprintf("Pipeline run complete: %d succeeded, %d failed in %s", completed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"loom", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEpisodeReady(ctx context.Context, outputPath string) error {
	outputPath = strings.TrimSpace(outputPath)
	data := payload{
		title:    "Loom - Episode Ready",
		message:  fmt.Sprintf("Podcast assembled: %s", outputPath),
		tags:     []string{"loom", "episode", "ready"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Loom - Error",
		message:  builder.String(),
		tags:     []string{"loom", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Loom - Test",
		message:  "Notification system test",
		tags:     []string{"loom", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyHarvestCompleted(context.Context, int, int) error               { return nil }
func (noopService) NotifyRunStarted(context.Context, int) error                          { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error    { return nil }
func (noopService) NotifyEpisodeReady(context.Context, string) error                     { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
