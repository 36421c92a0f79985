package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"splice/internal/config"
)

const (
	userAgent      = "splice/0.1.0"
	trimmedSuffix  = "...[trimmed]"
	defaultTimeout = 10 * time.Second
)

// Alert describes a failed task. Stdout and Stderr hold whatever the task
// captured; each is trimmed to the configured body limit before sending.
type Alert struct {
	Task    string
	Summary string
	Stdout  string
	Stderr  string
}

// RunSummary describes a finished concatenation run.
type RunSummary struct {
	Catalog string
	Output  string
	Clips   int
	Elapsed time.Duration
}

// Service defines the notification surface exposed to the pipeline and runner.
type Service interface {
	NotifyTaskFailed(ctx context.Context, alert Alert) error
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		bodyLimit: cfg.Notifications.BodyLimit,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	bodyLimit int
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, alert Alert) error {
	task := strings.TrimSpace(alert.Task)
	if task == "" {
		task = "unknown task"
	}
	summary := strings.TrimSpace(alert.Summary)
	if summary == "" {
		summary = "task failed"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Task %s failed and was disabled: %s", task, summary)
	if stdout := strings.TrimSpace(alert.Stdout); stdout != "" {
		builder.WriteString("\n\nstdout:\n")
		builder.WriteString(Trim(stdout, n.bodyLimit))
	}
	if stderr := strings.TrimSpace(alert.Stderr); stderr != "" {
		builder.WriteString("\n\nstderr:\n")
		builder.WriteString(Trim(stderr, n.bodyLimit))
	}

	data := payload{
		title:    fmt.Sprintf("splice - %s failed", task),
		message:  builder.String(),
		tags:     []string{"splice", "task", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	elapsed := summary.Elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	label := strings.TrimSpace(summary.Catalog)
	if label == "" {
		label = "ad hoc"
	}
	data := payload{
		title:   "splice - Concat Complete",
		message: fmt.Sprintf("Joined %d clips (%s) into %s in %s", summary.Clips, label, strings.TrimSpace(summary.Output), elapsed),
		tags:    []string{"splice", "concat", "completed"},
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
		builder.WriteString(Trim(strings.TrimSpace(err.Error()), n.bodyLimit))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "splice - Error",
		message:  builder.String(),
		tags:     []string{"splice", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "splice - Test",
		message:  "Notification system test",
		tags:     []string{"splice", "test"},
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

// Trim shortens text to at most limit characters, marking the cut with a
// "...[trimmed]" suffix. A non-positive limit leaves text unchanged.
func Trim(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + trimmedSuffix
}

type noopService struct{}

func (noopService) NotifyTaskFailed(context.Context, Alert) error        { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
