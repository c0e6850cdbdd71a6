package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
)

// Discord rejects embed field values longer than this.
const maxFieldLen = 1024

type DiscordNotifier struct {
	webhookURL string
	retry      *config.DiscordRetry
	mention    string
	events     map[string]struct{}
	host       string
	client     *http.Client
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

func NewDiscordNotifier(cfg *config.DiscordConfig) (*DiscordNotifier, error) {
	if cfg == nil || !cfg.Enabled || cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord notifier disabled or missing webhook_url")
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	events := make(map[string]struct{})
	for _, e := range cfg.Events {
		events[strings.ToLower(e)] = struct{}{}
	}
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		retry:      cfg.Retry,
		mention:    cfg.MentionOnError,
		events:     events,
		host:       host,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (d *DiscordNotifier) allowed(event string) bool {
	if len(d.events) == 0 {
		return true
	}
	_, ok := d.events[event]
	return ok
}

func (d *DiscordNotifier) send(ctx context.Context, embed discordEmbed, mention string) error {
	payload := discordPayload{
		Content: mention,
		Embeds:  []discordEmbed{embed},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	attempts := 1
	delay := time.Duration(0)
	if d.retry != nil && d.retry.Attempts > 1 {
		attempts = d.retry.Attempts
		delay = time.Duration(d.retry.BackoffMs) * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("discord webhook failed after %d attempts: %w", attempts, lastErr)
}

func (d *DiscordNotifier) baseFields(jobName string) []discordField {
	return []discordField{
		{Name: "Host", Value: d.host, Inline: true},
		{Name: "Job", Value: jobName, Inline: true},
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (d *DiscordNotifier) NotifyStart(ctx context.Context, jobName string) error {
	if !d.allowed(EventStart) {
		return nil
	}
	return d.send(ctx, discordEmbed{
		Title:     "Backup started",
		Color:     0x3498db,
		Timestamp: now(),
		Fields:    d.baseFields(jobName),
	}, "")
}

func (d *DiscordNotifier) NotifySuccess(ctx context.Context, jobName string, obj blobstore.Object, duration time.Duration, pruned int) error {
	if !d.allowed(EventSuccess) {
		return nil
	}
	fields := append(d.baseFields(jobName),
		discordField{Name: "Object", Value: obj.Name, Inline: false},
		discordField{Name: "Size", Value: humanize.IBytes(uint64(obj.Size)), Inline: true},
		discordField{Name: "Duration", Value: duration.Round(time.Second).String(), Inline: true},
		discordField{Name: "Pruned", Value: fmt.Sprintf("%d", pruned), Inline: true},
	)
	return d.send(ctx, discordEmbed{
		Title:     "Backup success",
		Color:     0x2ecc71,
		Timestamp: now(),
		Fields:    fields,
	}, "")
}

func (d *DiscordNotifier) NotifyError(ctx context.Context, jobName string, err error) error {
	if !d.allowed(EventError) {
		return nil
	}
	return d.send(ctx, discordEmbed{
		Title:       "Backup failed",
		Description: truncate(err.Error(), 4096),
		Color:       0xe74c3c,
		Timestamp:   now(),
		Fields:      d.baseFields(jobName),
	}, d.mention)
}

func (d *DiscordNotifier) NotifyPrune(ctx context.Context, jobName string, deleted []string, retained int) error {
	if !d.allowed(EventPrune) {
		return nil
	}
	fields := append(d.baseFields(jobName),
		discordField{Name: "Retained", Value: fmt.Sprintf("%d", retained), Inline: true},
		discordField{Name: "Deleted", Value: fmt.Sprintf("%d", len(deleted)), Inline: true},
	)
	if len(deleted) > 0 {
		fields = append(fields, discordField{Name: "Objects", Value: truncate(strings.Join(deleted, "\n"), maxFieldLen)})
	}
	return d.send(ctx, discordEmbed{
		Title:     "Prune completed",
		Color:     0x9b59b6,
		Timestamp: now(),
		Fields:    fields,
	}, "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

var _ Notifier = (*DiscordNotifier)(nil)
