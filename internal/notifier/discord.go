package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Discord sends messages to a Discord webhook
type Discord struct {
	client     *resty.Client
	webhookURL string
}

// NewDiscord creates a Discord webhook notifier
func NewDiscord(webhookURL string, timeout time.Duration) (*Discord, error) {
	if webhookURL == "" {
		return nil, errors.New("discord webhook url is required")
	}
	return &Discord{
		client:     newClient(timeout),
		webhookURL: webhookURL,
	}, nil
}

type discordPayload struct {
	Content string `json:"content"`
}

// SendMessage posts one message, with the link rendered as markdown
func (d *Discord) SendMessage(ctx context.Context, message, url, urlTitle string) error {
	content := message
	if url != "" {
		if urlTitle == "" {
			urlTitle = url
		}
		content = fmt.Sprintf("%s\n[%s](%s)", message, urlTitle, url)
	}

	res, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(discordPayload{Content: content}).
		Post(d.webhookURL)
	if err != nil {
		return &NotifyError{Channel: "discord", Err: err}
	}
	if !res.IsSuccess() {
		return &NotifyError{
			Channel:    "discord",
			StatusCode: res.StatusCode(),
			Err:        errors.New(strings.TrimSpace(res.String())),
		}
	}

	return nil
}
