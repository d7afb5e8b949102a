// Package notifier delivers one human-readable message per new post.
//
// Pushover and Discord webhooks are supported. Both are plain HTTP APIs
// called through resty; neither retries, so a failed send surfaces to the
// caller as a *NotifyError.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier sends a message with a reference link.
type Notifier interface {
	SendMessage(ctx context.Context, message, url, urlTitle string) error
}

// NotifyError reports a single failed send.
type NotifyError struct {
	Channel    string
	StatusCode int
	Err        error
}

func (e *NotifyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Channel, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

const userAgent = "liveblog-watch"

func newClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetHeader("User-Agent", userAgent)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}
