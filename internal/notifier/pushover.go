package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"gopkg.in/ini.v1"
)

// PushoverEndpoint is the Pushover messages API
const PushoverEndpoint = "https://api.pushover.net/1/messages.json"

// PushoverConfig holds Pushover credentials
type PushoverConfig struct {
	APIToken string
	UserKey  string
}

// LoadPushoverConfig reads credentials from an ini file of the form
//
//	[Default]
//	api_token=...
//	user_key=...
//
// Non-empty fields of overrides win over the file, which may then be absent.
func LoadPushoverConfig(path string, overrides PushoverConfig) (PushoverConfig, error) {
	cfg := overrides
	if cfg.APIToken == "" || cfg.UserKey == "" {
		file, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
		switch {
		case err == nil:
			section := file.Section("default")
			if cfg.APIToken == "" {
				cfg.APIToken = strings.TrimSpace(section.Key("api_token").String())
			}
			if cfg.UserKey == "" {
				cfg.UserKey = strings.TrimSpace(section.Key("user_key").String())
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return PushoverConfig{}, fmt.Errorf("read pushover config %s: %w", path, err)
		}
	}

	if cfg.APIToken == "" || cfg.UserKey == "" {
		return PushoverConfig{}, fmt.Errorf("pushover config %s: api_token and user_key are required", path)
	}
	return cfg, nil
}

// Pushover sends messages through the Pushover API
type Pushover struct {
	client   *resty.Client
	endpoint string
	cfg      PushoverConfig
}

// NewPushover creates a Pushover notifier. An empty endpoint means PushoverEndpoint.
func NewPushover(cfg PushoverConfig, endpoint string, timeout time.Duration) *Pushover {
	if endpoint == "" {
		endpoint = PushoverEndpoint
	}
	return &Pushover{
		client:   newClient(timeout),
		endpoint: endpoint,
		cfg:      cfg,
	}
}

type pushoverResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

// SendMessage posts one message
func (p *Pushover) SendMessage(ctx context.Context, message, url, urlTitle string) error {
	form := map[string]string{
		"token":   p.cfg.APIToken,
		"user":    p.cfg.UserKey,
		"message": message,
	}
	if url != "" {
		form["url"] = url
		form["url_title"] = urlTitle
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(p.endpoint)
	if err != nil {
		return &NotifyError{Channel: "pushover", Err: err}
	}

	var body pushoverResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil && res.IsSuccess() {
		return &NotifyError{Channel: "pushover", StatusCode: res.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if !res.IsSuccess() || body.Status != 1 {
		reason := strings.Join(body.Errors, "; ")
		if reason == "" {
			reason = strings.TrimSpace(res.String())
		}
		return &NotifyError{Channel: "pushover", StatusCode: res.StatusCode(), Err: errors.New(reason)}
	}

	return nil
}
