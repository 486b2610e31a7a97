// Package notify implements the order-confirmation side channel over the
// EmailJS REST API. Dispatch is best-effort by contract: callers detach it
// from their own result and only log failures.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

const (
	defaultBaseURL = "https://api.emailjs.com"
	sendPath       = "/api/v1.0/email/send"
)

// Config holds EmailJS credentials. When any of the three ids is empty the
// client becomes a silent no-op, so a deployment without email configured
// still checks out orders normally.
type Config struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	BaseURL    string
}

// Client sends template emails through EmailJS.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates an EmailJS client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send dispatches one template email. The channel accepts only string fields,
// so every parameter value is coerced to a string first; nil becomes "".
func (c *Client) Send(ctx context.Context, params map[string]any) error {
	if !c.configured() {
		return nil
	}

	sanitized := make(map[string]string, len(params))
	for k, v := range params {
		if v == nil {
			sanitized[k] = ""
			continue
		}
		sanitized[k] = fmt.Sprint(v)
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		TemplateParams: sanitized,
	})
	if err != nil {
		return errors.Wrap(err, "marshal send request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send email")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("emailjs: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (c *Client) configured() bool {
	return c.cfg.ServiceID != "" && c.cfg.TemplateID != "" && c.cfg.PublicKey != ""
}
