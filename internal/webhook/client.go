// Package webhook issues webhook-management calls against the Telegram Bot
// API on behalf of user-owned bot accounts.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// Result is the normalized outcome of one bot-management API call. Transport
// failures and platform-reported failures share this shape, distinguished
// only by the description text.
type Result struct {
	OK          bool
	Description string
	Raw         json.RawMessage
}

var callRecorder = func(method, status string) {}

// RegisterCallRecorder allows external packages to observe outbound API calls.
func RegisterCallRecorder(recorder func(method, status string)) {
	if recorder == nil {
		callRecorder = func(string, string) {}
		return
	}

	callRecorder = recorder
}

// Client talks to the bot-management endpoints of the Telegram Bot API. It
// builds a short-lived offline telebot instance per call, because every call
// is made with a different user-supplied token.
type Client struct {
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client against apiURL (the production Bot API host or
// a test server) with a bounded per-request timeout.
func NewClient(apiURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// SetWebhook registers url as the webhook target of the bot owning token.
func (c *Client) SetWebhook(token, url string) Result {
	return c.call(token, "setWebhook", map[string]string{"url": url})
}

// WebhookInfo fetches the current webhook registration of the bot owning token.
func (c *Client) WebhookInfo(token string) Result {
	return c.call(token, "getWebhookInfo", map[string]string{})
}

// DeleteWebhook removes the webhook registration of the bot owning token.
func (c *Client) DeleteWebhook(token string) Result {
	return c.call(token, "deleteWebhook", map[string]string{})
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(token, method string, payload interface{}) Result {
	agent, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		URL:     c.apiURL,
		Client:  c.httpClient,
		Offline: true,
	})
	if err != nil {
		callRecorder(method, "error")
		return Result{Description: err.Error()}
	}

	data, err := agent.Raw(method, payload)
	if err != nil {
		c.log.Warn("bot api call failed", slog.String("method", method), slog.Any("error", err))
		callRecorder(method, "error")

		// A platform-reported failure still carries a response body; keep
		// its own description when one is present.
		if len(data) > 0 {
			var resp apiResponse
			if jsonErr := json.Unmarshal(data, &resp); jsonErr == nil && resp.Description != "" {
				return Result{Description: resp.Description, Raw: data}
			}
		}

		return Result{Description: err.Error()}
	}

	callRecorder(method, "ok")

	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Result{OK: true, Raw: data}
	}

	return Result{OK: true, Description: resp.Description, Raw: data}
}
