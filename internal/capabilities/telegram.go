package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram talks to the Bot API. BaseURL is overridable for tests.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) base() string {
	if t.BaseURL != "" {
		return t.BaseURL
	}
	return telegramAPIBase
}

func (t *Telegram) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (t *Telegram) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	if t.Token == "" {
		return nil, fmt.Errorf("telegram bot token not set")
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.base(), t.Token, method)
	var req *http.Request
	var err error
	if params == nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	resp, err := t.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	var tr telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	if !tr.OK {
		return nil, fmt.Errorf("telegram %s: %s", method, tr.Description)
	}
	return tr.Result, nil
}

// GetMe verifies the token and returns the bot's username.
func (t *Telegram) GetMe(ctx context.Context) (string, error) {
	raw, err := t.call(ctx, "getMe", nil)
	if err != nil {
		return "", err
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(raw, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

// SetWebhook points the bot's webhook at hookURL.
func (t *Telegram) SetWebhook(ctx context.Context, hookURL string) error {
	params := url.Values{"url": {hookURL}}
	_, err := t.call(ctx, "setWebhook", params)
	return err
}

// Notify sends text to the configured admin chat.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if t.ChatID == "" {
		return fmt.Errorf("telegram admin chat id not set")
	}
	params := url.Values{"chat_id": {t.ChatID}, "text": {message}}
	_, err := t.call(ctx, "sendMessage", params)
	return err
}
