// Package announce posts short status messages about new MOTDs.
package announce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/base/request"
)

const telegramAPI = "https://api.telegram.org"

type Announcer interface {
	Post(ctx context.Context, text string) error
}

type TelegramConfig struct {
	Token      string
	ChatID     string
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// Telegram sends each status as a single Bot API sendMessage call.
type Telegram struct {
	token     string
	chatID    string
	baseURL   string
	httpc     *http.Client
	userAgent string
	scrubber  *strings.Replacer
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	t := &Telegram{
		token:     cfg.Token,
		chatID:    cfg.ChatID,
		baseURL:   cfg.BaseURL,
		httpc:     cfg.HTTPClient,
		userAgent: cfg.UserAgent,
	}
	if t.baseURL == "" {
		t.baseURL = telegramAPI
	}
	if t.httpc == nil {
		t.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if t.token != "" {
		t.scrubber = strings.NewReplacer(t.token, "[redacted]")
	}
	return t
}

func (t *Telegram) Post(ctx context.Context, text string) error {
	headers := map[string]string{}
	if t.userAgent != "" {
		headers["User-Agent"] = t.userAgent
	}

	result, err := request.Make[telegramResponse](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        t.baseURL + "/bot" + t.token + "/sendMessage",
		Body:       telegramMessage{ChatID: t.chatID, Text: text},
		Headers:    headers,
		HTTPClient: t.httpc,
		Scrubber:   t.scrubber,
	})
	if err != nil {
		var statusErr *request.StatusError
		if errors.As(err, &statusErr) {
			var failed telegramResponse
			if json.Unmarshal(statusErr.Body, &failed) == nil && failed.Description != "" {
				return fmt.Errorf("telegram error: HTTP %d: %s", statusErr.StatusCode, failed.Description)
			}
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram error: %s", result.Description)
	}

	return nil
}

// Log writes statuses to the structured log instead of a chat.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Post(_ context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("MOTD announced", "status", text)
	return nil
}
