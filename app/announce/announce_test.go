package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/base/request"
)

func TestTelegramPost(t *testing.T) {
	var gotPath string
	var got telegramMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("User-Agent") != "motd-comb/test" {
			t.Errorf("Expected custom user agent, got %s", r.Header.Get("User-Agent"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	tg := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: "@motd", BaseURL: server.URL, UserAgent: "motd-comb/test"})
	status := "Arena Showdown - https://motd.today/?id=1705330800"

	if err := tg.Post(context.Background(), status); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("Expected sendMessage path, got %s", gotPath)
	}
	if got.ChatID != "@motd" || got.Text != status {
		t.Errorf("Unexpected message: %+v", got)
	}
}

func TestTelegramPostError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	tg := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: "@motd", BaseURL: server.URL})

	err := tg.Post(context.Background(), "status")
	if err == nil {
		t.Fatal("Expected error for rejected message")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("Expected Telegram description in error, got: %v", err)
	}
}

func TestTelegramPostNotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was kicked"}`))
	}))
	defer server.Close()

	tg := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: "@motd", BaseURL: server.URL})

	err := tg.Post(context.Background(), "status")
	if err == nil || !strings.Contains(err.Error(), "bot was kicked") {
		t.Errorf("Expected Telegram description in error, got: %v", err)
	}
}

func TestTelegramPostStatusErrorScrubsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	tg := NewTelegram(TelegramConfig{Token: "123:secret", ChatID: "@motd", BaseURL: server.URL})

	err := tg.Post(context.Background(), "status")
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got: %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", statusErr.StatusCode)
	}
	if strings.Contains(err.Error(), "123:secret") {
		t.Errorf("Expected token to be scrubbed, got: %v", err)
	}
	if !strings.Contains(err.Error(), "[redacted]") {
		t.Errorf("Expected redacted URL in error, got: %v", err)
	}
}

func TestTelegramPostScrubsToken(t *testing.T) {
	tg := NewTelegram(TelegramConfig{Token: "123:secret", ChatID: "@motd", BaseURL: "http://127.0.0.1:0"})

	err := tg.Post(context.Background(), "status")
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if strings.Contains(err.Error(), "123:secret") {
		t.Errorf("Expected token to be scrubbed, got: %v", err)
	}
}

func TestLogPost(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	if err := l.Post(context.Background(), "New MOTD - https://motd.today/?id=1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(buf.String(), "id=1") {
		t.Errorf("Expected status in log output, got %s", buf.String())
	}
}
