package capabilities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeBotAPI(t *testing.T, handler func(method string, r *http.Request) any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || !strings.HasPrefix(parts[0], "bot") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(parts[1], r))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestGetMe(t *testing.T) {
	t.Parallel()
	ts := fakeBotAPI(t, func(method string, r *http.Request) any {
		if method != "getMe" {
			t.Errorf("method = %q", method)
		}
		return map[string]any{"ok": true, "result": map[string]any{"username": "questbot"}}
	})

	tg := &Telegram{Token: "123:abc", BaseURL: ts.URL}
	username, err := tg.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if username != "questbot" {
		t.Fatalf("username = %q", username)
	}
}

func TestGetMeAPIError(t *testing.T) {
	t.Parallel()
	ts := fakeBotAPI(t, func(method string, r *http.Request) any {
		return map[string]any{"ok": false, "description": "Unauthorized"}
	})

	tg := &Telegram{Token: "bad", BaseURL: ts.URL}
	_, err := tg.GetMe(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestSetWebhook(t *testing.T) {
	t.Parallel()
	var gotURL string
	ts := fakeBotAPI(t, func(method string, r *http.Request) any {
		if method == "setWebhook" {
			_ = r.ParseForm()
			gotURL = r.PostForm.Get("url")
		}
		return map[string]any{"ok": true, "result": true}
	})

	tg := &Telegram{Token: "123:abc", BaseURL: ts.URL}
	if err := tg.SetWebhook(context.Background(), "https://app.vercel.app/api/telegramWebhook"); err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}
	if gotURL != "https://app.vercel.app/api/telegramWebhook" {
		t.Fatalf("webhook url = %q", gotURL)
	}
}

func TestNotifyRequiresChatID(t *testing.T) {
	t.Parallel()
	tg := &Telegram{Token: "123:abc"}
	if err := tg.Notify(context.Background(), "hi"); err == nil {
		t.Fatal("expected error without chat id")
	}
}

func TestCallRequiresToken(t *testing.T) {
	t.Parallel()
	tg := &Telegram{}
	if _, err := tg.GetMe(context.Background()); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	tg := &Telegram{Token: "t", ChatID: "c"}
	reg.Register(tg)
	if reg.Get("telegram") != tg {
		t.Fatal("registered capability not returned")
	}
	if err := reg.Notify(context.Background(), "missing", "x"); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}
