package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestHTTPNotifierSend(t *testing.T) {
	var got smsRequest
	var gotKey, gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotHost = r.Header.Get("X-RapidAPI-Host")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewHTTPNotifier(srv.URL+"/send", "secret-key", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPNotifier: %v", err)
	}
	err = n.Send(context.Background(), Notification{Phone: "+966500000001", Message: "[ANNOUNCEMENT] Bus at 5pm"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.To != "+966500000001" || got.Message != "[ANNOUNCEMENT] Bus at 5pm" {
		t.Fatalf("body = %+v", got)
	}
	if gotKey != "secret-key" || gotHost != "127.0.0.1" {
		t.Fatalf("headers key=%q host=%q", gotKey, gotHost)
	}
}

func TestHTTPNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n, err := NewHTTPNotifier(srv.URL, "k", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPNotifier: %v", err)
	}
	if err := n.Send(context.Background(), Notification{Phone: "1", Message: "m"}); err == nil {
		t.Fatalf("expected error for 429")
	}
}

func TestNewHTTPNotifierRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "not a url", "/relative"} {
		if _, err := NewHTTPNotifier(endpoint, "k", nil); err == nil {
			t.Fatalf("endpoint %q: expected error", endpoint)
		}
	}
}

func TestNewFallsBackToLog(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default", Config{}},
		{"log", Config{Provider: ProviderLog}},
		{"http without key", Config{Provider: ProviderHTTP, Endpoint: "https://sms.example.com/send"}},
		{"aliyun without credentials", Config{Provider: ProviderAliyun}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.cfg, logger)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, ok := n.(*LogNotifier); !ok {
				t.Fatalf("got %T, want *LogNotifier", n)
			}
			if err := n.Send(context.Background(), Notification{Phone: "123456", Message: "m"}); err != nil {
				t.Fatalf("log Send: %v", err)
			}
		})
	}

	if _, err := New(Config{Provider: "fax"}, logger); err == nil {
		t.Fatalf("unknown provider: expected error")
	}
	n, err := New(Config{Provider: ProviderHTTP, Endpoint: "https://sms.example.com/send", APIKey: "k"}, logger)
	if err != nil {
		t.Fatalf("New http: %v", err)
	}
	if _, ok := n.(*HTTPNotifier); !ok {
		t.Fatalf("got %T, want *HTTPNotifier", n)
	}
}

func TestMaskPhone(t *testing.T) {
	tests := map[string]string{
		"":              "****",
		"1234":          "****",
		"+966500001234": "*********1234",
	}
	for in, want := range tests {
		if got := MaskPhone(in); got != want {
			t.Fatalf("MaskPhone(%q) = %q, want %q", in, got, want)
		}
	}
}
