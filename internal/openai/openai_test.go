package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/plantid/internal/providers"
)

func TestComplete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"name\":\"Rose\"}"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL+"/v1/", "secret")
	text, err := client.Complete(context.Background(), providers.Config{
		Model:       "mistral-small-latest",
		Temperature: 0.3,
		Prompt:      "Tell me about Rose",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if text != `{"name":"Rose"}` {
		t.Errorf("Expected content '{\"name\":\"Rose\"}', got '%s'", text)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer auth, got '%s'", gotAuth)
	}
	if got.Model != "mistral-small-latest" || got.Temperature != 0.3 {
		t.Errorf("Expected model and temperature to be forwarded, got %s %v", got.Model, got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Tell me about Rose" {
		t.Errorf("Expected a single user message, got %+v", got.Messages)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusTooManyRequests, body: `{"message":"rate limited"}`, wantErr: "429"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
		{name: "bad json", status: http.StatusOK, body: `not json`, wantErr: "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "secret").Complete(context.Background(), providers.Config{Prompt: "x"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := New("", "").Complete(context.Background(), providers.Config{}); err == nil {
		t.Error("Expected error when API key is missing")
	}
}
