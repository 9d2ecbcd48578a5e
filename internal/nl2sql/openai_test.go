package nl2sql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStripMarkdownSQL(t *testing.T) {
	got := StripMarkdownSQL("```sql\nSELECT 1;\n```")
	if got != "SELECT 1;" {
		t.Fatalf("StripMarkdownSQL() = %q", got)
	}
	if got := StripMarkdownSQL("  SELECT 2  "); got != "SELECT 2" {
		t.Fatalf("StripMarkdownSQL() = %q", got)
	}
}

func TestFormatHistory(t *testing.T) {
	got := FormatHistory([]Message{
		{Role: "human", Content: "show users"},
		{Role: "ai", Content: "SELECT * FROM users"},
	})
	want := "Human: show users\nAI: SELECT * FROM users"
	if got != want {
		t.Fatalf("FormatHistory() = %q, want %q", got, want)
	}
}

func TestTranslateStripsFenceFromResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```sql\\nSELECT * FROM users\\n```" + `"}}]}`))
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	result, err := translator.Translate(context.Background(), Request{Question: "show all users"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT * FROM users" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "test-model" {
		t.Fatalf("Model = %q", result.Model)
	}
}

func TestTranslateFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	_, err = translator.Translate(context.Background(), Request{Question: "show all users"})
	if err == nil || !strings.Contains(err.Error(), "status=429") {
		t.Fatalf("Translate() error = %v, want status=429", err)
	}
}

func TestNewOpenAITranslatorValidation(t *testing.T) {
	if _, err := NewOpenAITranslator(OpenAIConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewOpenAITranslator(OpenAIConfig{BaseURL: "https://api.example.com"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
