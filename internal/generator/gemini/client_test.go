package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"peerprep/interview/internal/generator"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     "test",
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: server.Client(),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    server.URL,
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		t.Fatalf("failed to create genai client: %v", err)
	}

	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}

	client := &Client{
		client:  genaiClient,
		config:  &Config{APIKey: "test", Model: "test-model"},
		prompts: pm,
		logger:  zap.NewNop(),
	}
	return client, server.Close
}

func textResponse(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func TestClientGenerateSuccess(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		textResponse(w, "```json\n{\"Top15Questions\":[\"What is a goroutine?\",\"Explain select\"]}\n```")
	}
	client, cleanup := newStubClient(t, handler)
	defer cleanup()

	gen, err := client.Generate(context.Background(), generator.Request{JobRole: "Go Developer", YearsOfExperience: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(gen.Questions) != 2 || gen.Questions[0] != "What is a goroutine?" {
		t.Fatalf("unexpected questions %v", gen.Questions)
	}
}

func TestClientGenerateNoQuestions(t *testing.T) {
	client, cleanup := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		textResponse(w, `{"answer":"none"}`)
	})
	defer cleanup()

	_, err := client.Generate(context.Background(), generator.Request{})
	if models.ErrorCode(err) != models.ErrCodeNoQuestionsFound {
		t.Fatalf("expected no_questions_found, got %v", err)
	}
}

func TestClientGenerateUpstreamError(t *testing.T) {
	client, cleanup := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	defer cleanup()

	_, err := client.Generate(context.Background(), generator.Request{})
	if models.ErrorCode(err) != models.ErrCodeWorkflowUnreachable {
		t.Fatalf("expected workflow_unreachable, got %v", err)
	}
}

func TestVariantFor(t *testing.T) {
	cases := map[int]string{0: "junior", 1: "junior", 2: "mid", 5: "mid", 6: "senior", 20: "senior"}
	for years, want := range cases {
		if got := variantFor(years); got != want {
			t.Fatalf("variantFor(%d) = %s, want %s", years, got, want)
		}
	}
}

func TestStripFences(t *testing.T) {
	if got := stripFences("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Fatalf("unexpected %q", got)
	}
	if got := stripFences(`  {"a":1} `); got != `{"a":1}` {
		t.Fatalf("unexpected %q", got)
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error without api key")
	}

	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_MODEL", "")
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.Model != "gemini-2.5-flash" {
		t.Fatalf("expected default model, got %s", cfg.Model)
	}
}
