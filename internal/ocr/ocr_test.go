package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/papersync/papersync/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleAnswer = `[
  {"day": "Monday", "subject": "Math", "content": "Complete exercises 5-10", "is_task": true, "is_completed": false, "due_date": ""},
  {"day": "", "subject": "", "content": "Buy new notebook", "is_task": true, "is_completed": true, "due_date": "2026-02-01"}
]`

func TestParseEntries(t *testing.T) {
	cases := map[string]string{
		"bare array":  sampleAnswer,
		"code fence":  "```json\n" + sampleAnswer + "\n```",
		"plain fence": "```\n" + sampleAnswer + "\n```",
		"envelope":    `{"entries": ` + sampleAnswer + `}`,
	}
	for name, answer := range cases {
		entries, err := parseEntries(answer)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(entries) != 2 {
			t.Errorf("%s: len = %d", name, len(entries))
			continue
		}
		if entries[0].Day != "Monday" || entries[0].Subject != "Math" {
			t.Errorf("%s: first entry = %+v", name, entries[0])
		}
		if entries[1].DueDate != "2026-02-01" || !entries[1].IsCompleted {
			t.Errorf("%s: second entry = %+v", name, entries[1])
		}
	}
}

func TestParseEntries_Garbage(t *testing.T) {
	if _, err := parseEntries("I could not read the page, sorry."); err == nil {
		t.Error("expected error for non-JSON answer")
	}
}

func TestOllamaExtract(t *testing.T) {
	var gotPath string
	var gotReq ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: sampleAnswer},
		})
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "llava", time.Second)
	entries, err := o.Extract(context.Background(), []byte("fake-image"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	if gotPath != "/api/chat" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "llava" || gotReq.Stream {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Images) != 1 {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Images[0] != "ZmFrZS1pbWFnZQ==" {
		t.Errorf("image = %q", gotReq.Messages[0].Images[0])
	}
}

func TestOllamaExtract_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "llava", time.Second)
	if _, err := o.Extract(context.Background(), []byte("x")); err == nil {
		t.Error("expected error")
	}
}

func TestGeminiExtract(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		resp := geminiResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content geminiContent `json:"content"`
		}{Content: geminiContent{Parts: []geminiPart{{Text: sampleAnswer}}}})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "gemini-2.0-flash", "secret-key", time.Second)
	entries, err := g.Extract(context.Background(), []byte("fake-image"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-2.0-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestGeminiExtract_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "gemini-2.0-flash", "k", time.Second)
	if _, err := g.Extract(context.Background(), []byte("x")); !errors.Is(err, ErrNoEntries) {
		t.Errorf("want ErrNoEntries, got %v", err)
	}
}

type stubExtractor struct {
	name    string
	entries []models.ExtractedEntry
	err     error
	calls   int
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Extract(ctx context.Context, image []byte) ([]models.ExtractedEntry, error) {
	s.calls++
	return s.entries, s.err
}

func TestChainFallsBackToNextProvider(t *testing.T) {
	failing := &stubExtractor{name: "a", err: errors.New("boom")}
	working := &stubExtractor{name: "b", entries: []models.ExtractedEntry{{Content: "x"}}}
	chain := NewChain(discardLogger(), failing, working)

	entries, err := chain.Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "x" {
		t.Errorf("entries = %+v", entries)
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Errorf("calls = %d, %d", failing.calls, working.calls)
	}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := &stubExtractor{name: "a", entries: []models.ExtractedEntry{{Content: "x"}}}
	second := &stubExtractor{name: "b", entries: []models.ExtractedEntry{{Content: "y"}}}
	chain := NewChain(discardLogger(), first, second)

	if _, err := chain.Extract(context.Background(), []byte("img")); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times", second.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	a := &stubExtractor{name: "a", err: errors.New("boom-a")}
	b := &stubExtractor{name: "b", err: errors.New("boom-b")}
	chain := NewChain(discardLogger(), a, b)

	_, err := chain.Extract(context.Background(), []byte("img"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom-a") || !strings.Contains(err.Error(), "boom-b") {
		t.Errorf("err = %v", err)
	}
}

func TestChainEmpty(t *testing.T) {
	chain := NewChain(discardLogger())
	if _, err := chain.Extract(context.Background(), nil); err == nil {
		t.Error("expected error")
	}
}
