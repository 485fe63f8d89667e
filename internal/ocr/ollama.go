package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/models"
)

// Ollama extracts entries through a local Ollama chat endpoint with a
// vision-capable model.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama creates an Ollama extractor for one model.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Ollama{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider and model in logs and errors.
func (o *Ollama) Name() string {
	return "ollama/" + o.model
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// Extract sends the image to the chat endpoint and parses the JSON
// entry list out of the model's answer.
func (o *Ollama) Extract(ctx context.Context, image []byte) ([]models.ExtractedEntry, error) {
	reqBody := ollamaChatRequest{
		Model: o.model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: extractionPrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(image)},
		}},
		Stream: false,
		Format: "json",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ocr: encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ocr: build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport("ocr.ollama", 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr: read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport("ocr.ollama", resp.StatusCode, string(body))
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("ocr: decode ollama response: %w", err)
	}
	entries, err := parseEntries(chat.Message.Content)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}
