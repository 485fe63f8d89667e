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

// DefaultGeminiBaseURL is the public Generative Language API endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini extracts entries through the Google Generative Language API.
type Gemini struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewGemini creates a Gemini extractor. baseURL may be empty to use the
// public endpoint.
func NewGemini(baseURL, model, apiKey string, timeout time.Duration) *Gemini {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Gemini{
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider and model in logs and errors.
func (g *Gemini) Name() string {
	return "gemini/" + g.model
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Extract sends the image to generateContent and parses the JSON entry
// list out of the first candidate.
func (g *Gemini) Extract(ctx context.Context, image []byte) ([]models.ExtractedEntry, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: extractionPrompt},
				{InlineData: &geminiInlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ocr: encode gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ocr: build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport("ocr.gemini", 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr: read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport("ocr.gemini", resp.StatusCode, string(body))
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("ocr: decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoEntries
	}
	entries, err := parseEntries(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}
