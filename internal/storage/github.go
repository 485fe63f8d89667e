package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/models"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHub implements Provider on top of the GitHub contents API. Files
// are blobs keyed by path; writes reuse the current blob sha when one
// exists (best effort, no compare-and-swap — concurrent writers to the
// same path can race).
type GitHub struct {
	httpClient *http.Client
	apiBase    string
	owner      string
	repo       string
	branch     string
	token      string
}

// NewGitHub creates a GitHub-backed provider for one repository branch.
func NewGitHub(owner, repo, branch, token string) *GitHub {
	return &GitHub{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBase:    defaultGitHubAPI,
		owner:      owner,
		repo:       repo,
		branch:     branch,
		token:      token,
	}
}

// SetAPIBase points the provider at a different API host, used by tests.
func (g *GitHub) SetAPIBase(base string) {
	g.apiBase = strings.TrimRight(base, "/")
}

func (g *GitHub) contentsURL(path string) string {
	escaped := url.PathEscape(path)
	// Keep slashes as path separators.
	escaped = strings.ReplaceAll(escaped, "%2F", "/")
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", g.apiBase, g.owner, g.repo, escaped, g.branch)
}

func (g *GitHub) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	return g.httpClient.Do(req)
}

type githubContent struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// fetch retrieves the content object at path, or ErrNotFound on 404.
func (g *GitHub) fetch(path string) (*githubContent, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, g.contentsURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("storage: github request: %w", err)
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, apperr.Transport("storage: github read", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("storage: github read %s: %w", path, apperr.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Transport("storage: github read", resp.StatusCode, "contents API returned non-2xx status")
	}
	var content githubContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, apperr.Transport("storage: github read", 0, "malformed contents response: "+err.Error())
	}
	return &content, nil
}

// Read returns the decoded blob at path.
func (g *GitHub) Read(path string) ([]byte, error) {
	content, err := g.fetch(path)
	if err != nil {
		return nil, err
	}
	// The API wraps base64 at 60 columns.
	raw := strings.ReplaceAll(content.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperr.Transport("storage: github read", 0, "malformed blob encoding: "+err.Error())
	}
	return data, nil
}

// Write creates or updates the blob at path, reusing the current sha
// when the file already exists.
func (g *GitHub) Write(path string, content []byte) error {
	var sha string
	if existing, err := g.fetch(path); err == nil {
		sha = existing.SHA
	}

	body := map[string]string{
		"message": fmt.Sprintf("papersync: update %s", path),
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  g.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("storage: github write: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPut, g.contentsURL(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("storage: github request: %w", err)
	}
	resp, err := g.do(req)
	if err != nil {
		return apperr.Transport("storage: github write", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Transport("storage: github write", resp.StatusCode, "contents API rejected the update")
	}
	return nil
}

// Delete removes the blob at path (requires its current sha).
func (g *GitHub) Delete(path string) error {
	existing, err := g.fetch(path)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{
		"message": fmt.Sprintf("papersync: delete %s", path),
		"sha":     existing.SHA,
		"branch":  g.branch,
	})
	if err != nil {
		return fmt.Errorf("storage: github delete: %w", err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, g.contentsURL(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("storage: github request: %w", err)
	}
	resp, err := g.do(req)
	if err != nil {
		return apperr.Transport("storage: github delete", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Transport("storage: github delete", resp.StatusCode, "contents API rejected the delete")
	}
	return nil
}

// List returns metadata for the .md files directly under dir.
func (g *GitHub) List(dir string) ([]models.FileMeta, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, g.contentsURL(dir), nil)
	if err != nil {
		return nil, fmt.Errorf("storage: github request: %w", err)
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, apperr.Transport("storage: github list", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []models.FileMeta{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Transport("storage: github list", resp.StatusCode, "contents API returned non-2xx status")
	}
	var items []githubContent
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, apperr.Transport("storage: github list", 0, "malformed contents response: "+err.Error())
	}
	var out []models.FileMeta
	for _, item := range items {
		if item.Type != "file" || !strings.HasSuffix(item.Name, ".md") {
			continue
		}
		out = append(out, models.FileMeta{Path: item.Path, Checksum: item.SHA})
	}
	return out, nil
}
