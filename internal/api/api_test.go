package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/papersync/papersync/internal/escl"
	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/ocr"
	"github.com/papersync/papersync/internal/storage"
	"github.com/papersync/papersync/internal/syncservice"
	"github.com/papersync/papersync/internal/vault"
)

// testEnv sets up a temp vault, service, and router for testing.
// authToken == "" means auth disabled.
func testEnv(t *testing.T, authToken string) (*syncservice.Service, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken, nil)
}

func testEnvFull(t *testing.T, authToken string, extractor ocr.Extractor) (*syncservice.Service, http.Handler) {
	t.Helper()

	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := syncservice.NewService(vault.NewNotes(store), nil, nil, nil, logger)

	scan := escl.NewClient(5 * time.Second)
	scan.SetPollDelay(0)
	h := NewHandler(svc, scan, vault.NewSettings(store), nil, extractor, time.Second)
	h.SetBrowse(func(ctx context.Context, timeout time.Duration) ([]models.DiscoveredScanner, error) {
		return []models.DiscoveredScanner{{ID: "uuid-1", Name: "Test Scanner", Host: "192.168.1.10", Port: 8080, Protocol: "http"}}, nil
	})
	return svc, NewRouter(h, authToken != "", authToken, nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func syncBody(week string) map[string]any {
	return map[string]any{
		"week": week,
		"entries": []map[string]any{
			{"day": "Monday", "subject": "Math", "content": "Exercises 5-10", "is_task": true},
			{"content": "Buy notebook", "is_task": true},
		},
	}
}

func TestSyncAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/sync", syncBody("2026-W05"))
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}
	var result syncservice.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.SavedLocal || result.NewTasks != 2 {
		t.Errorf("result = %+v", result)
	}

	w = doJSON(t, router, http.MethodGet, "/notes/2026-W05", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note models.WeeklyNote
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatalf("decode note: %v", err)
	}
	if note.Week != "2026-W05" || len(note.Days) != 1 {
		t.Errorf("note = %+v", note)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/notes/2026-W42", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSync_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/sync", map[string]any{"week": "2026-W05", "entries": []any{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty entries: status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/sync", syncBody("week-five"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad week: status = %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d", rec.Code)
	}
}

func TestNoteMarkdownAndHTML(t *testing.T) {
	_, router := testEnv(t, "")
	if w := doJSON(t, router, http.MethodPost, "/sync", syncBody("2026-W05")); w.Code != http.StatusOK {
		t.Fatalf("sync status = %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/notes/2026-W05/markdown", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("markdown status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "## Monday") {
		t.Errorf("markdown body = %q", w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/notes/2026-W05/html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("html status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h2") || !strings.Contains(body, "Exercises 5-10") {
		t.Errorf("html body = %q", body)
	}
	if strings.Contains(body, "week: 2026-W05") {
		t.Error("frontmatter leaked into html")
	}
}

func TestListNotes(t *testing.T) {
	_, router := testEnv(t, "")
	for _, wk := range []string{"2026-W05", "2026-W03"} {
		if w := doJSON(t, router, http.MethodPost, "/sync", syncBody(wk)); w.Code != http.StatusOK {
			t.Fatalf("sync %s: %d", wk, w.Code)
		}
	}
	w := doJSON(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp NoteListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Weeks) != 2 || resp.Weeks[0] != "2026-W03" {
		t.Errorf("weeks = %v", resp.Weeks)
	}
}

func TestAuth(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := doJSON(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", rec.Code)
	}
}

func TestDiscoverScanners(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/scanners", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ScannersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Scanners) != 1 || resp.Scanners[0].Name != "Test Scanner" {
		t.Errorf("scanners = %+v", resp.Scanners)
	}
}

func TestScanFlowAgainstFakeScanner(t *testing.T) {
	scanner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/eSCL/ScanJobs":
			w.Header().Set("Location", "/eSCL/ScanJobs/job-1")
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/NextDocument"):
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer scanner.Close()

	_, router := testEnv(t, "")
	host, port := splitHostPort(t, scanner.URL)

	scanReq := map[string]any{
		"scanner":  map[string]any{"id": "s1", "name": "Fake", "host": host, "port": port, "protocol": "http"},
		"settings": map[string]any{"resolution": 300, "color_mode": "color", "format": "image/jpeg", "input_source": "Platen"},
	}
	w := doJSON(t, router, http.MethodPost, "/scan", scanReq)
	if w.Code != http.StatusCreated {
		t.Fatalf("scan status = %d, body = %s", w.Code, w.Body.String())
	}
	var job models.ScanJob
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(job.JobURL, "/eSCL/ScanJobs/job-1") {
		t.Errorf("job url = %q", job.JobURL)
	}

	w = doJSON(t, router, http.MethodPost, "/scan/result", map[string]string{"job_url": job.JobURL})
	if w.Code != http.StatusOK {
		t.Fatalf("result status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ScanResultResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Result, "data:image/jpeg;base64,") {
		t.Errorf("result = %q", resp.Result)
	}
}

func TestScan_UnreachableScannerIsBadGateway(t *testing.T) {
	_, router := testEnv(t, "")
	scanReq := map[string]any{
		"scanner":  map[string]any{"id": "s1", "name": "Gone", "host": "127.0.0.1", "port": 1, "protocol": "http"},
		"settings": map[string]any{"resolution": 300, "color_mode": "color", "format": "image/jpeg", "input_source": "Platen"},
	}
	w := doJSON(t, router, http.MethodPost, "/scan", scanReq)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

type stubExtractor struct {
	entries []models.ExtractedEntry
	err     error
}

func (s stubExtractor) Name() string { return "stub" }

func (s stubExtractor) Extract(ctx context.Context, image []byte) ([]models.ExtractedEntry, error) {
	return s.entries, s.err
}

func TestExtract(t *testing.T) {
	extractor := stubExtractor{entries: []models.ExtractedEntry{{Day: "Monday", Content: "x", IsTask: true}}}
	_, router := testEnvFull(t, "", extractor)

	image := base64.StdEncoding.EncodeToString([]byte("fake-image"))
	w := doJSON(t, router, http.MethodPost, "/extract", map[string]string{"image": image})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Day != "Monday" {
		t.Errorf("entries = %+v", resp.Entries)
	}
}

func TestExtract_NoProviderConfigured(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodPost, "/extract", map[string]string{"image": "aGk="})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestExtract_BadBase64(t *testing.T) {
	_, router := testEnvFull(t, "", stubExtractor{err: errors.New("unused")})
	w := doJSON(t, router, http.MethodPost, "/extract", map[string]string{"image": "not-base64!!!"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/settings/subjects", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"subjects":[]`) {
		t.Errorf("empty subjects: status = %d, body = %q", w.Code, w.Body.String())
	}

	put := map[string]any{"subjects": []map[string]string{{"id": "math", "name": "Math", "color": "#ff0000"}}}
	if w = doJSON(t, router, http.MethodPut, "/settings/subjects", put); w.Code != http.StatusOK {
		t.Fatalf("put subjects: %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/settings/subjects", nil)
	if !strings.Contains(w.Body.String(), `"name":"Math"`) {
		t.Errorf("subjects = %q", w.Body.String())
	}

	ttPut := map[string]any{"timetable": map[string][]string{"Monday": {"Math", "Physics"}}}
	if w = doJSON(t, router, http.MethodPut, "/settings/timetable", ttPut); w.Code != http.StatusOK {
		t.Fatalf("put timetable: %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/settings/timetable", nil)
	if !strings.Contains(w.Body.String(), `"Monday":["Math","Physics"]`) {
		t.Errorf("timetable = %q", w.Body.String())
	}
}

func TestHistory_DisabledReturnsEmpty(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u := strings.TrimPrefix(rawURL, "http://")
	host, portStr, found := strings.Cut(u, ":")
	if !found {
		t.Fatalf("no port in %q", rawURL)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return host, port
}
