package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/discovery"
	"github.com/papersync/papersync/internal/escl"
	"github.com/papersync/papersync/internal/history"
	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/notecodec"
	"github.com/papersync/papersync/internal/ocr"
	"github.com/papersync/papersync/internal/syncservice"
	"github.com/papersync/papersync/internal/vault"
	"github.com/papersync/papersync/internal/week"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *syncservice.Service
	scan      *escl.Client
	settings  *vault.Settings
	hist      *history.DB   // nil when history is disabled
	extractor ocr.Extractor // nil when no OCR provider is configured

	browse        func(ctx context.Context, timeout time.Duration) ([]models.DiscoveredScanner, error)
	browseTimeout time.Duration

	md goldmark.Markdown
}

// NewHandler creates a new Handler. hist and extractor may be nil.
func NewHandler(svc *syncservice.Service, scan *escl.Client, settings *vault.Settings, hist *history.DB, extractor ocr.Extractor, browseTimeout time.Duration) *Handler {
	return &Handler{
		svc:           svc,
		scan:          scan,
		settings:      settings,
		hist:          hist,
		extractor:     extractor,
		browse:        discovery.Browse,
		browseTimeout: browseTimeout,
		md:            goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// SetBrowse overrides the scanner discovery function. Tests only.
func (h *Handler) SetBrowse(fn func(ctx context.Context, timeout time.Duration) ([]models.DiscoveredScanner, error)) {
	h.browse = fn
}

func weekParam(r *http.Request) week.ID {
	return week.ID(chi.URLParam(r, "week"))
}

func respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case apperr.IsTransport(err):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, "list notes", err)
		return
	}
	if ids == nil {
		ids = []week.ID{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Weeks: ids})
}

// GetNote handles GET /api/notes/{week}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Note(r.Context(), weekParam(r))
	if err != nil {
		respondError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// NoteMarkdown handles GET /api/notes/{week}/markdown.
func (h *Handler) NoteMarkdown(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.Markdown(r.Context(), weekParam(r))
	if err != nil {
		respondError(w, "get note markdown", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(raw))
}

// NoteHTML handles GET /api/notes/{week}/html. The frontmatter is
// stripped before rendering; clients get it from the JSON endpoint.
func (h *Handler) NoteHTML(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.Markdown(r.Context(), weekParam(r))
	if err != nil {
		respondError(w, "get note html", err)
		return
	}
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(notecodec.Body(raw)), &buf); err != nil {
		respondError(w, "render note html", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// Sync handles POST /api/sync.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	result, err := h.svc.Sync(r.Context(), week.ID(req.Week), req.Entries)
	if err != nil {
		respondError(w, "sync", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Extract handles POST /api/extract.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("no OCR provider configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 32<<20)
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("image is not valid base64"))
		return
	}
	entries, err := h.extractor.Extract(r.Context(), image)
	if err != nil {
		respondError(w, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Entries: entries})
}

// DiscoverScanners handles GET /api/scanners.
func (h *Handler) DiscoverScanners(w http.ResponseWriter, r *http.Request) {
	scanners, err := h.browse(r.Context(), h.browseTimeout)
	if err != nil {
		respondError(w, "discover scanners", err)
		return
	}
	if scanners == nil {
		scanners = []models.DiscoveredScanner{}
	}
	writeJSON(w, http.StatusOK, ScannersResponse{Scanners: scanners})
}

// ScannerCapabilities handles POST /api/scanners/capabilities.
func (h *Handler) ScannerCapabilities(w http.ResponseWriter, r *http.Request) {
	var req CapabilitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	caps, err := h.scan.GetCapabilities(r.Context(), req.Scanner)
	if err != nil {
		respondError(w, "get capabilities", err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

// StartScan handles POST /api/scan.
func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	job, err := h.scan.StartScan(r.Context(), req.Scanner, req.Settings)
	if err != nil {
		respondError(w, "start scan", err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// ScanResult handles POST /api/scan/result.
func (h *Handler) ScanResult(w http.ResponseWriter, r *http.Request) {
	var req ScanResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	result, err := h.scan.FetchResult(r.Context(), req.JobURL)
	if err != nil {
		respondError(w, "fetch scan result", err)
		return
	}
	writeJSON(w, http.StatusOK, ScanResultResponse{Result: result})
}

// GetSubjects handles GET /api/settings/subjects.
func (h *Handler) GetSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.settings.Subjects()
	if err != nil {
		respondError(w, "get subjects", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

// PutSubjects handles PUT /api/settings/subjects.
func (h *Handler) PutSubjects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subjects []vault.Subject `json:"subjects"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.settings.SaveSubjects(req.Subjects); err != nil {
		respondError(w, "save subjects", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": req.Subjects})
}

// GetTimetable handles GET /api/settings/timetable.
func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	tt, err := h.settings.Timetable()
	if err != nil {
		respondError(w, "get timetable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timetable": tt})
}

// PutTimetable handles PUT /api/settings/timetable.
func (h *Handler) PutTimetable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timetable vault.Timetable `json:"timetable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.settings.SaveTimetable(req.Timetable); err != nil {
		respondError(w, "save timetable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timetable": req.Timetable})
}

// History handles GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []history.Entry{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	var entries []history.Entry
	var err error
	if wk := r.URL.Query().Get("week"); wk != "" {
		entries, err = h.hist.ForWeek(wk)
	} else {
		entries, err = h.hist.Recent(limit)
	}
	if err != nil {
		respondError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
