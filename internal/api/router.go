package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Weekly notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{week}", h.GetNote)
	r.Get("/notes/{week}/markdown", h.NoteMarkdown)
	r.Get("/notes/{week}/html", h.NoteHTML)

	// Sync pipeline.
	r.Post("/sync", h.Sync)
	r.Post("/extract", h.Extract)

	// Scanners.
	r.Get("/scanners", h.DiscoverScanners)
	r.Post("/scanners/capabilities", h.ScannerCapabilities)
	r.Post("/scan", h.StartScan)
	r.Post("/scan/result", h.ScanResult)

	// Vault-resident settings.
	r.Get("/settings/subjects", h.GetSubjects)
	r.Put("/settings/subjects", h.PutSubjects)
	r.Get("/settings/timetable", h.GetTimetable)
	r.Put("/settings/timetable", h.PutTimetable)

	// Sync history.
	r.Get("/history", h.History)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
