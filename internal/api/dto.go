package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/week"
)

// SyncRequest is the request body for POST /sync.
type SyncRequest struct {
	Week    string                  `json:"week"`
	Entries []models.ExtractedEntry `json:"entries"`
}

func (r SyncRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Week, validation.Required, validation.By(validWeekID)),
		validation.Field(&r.Entries, validation.Required),
	)
}

// ExtractRequest is the request body for POST /extract. Image is the
// base64-encoded scanned page.
type ExtractRequest struct {
	Image string `json:"image"`
}

func (r ExtractRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Image, validation.Required),
	)
}

// CapabilitiesRequest is the request body for POST /scanners/capabilities.
type CapabilitiesRequest struct {
	Scanner models.DiscoveredScanner `json:"scanner"`
}

func (r CapabilitiesRequest) Validate() error {
	return validation.ValidateStruct(&r.Scanner,
		validation.Field(&r.Scanner.Host, validation.Required),
		validation.Field(&r.Scanner.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ScanRequest is the request body for POST /scan.
type ScanRequest struct {
	Scanner  models.DiscoveredScanner `json:"scanner"`
	Settings models.ScanSettings      `json:"settings"`
}

func (r ScanRequest) Validate() error {
	return validation.ValidateStruct(&r.Scanner,
		validation.Field(&r.Scanner.Host, validation.Required),
		validation.Field(&r.Scanner.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ScanResultRequest is the request body for POST /scan/result.
type ScanResultRequest struct {
	JobURL string `json:"job_url"`
}

func (r ScanResultRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.JobURL, validation.Required),
	)
}

// ExtractResponse wraps extracted entries.
type ExtractResponse struct {
	Entries []models.ExtractedEntry `json:"entries"`
}

// NoteListResponse wraps the stored week ids.
type NoteListResponse struct {
	Weeks []week.ID `json:"weeks"`
}

// ScannersResponse wraps discovered scanners.
type ScannersResponse struct {
	Scanners []models.DiscoveredScanner `json:"scanners"`
}

// ScanResultResponse carries the scanned page as a base64 data URL.
type ScanResultResponse struct {
	Result string `json:"result"`
}

func validWeekID(value any) error {
	s, _ := value.(string)
	if !week.ID(s).Valid() {
		return validation.NewError("validation_week_id", "must be a YYYY-Www week id")
	}
	return nil
}
