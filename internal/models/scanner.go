package models

// Scanner protocols.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// ScannerSummary is the capability sketch carried in mDNS TXT records,
// available before a full capability fetch.
type ScannerSummary struct {
	ColorModes      []string `json:"color_modes"`
	DocumentFormats []string `json:"document_formats"`
}

// DiscoveredScanner is one network scanner found via mDNS. Scanners are
// deduplicated by UUID (falling back to host) across protocols, with
// https preferred over http for the same device.
type DiscoveredScanner struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Host         string         `json:"host"`
	Port         int            `json:"port"`
	Protocol     string         `json:"protocol"` // "http" or "https"
	Model        string         `json:"model,omitempty"`
	Manufacturer string         `json:"manufacturer,omitempty"`
	UUID         string         `json:"uuid,omitempty"`
	AdminURL     string         `json:"admin_url,omitempty"`
	Capabilities ScannerSummary `json:"capabilities"`
}

// SourceCapability describes what one input source (Platen or Adf) supports.
type SourceCapability struct {
	Resolutions []int    `json:"resolutions"`
	ColorModes  []string `json:"color_modes"`
}

// ScannerCapabilities is the parsed eSCL ScannerCapabilities document.
type ScannerCapabilities struct {
	InputSources       []string                    `json:"input_sources"`
	SourceCapabilities map[string]SourceCapability `json:"source_capabilities"`
	Formats            []string                    `json:"formats"`
	MaxWidth           int                         `json:"max_width"`
	MaxHeight          int                         `json:"max_height"`
	MinWidth           int                         `json:"min_width"`
	MinHeight          int                         `json:"min_height"`
}

// Color modes as exposed to the UI layer.
const (
	ColorModeColor      = "color"
	ColorModeGrayscale  = "grayscale"
	ColorModeBlackWhite = "blackwhite"
)

// ScanSettings is the typed input to scan-request XML generation. No
// validation against capability bounds happens at this layer.
type ScanSettings struct {
	Resolution  int    `json:"resolution"`
	ColorMode   string `json:"color_mode"`
	Format      string `json:"format"`
	InputSource string `json:"input_source"`
}

// Scan job states.
const (
	ScanStatusPending    = "pending"
	ScanStatusProcessing = "processing"
	ScanStatusCompleted  = "completed"
	ScanStatusFailed     = "failed"
)

// ScanJob is the handle returned by starting a scan; JobURL is later
// polled for /NextDocument.
type ScanJob struct {
	JobURL string `json:"job_url"`
	Status string `json:"status"`
}
