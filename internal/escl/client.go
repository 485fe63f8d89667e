package escl

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/models"
)

// defaultPollDelay is how long the client waits before fetching
// /NextDocument after a scan job is created.
const defaultPollDelay = 2 * time.Second

// Client drives the eSCL job sequence against one scanner at a time:
// get-capabilities, start-scan, poll-result. Each call is an
// independently cancellable network request; there is no retry here.
type Client struct {
	verifying *http.Client
	insecure  *http.Client
	pollDelay time.Duration
}

// NewClient creates an eSCL client. Scanners advertising https almost
// always present self-signed certificates on the local network, so the
// https path disables certificate verification. That is a documented
// trust trade-off of the protocol, not an oversight.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		verifying: &http.Client{Timeout: timeout},
		insecure: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		pollDelay: defaultPollDelay,
	}
}

// SetPollDelay overrides the /NextDocument wait, used by tests to avoid
// real timers.
func (c *Client) SetPollDelay(d time.Duration) {
	c.pollDelay = d
}

func (c *Client) httpClient(rawURL string) *http.Client {
	if strings.HasPrefix(rawURL, "https://") {
		return c.insecure
	}
	return c.verifying
}

func baseURL(s models.DiscoveredScanner) string {
	return fmt.Sprintf("%s://%s:%d", s.Protocol, s.Host, s.Port)
}

// GetCapabilities fetches and parses /eSCL/ScannerCapabilities.
func (c *Client) GetCapabilities(ctx context.Context, s models.DiscoveredScanner) (models.ScannerCapabilities, error) {
	capURL := baseURL(s) + "/eSCL/ScannerCapabilities"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, capURL, nil)
	if err != nil {
		return models.ScannerCapabilities{}, fmt.Errorf("escl: build capabilities request: %w", err)
	}
	resp, err := c.httpClient(capURL).Do(req)
	if err != nil {
		return models.ScannerCapabilities{}, apperr.Transport("escl: get capabilities", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ScannerCapabilities{}, apperr.Transport("escl: get capabilities", resp.StatusCode, "scanner returned non-2xx status")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ScannerCapabilities{}, apperr.Transport("escl: get capabilities", 0, err.Error())
	}
	return ParseCapabilities(string(body)), nil
}

// StartScan POSTs a scan request to /eSCL/ScanJobs. Success is exactly
// HTTP 201 with a Location header; a relative Location is resolved
// against the scanner's base URL. Anything else is a hard failure.
func (c *Client) StartScan(ctx context.Context, s models.DiscoveredScanner, settings models.ScanSettings) (models.ScanJob, error) {
	jobsURL := baseURL(s) + "/eSCL/ScanJobs"
	body := BuildScanRequestXML(settings)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jobsURL, strings.NewReader(body))
	if err != nil {
		return models.ScanJob{}, fmt.Errorf("escl: build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.httpClient(jobsURL).Do(req)
	if err != nil {
		return models.ScanJob{}, apperr.Transport("escl: start scan", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return models.ScanJob{}, apperr.Transport("escl: start scan", resp.StatusCode, "expected 201 Created")
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return models.ScanJob{}, apperr.Transport("escl: start scan", resp.StatusCode, "missing Location header")
	}

	jobURL, err := resolveJobURL(baseURL(s), location)
	if err != nil {
		return models.ScanJob{}, apperr.Transport("escl: start scan", 0, fmt.Sprintf("bad Location header %q", location))
	}
	return models.ScanJob{JobURL: jobURL, Status: models.ScanStatusPending}, nil
}

func resolveJobURL(base, location string) (string, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if loc.IsAbs() {
		return loc.String(), nil
	}
	baseParsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return baseParsed.ResolveReference(loc).String(), nil
}

// FetchResult waits the fixed poll delay, then GETs {jobURL}/NextDocument
// once. The scanned image comes back as a data URL using the response's
// declared Content-Type (image/jpeg when absent).
func (c *Client) FetchResult(ctx context.Context, jobURL string) (string, error) {
	select {
	case <-time.After(c.pollDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	docURL := strings.TrimRight(jobURL, "/") + "/NextDocument"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", fmt.Errorf("escl: build result request: %w", err)
	}
	resp, err := c.httpClient(docURL).Do(req)
	if err != nil {
		return "", apperr.Transport("escl: fetch result", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.Transport("escl: fetch result", resp.StatusCode, "scan document not ready")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Transport("escl: fetch result", 0, err.Error())
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
