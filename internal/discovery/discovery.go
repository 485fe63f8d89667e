// Package discovery finds eSCL scanners on the local network via mDNS.
//
// Both the plain (_uscan._tcp) and TLS (_uscans._tcp) service types are
// browsed concurrently. Devices appearing under both are deduplicated
// by UUID (falling back to host), preferring the https announcement.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/models"
)

const (
	serviceHTTP  = "_uscan._tcp"
	serviceHTTPS = "_uscans._tcp"
	mdnsDomain   = "local."

	// DefaultTimeout bounds a whole browse when the caller passes none.
	DefaultTimeout = 10 * time.Second

	// earlyFinish stops the browse this long after the most recent
	// result when at least one scanner has been found.
	earlyFinish = 1500 * time.Millisecond
)

// Browse discovers scanners, blocking until the timeout elapses, the
// early-finish window expires, or ctx is cancelled.
func Browse(ctx context.Context, timeout time.Duration) ([]models.DiscoveredScanner, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found := make(chan models.DiscoveredScanner, 16)
	var wg sync.WaitGroup

	for _, svc := range []struct {
		service  string
		protocol string
	}{
		{serviceHTTP, models.ProtocolHTTP},
		{serviceHTTPS, models.ProtocolHTTPS},
	} {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, apperr.Transport("discovery: mdns resolver", 0, err.Error())
		}
		entries := make(chan *zeroconf.ServiceEntry, 8)
		wg.Add(1)
		go func(protocol string, ch <-chan *zeroconf.ServiceEntry) {
			defer wg.Done()
			for e := range ch {
				found <- fromServiceEntry(e, protocol)
			}
		}(svc.protocol, entries)
		if err := resolver.Browse(ctx, svc.service, mdnsDomain, entries); err != nil {
			cancel()
			return nil, apperr.Transport("discovery: mdns browse", 0, err.Error())
		}
	}
	go func() {
		wg.Wait()
		close(found)
	}()

	var scanners []models.DiscoveredScanner
	var early *time.Timer
	var earlyCh <-chan time.Time

collect:
	for {
		select {
		case s, ok := <-found:
			if !ok {
				break collect
			}
			scanners = append(scanners, s)
			if early == nil {
				early = time.NewTimer(earlyFinish)
				earlyCh = early.C
			} else {
				early.Reset(earlyFinish)
			}
		case <-earlyCh:
			break collect
		case <-ctx.Done():
			break collect
		}
	}
	if early != nil {
		early.Stop()
	}
	cancel()
	for s := range found {
		scanners = append(scanners, s)
	}
	return Dedupe(scanners), nil
}

// fromServiceEntry maps an mDNS announcement to a DiscoveredScanner,
// mining the eSCL TXT records (uuid, adminurl, ty, cs, pdl).
func fromServiceEntry(e *zeroconf.ServiceEntry, protocol string) models.DiscoveredScanner {
	txt := parseTxt(e.Text)

	host := strings.TrimSuffix(e.HostName, ".")
	if len(e.AddrIPv4) > 0 {
		host = e.AddrIPv4[0].String()
	}

	s := models.DiscoveredScanner{
		Name:         e.Instance,
		Host:         host,
		Port:         e.Port,
		Protocol:     protocol,
		Model:        txt["ty"],
		Manufacturer: txt["mfg"],
		UUID:         txt["uuid"],
		AdminURL:     txt["adminurl"],
		Capabilities: models.ScannerSummary{
			ColorModes:      splitTxtList(txt["cs"]),
			DocumentFormats: splitTxtList(txt["pdl"]),
		},
	}
	if s.Manufacturer == "" {
		s.Manufacturer = txt["usb_mfg"]
	}
	s.ID = s.UUID
	if s.ID == "" {
		s.ID = fmt.Sprintf("%s:%d", s.Host, s.Port)
	}
	return s
}

func parseTxt(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, rec := range records {
		if key, value, ok := strings.Cut(rec, "="); ok {
			out[strings.ToLower(key)] = value
		}
	}
	return out
}

func splitTxtList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Dedupe collapses announcements of the same device across protocols,
// keyed by UUID with host as fallback, preferring https over http.
func Dedupe(scanners []models.DiscoveredScanner) []models.DiscoveredScanner {
	index := map[string]int{}
	var out []models.DiscoveredScanner
	for _, s := range scanners {
		key := s.UUID
		if key == "" {
			key = s.Host
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, s)
			continue
		}
		if out[i].Protocol == models.ProtocolHTTP && s.Protocol == models.ProtocolHTTPS {
			out[i] = s
		}
	}
	return out
}
