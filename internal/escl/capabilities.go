// Package escl implements a client for the eSCL (AirScan) network
// scanner protocol: capability parsing, scan-request generation, and
// the start-scan / poll-result job sequence.
//
// Capability documents are mined with tag-scoped regular expressions
// rather than a full XML parser — the tag vocabulary is narrow and
// fixed, and real-world scanner firmware emits partial or malformed
// XML often enough that defaults-on-failure beats strictness. Parsing
// never fails: discovery always gets a usable capabilities object.
package escl

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/papersync/papersync/internal/models"
)

// eSCL defaults when the capability document omits a value. Width and
// height bounds are US Letter at 300 dpi.
var (
	defaultResolutions = []int{75, 150, 300, 600}
	defaultColorModes  = []string{models.ColorModeColor, models.ColorModeGrayscale}
	defaultFormats     = []string{"application/pdf", "image/jpeg"}
)

const (
	defaultMaxWidth  = 2550
	defaultMaxHeight = 3300
	defaultMinWidth  = 16
	defaultMinHeight = 16
)

var (
	platenRe      = regexp.MustCompile(`(?s)<scan:Platen>(.*?)</scan:Platen>`)
	adfRe         = regexp.MustCompile(`(?s)<scan:Adf>(.*?)</scan:Adf>`)
	xResolutionRe = regexp.MustCompile(`<scan:XResolution>(\d+)</scan:XResolution>`)
	formatRe      = regexp.MustCompile(`<pwg:DocumentFormat>([^<]+)</pwg:DocumentFormat>`)
	maxWidthRe    = regexp.MustCompile(`<scan:MaxWidth>(\d+)</scan:MaxWidth>`)
	maxHeightRe   = regexp.MustCompile(`<scan:MaxHeight>(\d+)</scan:MaxHeight>`)
	minWidthRe    = regexp.MustCompile(`<scan:MinWidth>(\d+)</scan:MinWidth>`)
	minHeightRe   = regexp.MustCompile(`<scan:MinHeight>(\d+)</scan:MinHeight>`)
)

// ParseCapabilities extracts structured capabilities from an eSCL
// ScannerCapabilities document. Missing sections and values fall back
// to documented eSCL defaults.
func ParseCapabilities(xml string) models.ScannerCapabilities {
	caps := models.ScannerCapabilities{
		SourceCapabilities: map[string]models.SourceCapability{},
		Formats:            parseFormats(xml),
		MaxWidth:           intTag(maxWidthRe, xml, defaultMaxWidth),
		MaxHeight:          intTag(maxHeightRe, xml, defaultMaxHeight),
		MinWidth:           intTag(minWidthRe, xml, defaultMinWidth),
		MinHeight:          intTag(minHeightRe, xml, defaultMinHeight),
	}

	for _, src := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"Platen", platenRe},
		{"Adf", adfRe},
	} {
		m := src.re.FindStringSubmatch(xml)
		if m == nil {
			continue
		}
		caps.InputSources = append(caps.InputSources, src.name)
		caps.SourceCapabilities[src.name] = models.SourceCapability{
			Resolutions: parseResolutions(m[1]),
			ColorModes:  parseColorModes(m[1]),
		}
	}

	if len(caps.InputSources) == 0 {
		// No recognizable source section — give the UI something to render.
		caps.InputSources = []string{"Platen"}
		caps.SourceCapabilities["Platen"] = models.SourceCapability{
			Resolutions: append([]int(nil), defaultResolutions...),
			ColorModes:  append([]string(nil), defaultColorModes...),
		}
	}
	return caps
}

func parseResolutions(section string) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, m := range xResolutionRe.FindAllStringSubmatch(section, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return append([]int(nil), defaultResolutions...)
	}
	sort.Ints(out)
	return out
}

func parseColorModes(section string) []string {
	var out []string
	if strings.Contains(section, "RGB24") || strings.Contains(section, "Color") {
		out = append(out, models.ColorModeColor)
	}
	if strings.Contains(section, "Grayscale8") || strings.Contains(section, "Grayscale") {
		out = append(out, models.ColorModeGrayscale)
	}
	if strings.Contains(section, "BlackAndWhite1") || strings.Contains(section, "Binary") {
		out = append(out, models.ColorModeBlackWhite)
	}
	if len(out) == 0 {
		return append([]string(nil), defaultColorModes...)
	}
	return out
}

func parseFormats(xml string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range formatRe.FindAllStringSubmatch(xml, -1) {
		f := strings.TrimSpace(m[1])
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(out) == 0 {
		return append([]string(nil), defaultFormats...)
	}
	return out
}

func intTag(re *regexp.Regexp, xml string, fallback int) int {
	m := re.FindStringSubmatch(xml)
	if m == nil {
		return fallback
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return v
}
