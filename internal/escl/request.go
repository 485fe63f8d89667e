package escl

import (
	"fmt"
	"strings"

	"github.com/papersync/papersync/internal/models"
)

// eSCL XML namespaces.
const (
	nsScan = "http://schemas.hp.com/imaging/escl/2011/05/03"
	nsPWG  = "http://www.pwg.org/schemas/2010/12/sm"
)

// Fixed US-Letter scan region in 1/300ths of an inch.
const (
	regionWidth  = 2480
	regionHeight = 3507
)

// BuildScanRequestXML renders the ScanSettings request body POSTed to
// /eSCL/ScanJobs. Pure template substitution: identical settings always
// produce byte-identical XML. Resolution is not validated against
// capability bounds here — that is the caller's job.
func BuildScanRequestXML(s models.ScanSettings) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<scan:ScanSettings xmlns:scan=%q xmlns:pwg=%q>
  <pwg:Version>2.0</pwg:Version>
  <pwg:ScanRegions>
    <pwg:ScanRegion>
      <pwg:XOffset>0</pwg:XOffset>
      <pwg:YOffset>0</pwg:YOffset>
      <pwg:Width>%d</pwg:Width>
      <pwg:Height>%d</pwg:Height>
      <pwg:ContentRegionUnits>escl:ThreeHundredthsOfInches</pwg:ContentRegionUnits>
    </pwg:ScanRegion>
  </pwg:ScanRegions>
  <pwg:InputSource>%s</pwg:InputSource>
  <scan:ColorMode>%s</scan:ColorMode>
  <scan:XResolution>%d</scan:XResolution>
  <scan:YResolution>%d</scan:YResolution>
  <pwg:DocumentFormat>%s</pwg:DocumentFormat>
</scan:ScanSettings>
`, nsScan, nsPWG, regionWidth, regionHeight,
		wireInputSource(s.InputSource), wireColorMode(s.ColorMode),
		s.Resolution, s.Resolution, wireFormat(s.Format))
}

func wireColorMode(mode string) string {
	switch strings.ToLower(mode) {
	case "grayscale":
		return "Grayscale8"
	case "blackwhite":
		return "BlackAndWhite1"
	default:
		return "RGB24"
	}
}

func wireFormat(format string) string {
	switch strings.ToLower(format) {
	case "pdf", "application/pdf":
		return "application/pdf"
	case "png", "image/png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

func wireInputSource(source string) string {
	switch strings.ToLower(source) {
	case "adf", "feeder":
		return "Feeder"
	default:
		return "Platen"
	}
}
