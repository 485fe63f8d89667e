package escl

import (
	"strings"
	"testing"

	"github.com/papersync/papersync/internal/models"
)

func TestBuildScanRequestXML_Deterministic(t *testing.T) {
	s := models.ScanSettings{Resolution: 300, ColorMode: "color", Format: "jpeg", InputSource: "Platen"}
	if BuildScanRequestXML(s) != BuildScanRequestXML(s) {
		t.Error("identical settings must produce byte-identical XML")
	}
}

func TestBuildScanRequestXML_Mappings(t *testing.T) {
	cases := []struct {
		settings models.ScanSettings
		want     []string
	}{
		{
			models.ScanSettings{Resolution: 300, ColorMode: "color", Format: "pdf", InputSource: "Platen"},
			[]string{"<scan:ColorMode>RGB24</scan:ColorMode>", "<pwg:DocumentFormat>application/pdf</pwg:DocumentFormat>", "<pwg:InputSource>Platen</pwg:InputSource>"},
		},
		{
			models.ScanSettings{Resolution: 600, ColorMode: "grayscale", Format: "png", InputSource: "Adf"},
			[]string{"<scan:ColorMode>Grayscale8</scan:ColorMode>", "<pwg:DocumentFormat>image/png</pwg:DocumentFormat>", "<pwg:InputSource>Feeder</pwg:InputSource>", "<scan:XResolution>600</scan:XResolution>", "<scan:YResolution>600</scan:YResolution>"},
		},
		{
			models.ScanSettings{Resolution: 150, ColorMode: "blackwhite", Format: "jpeg"},
			[]string{"<scan:ColorMode>BlackAndWhite1</scan:ColorMode>", "<pwg:DocumentFormat>image/jpeg</pwg:DocumentFormat>", "<pwg:InputSource>Platen</pwg:InputSource>"},
		},
	}
	for _, c := range cases {
		out := BuildScanRequestXML(c.settings)
		for _, want := range c.want {
			if !strings.Contains(out, want) {
				t.Errorf("settings %+v: missing %q\n%s", c.settings, want, out)
			}
		}
	}
}

func TestBuildScanRequestXML_FixedRegionAndNamespaces(t *testing.T) {
	out := BuildScanRequestXML(models.ScanSettings{Resolution: 300})
	for _, want := range []string{
		`xmlns:scan="http://schemas.hp.com/imaging/escl/2011/05/03"`,
		`xmlns:pwg="http://www.pwg.org/schemas/2010/12/sm"`,
		"<pwg:Width>2480</pwg:Width>",
		"<pwg:Height>3507</pwg:Height>",
		"<pwg:ContentRegionUnits>escl:ThreeHundredthsOfInches</pwg:ContentRegionUnits>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\n%s", want, out)
		}
	}
}
