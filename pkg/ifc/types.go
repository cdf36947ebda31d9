// Package ifc knows enough of the IFC entity hierarchy to answer
// "is this element of that type, or a subtype of it".
package ifc

import "strings"

// supertypes maps an IFC entity (upper-case) to its direct supertype.
// Only the building, distribution and furnishing branches are listed;
// unknown types match themselves only.
var supertypes = map[string]string{
	"IFCPRODUCT":            "IFCOBJECT",
	"IFCELEMENT":            "IFCPRODUCT",
	"IFCBUILDINGELEMENT":    "IFCELEMENT",
	"IFCBUILTELEMENT":       "IFCELEMENT",
	"IFCWALL":               "IFCBUILDINGELEMENT",
	"IFCWALLSTANDARDCASE":   "IFCWALL",
	"IFCWALLELEMENTEDCASE":  "IFCWALL",
	"IFCCURTAINWALL":        "IFCBUILDINGELEMENT",
	"IFCSLAB":               "IFCBUILDINGELEMENT",
	"IFCSLABSTANDARDCASE":   "IFCSLAB",
	"IFCSLABELEMENTEDCASE":  "IFCSLAB",
	"IFCBEAM":               "IFCBUILDINGELEMENT",
	"IFCBEAMSTANDARDCASE":   "IFCBEAM",
	"IFCCOLUMN":             "IFCBUILDINGELEMENT",
	"IFCCOLUMNSTANDARDCASE": "IFCCOLUMN",
	"IFCMEMBER":             "IFCBUILDINGELEMENT",
	"IFCMEMBERSTANDARDCASE": "IFCMEMBER",
	"IFCPLATE":              "IFCBUILDINGELEMENT",
	"IFCPLATESTANDARDCASE":  "IFCPLATE",
	"IFCDOOR":               "IFCBUILDINGELEMENT",
	"IFCDOORSTANDARDCASE":   "IFCDOOR",
	"IFCWINDOW":             "IFCBUILDINGELEMENT",
	"IFCWINDOWSTANDARDCASE": "IFCWINDOW",
	"IFCROOF":               "IFCBUILDINGELEMENT",
	"IFCSTAIR":              "IFCBUILDINGELEMENT",
	"IFCSTAIRFLIGHT":        "IFCBUILDINGELEMENT",
	"IFCRAMP":               "IFCBUILDINGELEMENT",
	"IFCRAILING":            "IFCBUILDINGELEMENT",
	"IFCCOVERING":           "IFCBUILDINGELEMENT",
	"IFCFOOTING":            "IFCBUILDINGELEMENT",
	"IFCPILE":               "IFCBUILDINGELEMENT",

	"IFCDISTRIBUTIONELEMENT":        "IFCELEMENT",
	"IFCDISTRIBUTIONFLOWELEMENT":    "IFCDISTRIBUTIONELEMENT",
	"IFCFLOWSEGMENT":                "IFCDISTRIBUTIONFLOWELEMENT",
	"IFCPIPESEGMENT":                "IFCFLOWSEGMENT",
	"IFCDUCTSEGMENT":                "IFCFLOWSEGMENT",
	"IFCCABLESEGMENT":               "IFCFLOWSEGMENT",
	"IFCCABLECARRIERSEGMENT":        "IFCFLOWSEGMENT",
	"IFCFLOWFITTING":                "IFCDISTRIBUTIONFLOWELEMENT",
	"IFCPIPEFITTING":                "IFCFLOWFITTING",
	"IFCDUCTFITTING":                "IFCFLOWFITTING",
	"IFCCABLECARRIERFITTING":        "IFCFLOWFITTING",
	"IFCFLOWTERMINAL":               "IFCDISTRIBUTIONFLOWELEMENT",
	"IFCAIRTERMINAL":                "IFCFLOWTERMINAL",
	"IFCLIGHTFIXTURE":               "IFCFLOWTERMINAL",
	"IFCSANITARYTERMINAL":           "IFCFLOWTERMINAL",
	"IFCENERGYCONVERSIONDEVICE":     "IFCDISTRIBUTIONFLOWELEMENT",
	"IFCFLOWCONTROLLER":             "IFCDISTRIBUTIONFLOWELEMENT",
	"IFCVALVE":                      "IFCFLOWCONTROLLER",
	"IFCDAMPER":                     "IFCFLOWCONTROLLER",
	"IFCDISTRIBUTIONCONTROLELEMENT": "IFCDISTRIBUTIONELEMENT",

	"IFCFURNISHINGELEMENT":         "IFCELEMENT",
	"IFCFURNITURE":                 "IFCFURNISHINGELEMENT",
	"IFCOPENINGELEMENT":            "IFCFEATUREELEMENTSUBTRACTION",
	"IFCFEATUREELEMENTSUBTRACTION": "IFCFEATUREELEMENT",
	"IFCFEATUREELEMENT":            "IFCELEMENT",
	"IFCSPACE":                     "IFCSPATIALSTRUCTUREELEMENT",
	"IFCSPATIALSTRUCTUREELEMENT":   "IFCSPATIALELEMENT",
	"IFCSPATIALELEMENT":            "IFCPRODUCT",
}

// Normalize returns the canonical upper-case spelling of an IFC type name.
func Normalize(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// IsA reports whether typ is want or a subtype of want. Both names are
// compared case-insensitively.
func IsA(typ, want string) bool {
	t, w := Normalize(typ), Normalize(want)
	if t == "" || w == "" {
		return false
	}
	// Bounded walk guards against a malformed table.
	for i := 0; i < 16 && t != ""; i++ {
		if t == w {
			return true
		}
		t = supertypes[t]
	}
	return false
}

// IsAny reports whether typ IsA any of wants.
func IsAny(typ string, wants []string) bool {
	for _, w := range wants {
		if IsA(typ, w) {
			return true
		}
	}
	return false
}

// Supertype returns the direct supertype of typ, or "" if unknown.
func Supertype(typ string) string {
	return supertypes[Normalize(typ)]
}

// Known reports whether typ appears in the hierarchy table.
func Known(typ string) bool {
	n := Normalize(typ)
	if _, ok := supertypes[n]; ok {
		return true
	}
	for _, parent := range supertypes {
		if parent == n {
			return true
		}
	}
	return false
}
