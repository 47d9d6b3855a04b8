package inputs

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// knownLabels maps the abbreviated input keys used by the test protocols
var knownLabels = map[string]string{
	// loads
	"l1": "Load 1 (kg)", "l2": "Load 2 (kg)", "l3": "Load 3 (kg)", "l4": "Load 4 (kg)", "l5": "Load 5 (kg)",
	"load1_kg": "Load 1 (kg)", "load2_kg": "Load 2 (kg)", "load3_kg": "Load 3 (kg)", "load4_kg": "Load 4 (kg)", "load5_kg": "Load 5 (kg)",

	// pressures
	"p1": "Pressure 1 (PSI)", "p2": "Pressure 2 (PSI)", "p3": "Pressure 3 (PSI)",
	"pressure1": "Pressure 1 (PSI)", "pressure2": "Pressure 2 (PSI)", "pressure3": "Pressure 3 (PSI)",

	// angles and slips
	"ia": "Inclination Angle (deg)", "IA": "Inclination Angle (deg)",
	"sa": "Slip Angle (deg)", "SA": "Slip Angle (deg)",
	"sr": "Slip Ratio (%)", "SR": "Slip Ratio (%)",

	// velocity
	"vel": "Test Velocity (km/h)", "speed_kmph": "Test Velocity (km/h)",

	// geometry
	"rimWidth": "Rim Width (mm)", "width": "Rim Width (mm)",
	"rimDiameter": "Rim Diameter (in)", "diameter": "Rim Diameter (mm)",
	"nominalWidth": "Nominal Width (mm)", "nomwidth": "Nominal Width (mm)",
	"outerDiameter": "Outer Diameter (mm)", "Outer_diameter": "Outer Diameter (mm)",
	"aspectRatio": "Aspect Ratio (%)", "aspratio": "Aspect Ratio (%)",
}

var (
	lowerThenUpper = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	upperThenWord  = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
)

// Label returns the display label of an input key: the known label when there
// is one, otherwise the key split into title-cased words
func Label(key string) string {
	if key == "" {
		return ""
	}
	if label, ok := knownLabels[key]; ok {
		return label
	}
	return PrettyLabel(key)
}

// PrettyLabel turns snake_case, camelCase and acronym runs into spaced
// Title Case ("max_loadKG" -> "Max Load KG", "HTTPServer" -> "HTTP Server")
func PrettyLabel(key string) string {
	spaced := strings.ReplaceAll(key, "_", " ")
	spaced = lowerThenUpper.ReplaceAllString(spaced, "${1} ${2}")
	spaced = upperThenWord.ReplaceAllString(spaced, "${1} ${2}")

	words := strings.Split(spaced, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
