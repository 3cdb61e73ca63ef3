package doctor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourorg/doctor-finder/airtable"
	"github.com/yourorg/doctor-finder/internal/collation"
)

// Leading honorific in either script: "Dr." / "Dr" / "Doctor" / "د." / "دكتور".
// The short Latin form needs a trailing dot or space so names like "Drew" stay
// intact; the short Arabic form needs the same for names starting with د.
var honorificRE = regexp.MustCompile(`(?i)^\s*(?:dr\.|dr\s|doctor\s|doctor$|د\.|د\s|دكتور\s?)\s*`)

// StripHonorific removes one leading honorific from a display name.
func StripHonorific(name string) string {
	return strings.TrimSpace(honorificRE.ReplaceAllString(strings.TrimSpace(name), ""))
}

// SortKeyFor derives the locale-folded sort key for a display name.
func SortKeyFor(displayName string) string {
	return collation.Fold(StripHonorific(displayName))
}

// Normalize maps one raw table record to a Doctor. The second return is false
// for invalid records: unparseable or non-finite coordinates, or an empty name,
// city or country after trimming. Invalid records are expected data noise and
// carry no error.
func Normalize(rec airtable.Record) (Doctor, bool) {
	f := rec.Fields

	// Localized name first, always; same rule feeds the sort key.
	name := strings.TrimSpace(f.ArabicName)
	if name == "" {
		name = strings.TrimSpace(f.Name)
	}

	lat, latOK := parseCoord(f.Lat.String())
	lng, lngOK := parseCoord(f.Lng.String())
	city := strings.TrimSpace(f.City)
	country := strings.TrimSpace(f.Country)
	if name == "" || !latOK || !lngOK || city == "" || country == "" {
		return Doctor{}, false
	}

	d := Doctor{
		ID:          rec.ID,
		DisplayName: name,
		SortKey:     SortKeyFor(name),
		Latitude:    lat,
		Longitude:   lng,
		City:        city,
		Country:     country,
		ClinicName:  strings.TrimSpace(f.ClinicName),
		ProfileSlug: strings.TrimSpace(f.Profile),
	}
	if len(f.Portrait) > 0 {
		d.PhotoRef = f.Portrait[0].URL
	}
	return d, true
}

func parseCoord(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
