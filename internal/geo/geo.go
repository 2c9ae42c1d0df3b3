// Package geo maps "County, State" keys to fixed coordinates for plotting
// outbreak alerts. The table is static reference data; an absent key is an
// expected outcome, not an error.
package geo

import "strings"

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// qualifierPrefixes are clinical qualifiers the alert site sometimes glues
// onto the county name ("Neurologic Payne County"). They are stripped only
// as a leading word.
var qualifierPrefixes = []string{"Neurologic", "Respiratory"}

// countyCoordinates keys are "<County Name> County, <ST>".
var countyCoordinates = map[string]Coordinates{
	"Payne County, OK":       {36.1156, -97.0584},
	"Oklahoma County, OK":    {35.5514, -97.4075},
	"Fayette County, KY":     {38.0406, -84.4583},
	"Woodford County, KY":    {38.0420, -84.7444},
	"Marion County, FL":      {29.2097, -82.0620},
	"Ocala County, FL":       {29.1872, -82.1401},
	"Chester County, PA":     {39.9868, -75.7279},
	"Lancaster County, PA":   {40.0379, -76.3055},
	"Wellington County, FL":  {26.6618, -80.2684},
	"Los Angeles County, CA": {34.0522, -118.2437},
	"San Diego County, CA":   {32.7157, -117.1611},
	"Maricopa County, AZ":    {33.4484, -112.0740},
	"Weld County, CO":        {40.4233, -104.7091},
	"Larimer County, CO":     {40.5853, -105.0844},
	"Dane County, WI":        {43.0731, -89.4012},
	"Collin County, TX":      {33.1795, -96.4930},
	"Denton County, TX":      {33.2148, -97.1331},
	"King County, WA":        {47.6062, -122.3321},
	"Albany County, NY":      {42.6526, -73.7562},
	"Saratoga County, NY":    {43.0831, -73.7846},
}

// Resolve maps a raw county string and two-letter state code to fixed
// coordinates. Both return values are nil when either input is empty or the
// normalized key is not in the table.
func Resolve(countyRaw, state string) (*float64, *float64) {
	if countyRaw == "" || state == "" {
		return nil, nil
	}

	key := normalizeCounty(countyRaw) + ", " + state
	coords, ok := countyCoordinates[key]
	if !ok {
		return nil, nil
	}
	return &coords.Lat, &coords.Lng
}

// normalizeCounty trims, strips a leading clinical qualifier, and collapses
// internal whitespace runs to single spaces.
func normalizeCounty(raw string) string {
	s := strings.TrimSpace(raw)
	for _, q := range qualifierPrefixes {
		if len(s) > len(q) && strings.EqualFold(s[:len(q)], q) && isSpace(s[len(q)]) {
			s = strings.TrimSpace(s[len(q):])
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
