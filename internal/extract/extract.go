// Package extract turns the flattened text of one alert page into a typed
// candidate record. Every field has its own rule over the full body text;
// a rule that finds nothing leaves its field nil and never disturbs the
// others. Extract does not return errors.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"edccmon/internal/geo"
)

// DefaultCountry is used when no more specific country is resolved.
const DefaultCountry = "USA"

// diseaseLinkPrefix identifies disease links on the alert page by family
// name. It must not match the site's own brand links ("Equine Disease
// Communication Center"), which precede the disease link in page chrome.
const diseaseLinkPrefix = "Equine Herpesvirus"

// categorySeparator splits a disease label into family and category,
// e.g. "Equine Herpesvirus- Neurologic".
const categorySeparator = "-"

// Record is one outbreak alert as observed at extraction time. Pointer
// fields are nil when the page did not yield that field.
type Record struct {
	AlertID            *string    `json:"alertId"`
	OutbreakIdentifier *string    `json:"outbreakIdentifier"`
	Disease            *string    `json:"disease"`
	Category           *string    `json:"category"`
	Country            string     `json:"country"`
	State              *string    `json:"state"`
	County             *string    `json:"county"`
	DateLabel          *string    `json:"dateLabel"`
	ReportedAt         *time.Time `json:"reportedAtUtc"`
	Status             *string    `json:"status"`
	Source             *string    `json:"source"`
	NumConfirmed       *int64     `json:"numConfirmed"`
	NumSuspected       *int64     `json:"numSuspected"`
	NumExposed         *int64     `json:"numExposed"`
	NumEuthanized      *int64     `json:"numEuthanized"`
	FacilityType       *string    `json:"facilityType"`
	Comments           *string    `json:"comments"`
	RawText            string     `json:"rawText"`
	Lat                *float64   `json:"lat"`
	Lng                *float64   `json:"lng"`
}

var (
	countyStateRe = regexp.MustCompile(`([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*\s+County)\s*,\s*([A-Z]{2})\b`)
	alertIDRe     = regexp.MustCompile(`(?i)Alert\s+ID:\s*(\d+)`)
	outbreakIDRe  = regexp.MustCompile(`(?i)Outbreak\s+Identifier:\s*(\d+)`)
	dateLabelRe   = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}`)
	statusRe      = regexp.MustCompile(`(?i)Confirmed Case\(?s?\)?|Suspected Case\(?s?\)?|Quarantine Released|Outbreak Update`)
	sourceRe      = regexp.MustCompile(`(?i)Source:\s*(.*?)\s*Number`)
	facilityRe    = regexp.MustCompile(`(?i)Facility Type:\s*(.*?)\s*Comments:`)

	countRes = map[string]*regexp.Regexp{
		"confirmed":  regexp.MustCompile(`(?i)Number Confirmed:\s*(\S+)`),
		"suspected":  regexp.MustCompile(`(?i)Number Suspected:\s*(\S+)`),
		"exposed":    regexp.MustCompile(`(?i)Number Exposed:\s*(\S+)`),
		"euthanized": regexp.MustCompile(`(?i)Number Euthanized:\s*(\S+)`),
	}
)

// Extract applies the extraction rules to one page. pageText is the
// whitespace-flattened body text; linkTexts are the page's anchor texts in
// document order.
func Extract(pageText string, linkTexts []string) Record {
	rec := Record{
		Country: DefaultCountry,
		RawText: pageText,
	}

	rec.Disease = extractDisease(linkTexts)
	rec.Category = deriveCategory(rec.Disease)
	rec.County, rec.State = extractCountyState(pageText)
	rec.AlertID = extractMatch(alertIDRe, pageText)
	rec.OutbreakIdentifier = extractMatch(outbreakIDRe, pageText)
	rec.DateLabel = extractDateLabel(pageText)
	rec.ReportedAt = deriveReportedAt(rec.DateLabel)
	rec.Status = extractStatus(pageText, rec.DateLabel)
	rec.Source = extractMatch(sourceRe, pageText)
	rec.NumConfirmed = extractCount(countRes["confirmed"], pageText)
	rec.NumSuspected = extractCount(countRes["suspected"], pageText)
	rec.NumExposed = extractCount(countRes["exposed"], pageText)
	rec.NumEuthanized = extractCount(countRes["euthanized"], pageText)
	rec.FacilityType = extractMatch(facilityRe, pageText)
	rec.Comments = extractComments(pageText)

	if rec.County != nil && rec.State != nil {
		rec.Lat, rec.Lng = geo.Resolve(*rec.County, *rec.State)
	}

	return rec
}

// extractDisease takes the first link text beginning with the disease family
// name, verbatim.
func extractDisease(linkTexts []string) *string {
	for _, text := range linkTexts {
		t := strings.TrimSpace(text)
		if strings.HasPrefix(t, diseaseLinkPrefix) {
			return &t
		}
	}
	return nil
}

// deriveCategory is the segment of the disease label after the first
// separator, trimmed. Nil when disease is nil or carries no separator.
func deriveCategory(disease *string) *string {
	if disease == nil {
		return nil
	}
	idx := strings.Index(*disease, categorySeparator)
	if idx < 0 {
		return nil
	}
	category := strings.TrimSpace((*disease)[idx+len(categorySeparator):])
	if category == "" {
		return nil
	}
	return &category
}

func extractCountyState(text string) (county, state *string) {
	m := countyStateRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	c := strings.TrimSpace(m[1])
	s := m[2]
	return &c, &s
}

func extractMatch(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return nil
	}
	return &v
}

func extractDateLabel(text string) *string {
	m := dateLabelRe.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}

// deriveReportedAt parses the site's human date label into a UTC instant.
// Nil on any parse failure; the current time is never substituted.
func deriveReportedAt(dateLabel *string) *time.Time {
	if dateLabel == nil {
		return nil
	}
	t, err := dateparse.ParseAny(*dateLabel)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// extractStatus prefers the text strictly between the date label and the
// "Source:" marker, falling back to a known status phrase anywhere in the
// body.
func extractStatus(text string, dateLabel *string) *string {
	if dateLabel != nil {
		if start := strings.Index(text, *dateLabel); start >= 0 {
			rest := text[start+len(*dateLabel):]
			if end := strings.Index(rest, "Source:"); end >= 0 {
				between := strings.TrimSpace(rest[:end])
				if between != "" {
					return &between
				}
			}
		}
	}

	if m := statusRe.FindString(text); m != "" {
		return &m
	}
	return nil
}

// extractCount parses a labeled count token. A literal "unknown" or any
// non-numeric token yields nil, never zero.
func extractCount(re *regexp.Regexp, text string) *int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	token := strings.TrimSpace(m[1])
	if strings.EqualFold(token, "unknown") {
		return nil
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// extractComments takes the text after "Comments:" up to the first trailing
// boilerplate marker, or end of text.
func extractComments(text string) *string {
	idx := strings.Index(text, "Comments:")
	if idx < 0 {
		return nil
	}
	rest := text[idx+len("Comments:"):]

	end := len(rest)
	for _, marker := range []string{"Previous Alerts:", "Search for County"} {
		if i := strings.Index(rest, marker); i >= 0 && i < end {
			end = i
		}
	}

	comments := strings.TrimSpace(rest[:end])
	if comments == "" {
		return nil
	}
	return &comments
}
