// Package fetch retrieves a single alert page and hands its flattened text
// to the extractor.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"edccmon/internal/extract"
)

// AlertFetcher fetches alert pages over HTTP.
type AlertFetcher struct {
	client *http.Client
}

// NewAlertFetcher creates a new alert fetcher.
func NewAlertFetcher(timeout time.Duration) *AlertFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &AlertFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchAlert retrieves one alert page and extracts a candidate record.
// Transport errors and non-success statuses fail the fetch; extraction
// itself never fails.
func (f *AlertFetcher) FetchAlert(ctx context.Context, alertURL string) (extract.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, alertURL, nil)
	if err != nil {
		return extract.Record{}, fmt.Errorf("building alert request: %w", err)
	}
	req.Header.Set("User-Agent", "edccmon/1.0 (outbreak monitor)")

	resp, err := f.client.Do(req)
	if err != nil {
		return extract.Record{}, fmt.Errorf("fetching %s: %w", alertURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return extract.Record{}, &httpError{code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return extract.Record{}, fmt.Errorf("parsing %s: %w", alertURL, err)
	}

	var linkTexts []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		linkTexts = append(linkTexts, strings.TrimSpace(sel.Text()))
	})

	return extract.Extract(flatten(doc.Text()), linkTexts), nil
}

// flatten collapses all whitespace runs to single spaces.
func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
