// Package discover finds alert-detail URLs on the upstream listing page.
package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MaxAlertsPerSync caps how many alert URLs one sync pass will process.
const MaxAlertsPerSync = 10

// alertQueryMarker identifies hyperlinks pointing at alert detail pages.
const alertQueryMarker = "diseaseAlert="

// Discoverer fetches the listing page and extracts alert URLs.
type Discoverer struct {
	listingURL string
	baseURL    string
	client     *http.Client
}

// New creates a Discoverer for the given listing page and site base URL.
func New(listingURL, baseURL string, timeout time.Duration) *Discoverer {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Discoverer{
		listingURL: listingURL,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// DiscoverAlertURLs returns up to MaxAlertsPerSync distinct absolute alert
// URLs in document order of first appearance. A listing page that cannot be
// retrieved fails the whole call; the sync pass skips this cycle.
func (d *Discoverer) DiscoverAlertURLs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building listing request: %w", err)
	}
	req.Header.Set("User-Agent", "edccmon/1.0 (outbreak monitor)")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("listing page returned %s", http.StatusText(resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing page: %w", err)
	}

	base, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	seen := make(map[string]struct{})
	var urls []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, alertQueryMarker) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
		return len(urls) < MaxAlertsPerSync
	})

	return urls, nil
}
