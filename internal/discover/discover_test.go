package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func listingServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscoverAlertURLs(t *testing.T) {
	body := `<html><body>
		<a href="/alerts/Health-Watch?diseaseAlert=101">EHV-1 Payne County</a>
		<a href="/alerts/Health-Watch?diseaseAlert=102">Strangles Fayette County</a>
		<a href="/about">About</a>
		<a href="/alerts/Health-Watch?diseaseAlert=101">EHV-1 Payne County (repeat)</a>
	</body></html>`
	srv := listingServer(t, body)

	d := New(srv.URL+"/alerts", srv.URL, 5*time.Second)
	urls, err := d.DiscoverAlertURLs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 2 {
		t.Fatalf("expected 2 unique urls, got %d: %v", len(urls), urls)
	}
	if !strings.HasSuffix(urls[0], "diseaseAlert=101") {
		t.Errorf("expected document order preserved, got %q first", urls[0])
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, srv.URL) {
			t.Errorf("expected absolute url against base, got %q", u)
		}
	}
}

func TestDiscoverCapsBatchSize(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, `<a href="/alerts/Health-Watch?diseaseAlert=%d">alert</a>`, i)
	}
	sb.WriteString("</body></html>")
	srv := listingServer(t, sb.String())

	d := New(srv.URL, srv.URL, 5*time.Second)
	urls, err := d.DiscoverAlertURLs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != MaxAlertsPerSync {
		t.Errorf("expected cap of %d, got %d", MaxAlertsPerSync, len(urls))
	}
}

func TestDiscoverNoMatchingLinks(t *testing.T) {
	srv := listingServer(t, `<html><body><a href="/about">About</a></body></html>`)

	d := New(srv.URL, srv.URL, 5*time.Second)
	urls, err := d.DiscoverAlertURLs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("expected no urls, got %v", urls)
	}
}

func TestDiscoverFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	d := New(srv.URL, srv.URL, 5*time.Second)
	if _, err := d.DiscoverAlertURLs(context.Background()); err == nil {
		t.Error("expected error for non-success status")
	}
}

func TestDiscoverFailsOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d := New(srv.URL, srv.URL, time.Second)
	if _, err := d.DiscoverAlertURLs(context.Background()); err == nil {
		t.Error("expected error for unreachable listing")
	}
}
