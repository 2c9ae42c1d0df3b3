// Package pipeline coordinates one sync pass: discover alert URLs, fetch
// and extract each page, and reconcile the candidates into the store.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"edccmon/internal/config"
	"edccmon/internal/database"
	"edccmon/internal/discover"
	"edccmon/internal/extract"
	"edccmon/internal/fetch"
)

// Discoverer yields candidate alert URLs for one pass.
type Discoverer interface {
	DiscoverAlertURLs(ctx context.Context) ([]string, error)
}

// Fetcher retrieves one alert page as a candidate record.
type Fetcher interface {
	FetchAlert(ctx context.Context, url string) (extract.Record, error)
}

// Result summarizes one sync pass.
type Result struct {
	Discovered   int
	Stored       int
	Skipped      int
	Failed       int
	DiscoveryErr error
}

// Pipeline runs sync passes. Passes are serialized: two overlapping passes
// upserting the same alert is the only real race here, so a concurrent
// RunSync waits for the running pass to finish.
type Pipeline struct {
	db         *database.DB
	discoverer Discoverer
	fetcher    Fetcher
	mu         sync.Mutex
}

// New creates a pipeline wired to the configured alert site.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{
		db:         db,
		discoverer: discover.New(cfg.Source.ListingURL, cfg.Source.BaseURL, cfg.FetchTimeout()),
		fetcher:    fetch.NewAlertFetcher(cfg.FetchTimeout()),
	}
}

// RunSync executes one full pass. Discovery failure abandons the pass with
// no store writes. Every per-URL failure is logged and the pass moves on to
// the next URL.
func (p *Pipeline) RunSync(ctx context.Context) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := &Result{}

	urls, err := p.discoverer.DiscoverAlertURLs(ctx)
	if err != nil {
		log.Printf("sync: discovery failed: %v", err)
		result.DiscoveryErr = err
		return result
	}
	result.Discovered = len(urls)

	for _, u := range urls {
		rec, err := p.fetcher.FetchAlert(ctx, u)
		if err != nil {
			log.Printf("sync: fetching %s: %v", u, err)
			result.Failed++
			continue
		}
		if rec.AlertID == nil || *rec.AlertID == "" {
			log.Printf("sync: no alert id extracted from %s, skipping", u)
			result.Skipped++
			continue
		}
		if err := p.db.UpsertAlert(rec); err != nil {
			log.Printf("sync: upserting alert %s from %s: %v", *rec.AlertID, u, err)
			result.Failed++
			continue
		}
		result.Stored++
	}

	log.Printf("sync complete: %d discovered, %d stored, %d skipped, %d failed",
		result.Discovered, result.Stored, result.Skipped, result.Failed)
	return result
}

// StartScheduler runs an immediate pass and then periodic passes per the
// cron schedule. The returned cron runner should be stopped on shutdown.
func (p *Pipeline) StartScheduler(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { p.RunSync(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}

	log.Printf("sync scheduled (cron: %s), running startup pass", schedule)
	go p.RunSync(ctx)
	c.Start()
	return c, nil
}
