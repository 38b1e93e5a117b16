// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one conversion: classify the reference, scrape it
// with the matching strategy, assemble the Markdown artifact and write it
// to the output directory or a stream.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/internal/assemble"
	"github.com/pdiddy/web2llm/internal/cache"
	"github.com/pdiddy/web2llm/internal/classify"
	"github.com/pdiddy/web2llm/internal/clone"
	"github.com/pdiddy/web2llm/internal/fetch"
	"github.com/pdiddy/web2llm/internal/output"
	"github.com/pdiddy/web2llm/internal/render"
	"github.com/pdiddy/web2llm/internal/scrape"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Stage names reported to the progress callback.
const (
	StageClassify = "classifying"
	StageScrape   = "extracting"
	StageAssemble = "assembling"
	StageWrite    = "writing"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFs sets the filesystem for local sources and output.
func WithFs(fsys afero.Fs) Option {
	return func(p *Pipeline) { p.fs = fsys }
}

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Pipeline) { p.httpClient = hc }
}

// WithRenderer replaces the renderer selected from the configuration.
func WithRenderer(r render.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithCloner replaces the detected repository cloner.
func WithCloner(c clone.Cloner) Option {
	return func(p *Pipeline) { p.cloner = c }
}

// WithClock sets the time source for the scraped_at field.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithProgress registers a callback invoked when a stage starts.
func WithProgress(fn func(stage string)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// Pipeline holds the collaborators shared by runs.
type Pipeline struct {
	cfg        types.PipelineConfig
	fs         afero.Fs
	httpClient *http.Client
	renderer   render.Renderer
	cloner     clone.Cloner
	now        func() time.Time
	progress   func(string)

	cache   *cache.Store
	fetcher *fetch.Client
}

// New builds a Pipeline from cfg. It opens the response cache when
// cfg.HTTP.CachePath is set; callers must Close the Pipeline.
func New(cfg types.PipelineConfig, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:      cfg,
		now:      time.Now,
		progress: func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}

	var fetchOpts []fetch.Option
	if p.httpClient != nil {
		fetchOpts = append(fetchOpts, fetch.WithHTTPClient(p.httpClient))
	}
	if cfg.HTTP.CachePath != "" {
		store, err := cache.Open(cfg.HTTP.CachePath, cache.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("opening response cache: %w", err)
		}
		p.cache = store
		p.evictExpired()
		fetchOpts = append(fetchOpts, fetch.WithCache(store))
	}
	p.fetcher = fetch.New(cfg.HTTP, fetchOpts...)

	if p.renderer == nil {
		r, err := render.New(cfg.Render, p.fetcher, cfg.HTTP.UserAgent)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.renderer = r
	}
	return p, nil
}

// evictExpired drops cache entries older than the TTL.
func (p *Pipeline) evictExpired() {
	ctx := context.Background()
	removed, err := p.cache.Purge(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("evicting expired cache entries")
		return
	}
	n, err := p.cache.Len(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("counting cache entries")
		return
	}
	log.Debug().Int64("evicted", removed).Int("entries", n).Str("path", p.cfg.HTTP.CachePath).Msg("response cache opened")
}

// Close releases the response cache.
func (p *Pipeline) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}

// Request describes one run.
type Request struct {
	// Reference is the URL or path to convert.
	Reference string

	// Name overrides the artifact base name.
	Name string

	// Stdout, when set, receives the Markdown instead of the output
	// directory.
	Stdout io.Writer

	// MainSelectors overrides the web main-content selectors.
	MainSelectors []string
}

// Result describes a finished run.
type Result struct {
	Source   types.SourceReference
	Artifact *assemble.Artifact

	// Paths is zero when the Markdown went to Request.Stdout.
	Paths output.Paths
}

// Run converts req.Reference. Every failure is returned as a typed error
// from pkg/types, wrapped with the stage it came from.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	p.progress(StageClassify)
	classifier := &classify.Classifier{Fs: p.fs}
	if p.cfg.Classify.ProbeContentType {
		classifier.Prober = p.fetcher
	}
	ref, err := classifier.Classify(ctx, req.Reference)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", ref.URL()).Stringer("kind", ref.Kind).Msg("source classified")

	p.progress(StageScrape)
	scraper, err := scrape.For(ref.Kind, scrape.Deps{
		Fetcher:       p.fetcher,
		Renderer:      p.renderer,
		Cloner:        p.cloner,
		Fs:            p.fs,
		Extraction:    p.cfg.Extraction,
		MainSelectors: req.MainSelectors,
		GitHubToken:   p.cfg.GitHubToken,
	})
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Scrape(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", ref.URL(), err)
	}
	log.Debug().
		Str("title", doc.Title).
		Int("files", len(doc.Files)).
		Int("skipped", len(doc.Skipped)).
		Msg("extraction complete")

	p.progress(StageAssemble)
	art, err := assemble.Assemble(doc, assemble.Options{Name: req.Name, ScrapedAt: p.now()})
	if err != nil {
		return nil, err
	}

	res := &Result{Source: ref, Artifact: art}
	p.progress(StageWrite)
	if req.Stdout != nil {
		if _, err := io.WriteString(req.Stdout, art.Markdown); err != nil {
			return nil, fmt.Errorf("writing Markdown: %w", err)
		}
		return res, nil
	}

	paths, err := output.NewWriter(p.fs, p.cfg.Output).Write(art)
	if err != nil {
		return nil, err
	}
	res.Paths = paths
	return res, nil
}
