// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape implements one extraction strategy per source kind. Each
// strategy turns a classified SourceReference into an ExtractedDocument;
// For selects exactly one strategy for a kind.
package scrape

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/internal/clone"
	"github.com/pdiddy/web2llm/internal/fetch"
	"github.com/pdiddy/web2llm/internal/pdftext"
	"github.com/pdiddy/web2llm/internal/render"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Scraper extracts one kind of source.
type Scraper interface {
	Scrape(ctx context.Context, ref types.SourceReference) (*types.ExtractedDocument, error)
}

// Deps are the collaborators shared by the strategies.
type Deps struct {
	// Fetcher downloads PDFs and reads the GitHub API.
	Fetcher *fetch.Client

	// Renderer produces page HTML for web sources.
	Renderer render.Renderer

	// Cloner checks out repositories. Nil selects one with clone.Detect.
	Cloner clone.Cloner

	// Fs is the filesystem local folders and PDFs are read from.
	Fs afero.Fs

	Extraction types.ExtractionConfig

	// MainSelectors overrides the main-content selectors for web pages.
	MainSelectors []string

	// GitHubToken authenticates clones and API calls. May be empty.
	GitHubToken string

	// TempDir is the parent of clone directories. Empty uses os.TempDir.
	TempDir string
}

// For returns the strategy for kind.
func For(kind types.SourceKind, d Deps) (Scraper, error) {
	fs := d.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	switch kind {
	case types.KindWebPage:
		return &Web{Renderer: d.Renderer, MainSelectors: d.MainSelectors}, nil
	case types.KindLocalFolder:
		return &Folder{Fs: fs, Config: d.Extraction}, nil
	case types.KindGitHubRepo:
		r := &Repository{
			Cloner:  d.Cloner,
			Token:   d.GitHubToken,
			Config:  d.Extraction,
			TempDir: d.TempDir,
		}
		if d.Fetcher != nil {
			r.Metadata = d.Fetcher
		}
		return r, nil
	case types.KindPDF:
		var p *PDF
		if d.Fetcher != nil {
			p = &PDF{Downloader: d.Fetcher, Extractor: pdftext.New(d.Fetcher), Fs: fs}
		} else {
			p = &PDF{Extractor: pdftext.New(nil), Fs: fs}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("no scraper for source kind %s", kind)
	}
}
