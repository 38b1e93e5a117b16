// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/internal/fetch"
	"github.com/pdiddy/web2llm/internal/pdftext"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Downloader fetches remote PDFs.
type Downloader interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// PDF downloads or reads a PDF and extracts its text.
type PDF struct {
	// Downloader is required for remote references.
	Downloader Downloader

	Extractor *pdftext.Extractor
	Fs        afero.Fs
}

func (p *PDF) Scrape(ctx context.Context, ref types.SourceReference) (*types.ExtractedDocument, error) {
	var data []byte
	if ref.Remote {
		if p.Downloader == nil {
			return nil, fmt.Errorf("no downloader configured for %s", ref.Location)
		}
		resp, err := p.Downloader.Get(ctx, ref.Location)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("url", ref.Location).Int("bytes", len(resp.Body)).Bool("cached", resp.Cached).Msg("PDF downloaded")
		data = resp.Body
	} else {
		b, err := afero.ReadFile(p.Fs, ref.Location)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", ref.Location, err)
		}
		data = b
	}

	doc, err := p.Extractor.Extract(ctx, data, ref.Location)
	if err != nil {
		return nil, err
	}
	doc.Source = ref
	return doc, nil
}
