// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/web2llm/internal/content"
	"github.com/pdiddy/web2llm/internal/render"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Web renders a page and isolates its main content, or the section named
// by the reference fragment.
type Web struct {
	Renderer      render.Renderer
	MainSelectors []string
}

func (w *Web) Scrape(ctx context.Context, ref types.SourceReference) (*types.ExtractedDocument, error) {
	html, err := w.Renderer.Render(ctx, ref.Location)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("url", ref.Location).Int("bytes", len(html)).Msg("page rendered")

	doc, err := content.Extract(html, ref.Location, ref.Fragment, content.Options{MainSelectors: w.MainSelectors})
	if err != nil {
		return nil, err
	}
	doc.Source = ref
	return doc, nil
}
