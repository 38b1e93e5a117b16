// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext extracts per-page text and document metadata from PDF
// bytes. Sources that point at arXiv are enriched with the paper's
// abstract page; enrichment failures never fail the extraction.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/web2llm/internal/arxiv"
	"github.com/pdiddy/web2llm/pkg/types"
)

// infoKeys maps document info dictionary entries to metadata keys.
var infoKeys = []struct {
	pdfKey string
	key    string
}{
	{"Title", "title"},
	{"Author", "author"},
	{"Subject", "subject"},
	{"Keywords", "keywords"},
	{"Creator", "creator"},
	{"Producer", "producer"},
	{"CreationDate", "creation_date"},
	{"ModDate", "mod_date"},
}

var (
	hyphenBreak = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
	pdfDate     = regexp.MustCompile(`^D:(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?`)
)

// Extractor turns PDF bytes into an ExtractedDocument.
type Extractor struct {
	// Getter fetches arXiv abstract pages. Nil disables enrichment.
	Getter arxiv.Getter
}

// New returns an Extractor that enriches arXiv sources through g.
func New(g arxiv.Getter) *Extractor {
	return &Extractor{Getter: g}
}

// Extract parses data and returns the page text as Markdown, each page
// introduced by a "--- Page N ---" marker. sourceURL is the URL or path
// the bytes came from; only arXiv URLs cause a network request.
func (e *Extractor) Extract(ctx context.Context, data []byte, sourceURL string) (*types.ExtractedDocument, error) {
	pages, info, err := read(data)
	if err != nil {
		return nil, &types.PdfCorruptError{Source: sourceURL, Err: err}
	}

	doc := &types.ExtractedDocument{}
	for _, k := range infoKeys {
		v := info[k.pdfKey]
		if strings.HasSuffix(k.key, "_date") {
			v = normalizeDate(v)
		}
		doc.SetMeta(k.key, v)
	}
	doc.SetMeta("pages", fmt.Sprint(len(pages)))

	var body strings.Builder
	for i, text := range pages {
		if i > 0 {
			body.WriteString("\n\n")
		}
		fmt.Fprintf(&body, "--- Page %d ---", i+1)
		if text = reflow(text); text != "" {
			body.WriteString("\n\n")
			body.WriteString(text)
		}
	}
	doc.Body = body.String()

	doc.Title = doc.Metadata["title"]
	if id, ok := arxiv.ID(sourceURL); ok && e.Getter != nil {
		e.enrich(ctx, doc, id)
	}
	if doc.Title == "" {
		doc.Title = fileName(sourceURL)
	}

	if strings.TrimSpace(stripMarkers(doc.Body)) == "" {
		log.Warn().Str("source", sourceURL).Msg("PDF has no extractable text")
	}
	return doc, nil
}

// enrich merges abstract page metadata into doc. Failures are logged and
// leave doc untouched.
func (e *Extractor) enrich(ctx context.Context, doc *types.ExtractedDocument, id string) {
	meta, err := arxiv.Fetch(ctx, e.Getter, id)
	if err != nil {
		log.Warn().Err(err).Str("arxiv_id", id).Msg("arXiv metadata unavailable, using PDF metadata")
		return
	}
	doc.SetMeta("arxiv_id", id)
	doc.SetMeta("abs_url", arxiv.AbsURL(id))
	if meta.Title != "" {
		doc.Title = meta.Title
		doc.SetMeta("title", meta.Title)
	}
	if len(meta.Authors) > 0 {
		doc.SetMeta("authors", strings.Join(meta.Authors, "; "))
	}
	doc.SetMeta("abstract", meta.Abstract)
	doc.SetMeta("submitted", meta.Submitted)
	doc.SetMeta("subjects", meta.Subjects)
	doc.SetMeta("doi", meta.DOI)
}

// read parses the PDF and returns per-page text plus the info dictionary.
// The parser panics on some malformed inputs; those become errors.
func read(data []byte) (pages []string, info map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, nil, fmt.Errorf("missing %%PDF- header")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing PDF: %w", err)
	}

	info = make(map[string]string)
	infoDict := r.Trailer().Key("Info")
	for _, k := range infoKeys {
		if v := infoDict.Key(k.pdfKey); !v.IsNull() {
			info[k.pdfKey] = strings.TrimSpace(v.Text())
		}
	}

	n := r.NumPage()
	if n == 0 {
		return nil, nil, fmt.Errorf("document has no pages")
	}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText(p))
	}
	return pages, info, nil
}

// pageText returns the page's text one visual row per line, falling back
// to the plain content stream text.
func pageText(p pdf.Page) string {
	if rows, err := p.GetTextByRow(); err == nil && len(rows) > 0 {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			lines = append(lines, line.String())
		}
		if text := strings.Join(lines, "\n"); strings.TrimSpace(text) != "" {
			return text
		}
	}

	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	text, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return text
}

// reflow joins wrapped lines into paragraphs. Blank lines separate
// paragraphs and words hyphenated across a line break are rejoined.
func reflow(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")

	var (
		paragraphs []string
		current    []string
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return strings.Join(paragraphs, "\n\n")
}

// normalizeDate converts a PDF date string ("D:20230115093000Z") to
// RFC 3339. Values that do not parse are returned unchanged.
func normalizeDate(v string) string {
	m := pdfDate.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	parts := []string{m[1], "01", "01", "00", "00", "00"}
	for i := 2; i <= 6; i++ {
		if m[i] != "" {
			parts[i-1] = m[i]
		}
	}
	t, err := time.Parse("20060102150405", strings.Join(parts, ""))
	if err != nil {
		return v
	}
	return t.UTC().Format(time.RFC3339)
}

// fileName returns the last path element of a URL or filesystem path.
func fileName(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		source = u.Path
	}
	base := path.Base(strings.ReplaceAll(source, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func stripMarkers(body string) string {
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "--- Page ") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
