// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv recognizes arXiv PDF and abstract URLs and reads paper
// metadata from the abstract page.
package arxiv

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/web2llm/internal/fetch"
)

// AbsBase is the abstract page prefix. Declared as a var so tests can
// substitute an httptest server.
var AbsBase = "https://arxiv.org/abs/"

// idPattern matches new-style ids ("2301.07041", "2301.07041v2") and
// old-style ids ("hep-th/9901001", "math.GT/0309136v1") after /pdf/ or /abs/.
var idPattern = regexp.MustCompile(`(?i)arxiv\.org/(?:pdf|abs)/((?:\d{4}\.\d{4,5}|[a-z-]+(?:\.[a-z]{2})?/\d{7})(?:v\d+)?)(?:\.pdf)?/?(?:[?#].*)?$`)

// ID extracts the arXiv identifier from a PDF or abstract URL.
func ID(sourceURL string) (string, bool) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(sourceURL))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AbsURL returns the abstract page URL for id.
func AbsURL(id string) string {
	return AbsBase + id
}

// Metadata is what the abstract page tells about a paper.
type Metadata struct {
	ID        string
	Title     string
	Authors   []string
	Abstract  string
	Submitted string
	Subjects  string
	DOI       string
}

// Getter fetches a URL. *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Fetch downloads and parses the abstract page for id.
func Fetch(ctx context.Context, g Getter, id string) (*Metadata, error) {
	resp, err := g.Get(ctx, AbsURL(id))
	if err != nil {
		return nil, fmt.Errorf("fetching arXiv abstract page for %s: %w", id, err)
	}
	meta, err := Parse(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv abstract page for %s: %w", id, err)
	}
	meta.ID = id
	return meta, nil
}

// Parse reads metadata from abstract page HTML. Citation meta tags are
// preferred; the visible page elements fill the gaps.
func Parse(html string) (*Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		Title:     metaContent(doc, "citation_title"),
		Abstract:  metaContent(doc, "citation_abstract"),
		Submitted: metaContent(doc, "citation_date"),
		DOI:       metaContent(doc, "citation_doi"),
	}
	doc.Find(`meta[name="citation_author"]`).Each(func(_ int, s *goquery.Selection) {
		if v, _ := s.Attr("content"); strings.TrimSpace(v) != "" {
			meta.Authors = append(meta.Authors, strings.TrimSpace(v))
		}
	})

	if meta.Title == "" {
		meta.Title = stripLabel(doc.Find("h1.title").First().Text(), "Title:")
	}
	if meta.Abstract == "" {
		meta.Abstract = stripLabel(doc.Find("blockquote.abstract").First().Text(), "Abstract:")
	}
	if len(meta.Authors) == 0 {
		doc.Find("div.authors a").Each(func(_ int, s *goquery.Selection) {
			if name := collapse(s.Text()); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		})
	}
	if meta.Submitted == "" {
		meta.Submitted = strings.Trim(collapse(doc.Find("div.dateline").First().Text()), "[]")
	}
	meta.Subjects = collapse(doc.Find("td.subjects").First().Text())

	if meta.Title == "" && meta.Abstract == "" {
		return nil, fmt.Errorf("no title or abstract found")
	}
	return meta, nil
}

func metaContent(doc *goquery.Document, name string) string {
	v, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return collapse(v)
}

func stripLabel(s, label string) string {
	s = collapse(s)
	return strings.TrimSpace(strings.TrimPrefix(s, label))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
