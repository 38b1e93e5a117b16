// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content isolates the main content of a rendered HTML page,
// optionally narrowed to the section a URL fragment points at, and
// converts it to Markdown.
//
// Main-content selection takes the first selector in priority order that
// matches a non-empty element; it never compares candidate sizes. When no
// selector matches, the page body minus clutter is used.
package content

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/pdiddy/web2llm/pkg/types"
)

// MainSelectors lists main-content containers in priority order.
var MainSelectors = []string{
	"main .md-content",
	"main.VPContent",
	"main#content",
	"main article",
	`div[role="main"]`,
	"div.book",
	"div.body",
	"article",
	"main",
	"div#main",
	"div.main-content",
	"div#content",
	"div.content",
}

// navSelectors locate the primary navigation whose links are captured.
var navSelectors = []string{
	`div[role="navigation"]`,
	"nav.md-nav--primary",
	"aside.VPSidebar",
	"nav.sidebar-container",
	"aside.theme-doc-sidebar-container-mobile",
	"div.toc",
	`nav[aria-label="Main"]`,
	"nav#main-nav",
	".bd-sidebar-primary",
	"nav#bd-docs-nav",
	"div.wy-menu-vertical",
	`div[class*="sidebar"]`,
	`div[id*="sidebar"]`,
	"nav",
}

// clutterSelectors are removed from every extracted subtree.
var clutterSelectors = strings.Join([]string{
	"script", "style", "noscript", "template", "iframe", "link", "meta",
	"nav", "footer", "aside",
	`header[role="banner"]`, `[role="navigation"]`,
	`div[class*="sidebar"]`, `div[id*="sidebar"]`,
	"a.headerlink",
	`div[id*="cookie"]`, `div[class*="cookie"]`, `div[class*="consent"]`,
}, ", ")

// langAttr carries the detected code language from the page into the
// converter's pre rule.
const langAttr = "data-web2llm-lang"

// Options tunes extraction.
type Options struct {
	// MainSelectors overrides the default main-content selectors.
	MainSelectors []string

	// SkipLinks disables capture of navigation and footer links.
	SkipLinks bool
}

// Extract converts rendered page HTML to an ExtractedDocument. pageURL is
// used to resolve relative links and images. A non-empty fragment that
// matches an element id narrows extraction to that element's section; an
// unmatched fragment falls back to whole-page extraction.
func Extract(rawHTML, pageURL, fragment string, opts Options) (*types.ExtractedDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL %q: %w", pageURL, err)
	}

	out := &types.ExtractedDocument{}
	out.SetMeta("source_url", pageURL)
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		out.SetMeta("description", desc)
	}

	resolveLinks(doc, base)
	annotateCode(doc)
	stripBadges(doc)

	if !opts.SkipLinks {
		out.Navigation = navigationLinks(doc)
		out.FooterLinks = footerLinks(doc)
	}

	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())

	var (
		fragmentHTML string
		sectionTitle string
	)
	if fragment != "" {
		if target := findByID(doc, fragment); target != nil {
			fragmentHTML, sectionTitle = section(target)
			out.SetMeta("fragment", fragment)
		} else {
			log.Debug().Str("fragment", fragment).Str("url", pageURL).Msg("fragment not found, using whole page")
		}
	}

	body, firstHeading, err := render(fragmentHTML)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", pageURL, err)
	}
	if body == "" && fragmentHTML != "" {
		log.Debug().Str("fragment", fragment).Msg("fragment section is empty, using whole page")
		fragmentHTML = ""
		delete(out.Metadata, "fragment")
	}
	if fragmentHTML == "" {
		body, firstHeading, err = render(mainContent(doc, opts.MainSelectors))
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", pageURL, err)
		}
	}
	if body == "" {
		return nil, &types.ExtractionEmptyError{Source: pageURL}
	}
	out.Body = body

	out.Title = pageTitle
	switch {
	case fragmentHTML != "":
		if sectionTitle == "" {
			sectionTitle = firstHeading
		}
		if sectionTitle == "" {
			sectionTitle = fragment
		}
		if out.Title == "" {
			out.Title = sectionTitle
		} else {
			out.Title = fmt.Sprintf("%s (Section: %s)", out.Title, sectionTitle)
		}
	case out.Title == "":
		out.Title = firstHeading
	}
	return out, nil
}

// findByID returns the element whose id equals id. A named anchor is
// accepted as well. An anchor that sits inside a heading yields the heading.
func findByID(doc *goquery.Document, id string) *goquery.Selection {
	match := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
	if match.Length() == 0 {
		match = doc.Find("a[name]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("name")
			return v == id
		}).First()
	}
	if match.Length() == 0 {
		return nil
	}
	if headingLevel(match.Get(0)) == 0 {
		if parent := match.Parent(); parent.Length() > 0 && headingLevel(parent.Get(0)) > 0 {
			return parent
		}
	}
	return match
}

// section renders the subtree a fragment points at. For a heading this is
// the heading plus the following siblings up to the next heading of the
// same or higher level. A sibling that contains such a heading ends the
// section; only its content before that heading is kept.
func section(target *goquery.Selection) (string, string) {
	node := target.Get(0)
	level := headingLevel(node)
	if level == 0 {
		out, err := goquery.OuterHtml(target)
		if err != nil {
			return "", ""
		}
		return out, ""
	}

	var buf bytes.Buffer
	_ = html.Render(&buf, node)
	for sib := node.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode {
			if l := headingLevel(sib); l > 0 && l <= level {
				break
			}
			if containsHeading(sib, level) {
				pruned := goquery.NewDocumentFromNode(sib).Clone().Get(0)
				pruneFromHeading(pruned, level)
				_ = html.Render(&buf, pruned)
				break
			}
		}
		_ = html.Render(&buf, sib)
	}
	title := target.Clone()
	title.Find("a.headerlink").Remove()
	return buf.String(), collapseSpace(title.Text())
}

// mainContent returns the outer HTML of the first main-content candidate
// that still has text once clutter is removed, or the page body.
func mainContent(doc *goquery.Document, selectors []string) string {
	if len(selectors) == 0 {
		selectors = MainSelectors
	}
	for _, sel := range selectors {
		match := doc.Find(sel).First()
		if match.Length() == 0 {
			continue
		}
		stripped := match.Clone()
		stripped.Find(clutterSelectors).Remove()
		if strings.TrimSpace(stripped.Text()) == "" {
			continue
		}
		log.Debug().Str("selector", sel).Msg("main content matched")
		out, err := goquery.OuterHtml(match)
		if err == nil {
			return out
		}
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return ""
	}
	return body
}

// render cleans an HTML fragment and converts it to Markdown. An empty
// fragment renders to an empty body.
func render(fragment string) (string, string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", "", nil
	}
	cleaned, heading, err := clean(fragment)
	if err != nil {
		return "", "", fmt.Errorf("cleaning content: %w", err)
	}
	body, err := toMarkdown(cleaned)
	if err != nil {
		return "", "", fmt.Errorf("converting to Markdown: %w", err)
	}
	return body, heading, nil
}

// clean reparses a fragment, strips clutter and returns the remaining HTML
// together with the text of its first heading.
func clean(fragment string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", "", err
	}
	body := doc.Find("body").First()
	body.Find(clutterSelectors).Remove()
	heading := collapseSpace(body.Find("h1, h2, h3, h4, h5, h6").First().Text())
	out, err := body.Html()
	if err != nil {
		return "", "", err
	}
	return out, heading, nil
}

// resolveLinks rewrites link and image targets to absolute URLs.
func resolveLinks(doc *goquery.Document, base *url.URL) {
	resolve := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(attr)
			v = strings.TrimSpace(v)
			if v == "" || strings.HasPrefix(strings.ToLower(v), "javascript:") {
				return
			}
			ref, err := url.Parse(v)
			if err != nil {
				return
			}
			s.SetAttr(attr, base.ResolveReference(ref).String())
		}
	}
	doc.Find("a[href]").Each(resolve("href"))
	doc.Find("img[src]").Each(resolve("src"))
}

// stripBadges removes README-style badge images and links that only wrap
// one.
func stripBadges(doc *goquery.Document) {
	doc.Find(`img[alt*="Badge"], img[alt*="badge"]`).Each(func(_ int, img *goquery.Selection) {
		parent := img.Parent()
		if goquery.NodeName(parent) == "a" && strings.TrimSpace(parent.Text()) == "" && parent.Find("img").Length() == 1 {
			parent.Remove()
			return
		}
		img.Remove()
	})
}

func headingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if c := n.Data[1]; c >= '1' && c <= '6' {
		return int(c - '0')
	}
	return 0
}

func containsHeading(n *html.Node, level int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if l := headingLevel(c); l > 0 && l <= level {
			return true
		}
		if containsHeading(c, level) {
			return true
		}
	}
	return false
}

// pruneFromHeading removes the first heading of level or higher below root
// together with everything that follows it inside root.
func pruneFromHeading(root *html.Node, level int) {
	stop := firstHeading(root, level)
	if stop == nil {
		return
	}
	for n := stop; n != root; n = n.Parent {
		for sib := n.NextSibling; sib != nil; {
			next := sib.NextSibling
			n.Parent.RemoveChild(sib)
			sib = next
		}
	}
	stop.Parent.RemoveChild(stop)
}

func firstHeading(n *html.Node, level int) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if l := headingLevel(c); l > 0 && l <= level {
			return c
		}
		if h := firstHeading(c, level); h != nil {
			return h
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
