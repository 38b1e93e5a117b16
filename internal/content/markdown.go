// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

var (
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	backtickRun   = regexp.MustCompile("`+")
)

// newConverter builds the HTML to Markdown converter: ATX headings, "*"
// bullets, fenced code with detected languages and GitHub-style tables.
// Links are already absolute, so no domain is passed.
func newConverter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "*",
		CodeBlockStyle:   "fenced",
		Fence:            "```",
	})
	conv.Use(plugin.Table())
	conv.AddRules(md.Rule{
		Filter: []string{"pre"},
		Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
			lang, _ := selec.Attr(langAttr)
			code := strings.TrimRight(selec.Text(), "\n")
			if strings.TrimSpace(code) == "" {
				return md.String("")
			}
			fence := Fence(code)
			return md.String("\n\n" + fence + lang + "\n" + code + "\n" + fence + "\n\n")
		},
	})
	return conv
}

// toMarkdown converts cleaned HTML and normalizes whitespace.
func toMarkdown(cleanHTML string) (string, error) {
	out, err := newConverter().ConvertString(cleanHTML)
	if err != nil {
		return "", err
	}
	return normalize(out), nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Fence returns a backtick fence longer than any backtick run in code,
// and at least three characters long.
func Fence(code string) string {
	n := 3
	for _, run := range backtickRun.FindAllString(code, -1) {
		if len(run) >= n {
			n = len(run) + 1
		}
	}
	return strings.Repeat("`", n)
}

// annotateCode records the language of every pre block in langAttr so the
// converter can emit it on the fence.
func annotateCode(doc *goquery.Document) {
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		if lang := codeLanguage(pre); lang != "" {
			pre.SetAttr(langAttr, lang)
		}
	})
}

// codeLanguage detects a code block's language from language-* classes on
// the block or its code child, highlight-* classes on an ancestor, or an
// interactive Python prompt.
func codeLanguage(pre *goquery.Selection) string {
	for _, s := range []*goquery.Selection{pre.ChildrenFiltered("code").First(), pre} {
		for _, cls := range classes(s) {
			for _, prefix := range []string{"language-", "lang-"} {
				if lang, ok := strings.CutPrefix(cls, prefix); ok && lang != "" {
					return lang
				}
			}
		}
	}

	var lang string
	pre.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		for _, cls := range classes(p) {
			if l, ok := strings.CutPrefix(cls, "highlight-"); ok && l != "" && l != "default" && l != "text" {
				lang = l
				return false
			}
		}
		return true
	})
	if lang != "" {
		return lang
	}

	if strings.HasPrefix(strings.TrimSpace(pre.Text()), ">>>") {
		return "python"
	}
	return ""
}

func classes(s *goquery.Selection) []string {
	if s.Length() == 0 {
		return nil
	}
	v, _ := s.Attr("class")
	return strings.Fields(v)
}
