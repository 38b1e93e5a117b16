// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble composes an ExtractedDocument into the final Markdown
// artifact: YAML front matter, then either the extracted body or a file
// tree diagram followed by one fenced block per file. It also builds the
// JSON context summary written next to the Markdown.
package assemble

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/web2llm/internal/content"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Options tunes assembly.
type Options struct {
	// Name is the artifact base name. Empty derives one from the source.
	Name string

	// ScrapedAt is recorded in the front matter when non-zero.
	ScrapedAt time.Time
}

// Artifact is the assembled output of one run.
type Artifact struct {
	Name     string
	Markdown string
	Context  *Context
}

// Context is the JSON summary written as <name>_context.json.
type Context struct {
	SourceURL   string            `json:"source_url"`
	SourceKind  types.SourceKind  `json:"source_kind"`
	Title       string            `json:"title,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ScrapedAt   string            `json:"scraped_at,omitempty"`
	Navigation  []types.Link      `json:"navigation_links,omitempty"`
	FooterLinks []types.Link      `json:"footer_links,omitempty"`
	Files       []ContextFile     `json:"files,omitempty"`
	Skipped     []ContextSkip     `json:"skipped,omitempty"`
}

// ContextFile describes one included file.
type ContextFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Language  string `json:"language"`
}

// ContextSkip describes one left-out path.
type ContextSkip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Assemble renders doc. The output is a pure function of doc and opts.
func Assemble(doc *types.ExtractedDocument, opts Options) (*Artifact, error) {
	name := opts.Name
	if name == "" {
		name = Slug(doc.Source)
	}

	var scrapedAt string
	if !opts.ScrapedAt.IsZero() {
		scrapedAt = opts.ScrapedAt.UTC().Format(time.RFC3339)
	}

	front, err := frontMatter(doc, scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("rendering front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(front)
	b.WriteString("\n")
	if doc.Tree != nil {
		writeTree(&b, doc)
	} else {
		b.WriteString(strings.TrimSpace(doc.Body))
		b.WriteString("\n")
	}

	return &Artifact{
		Name:     name,
		Markdown: b.String(),
		Context:  buildContext(doc, scrapedAt),
	}, nil
}

// frontMatter renders YAML front matter with title first and the remaining
// keys sorted.
func frontMatter(doc *types.ExtractedDocument, scrapedAt string) (string, error) {
	fields := make(map[string]string, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		fields[k] = v
	}
	fields["source_url"] = doc.Source.URL()
	fields["source_kind"] = doc.Source.Kind.String()
	if scrapedAt != "" {
		fields["scraped_at"] = scrapedAt
	}
	delete(fields, "title")

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(k, v string) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v},
		)
	}
	if doc.Title != "" {
		add("title", doc.Title)
	}
	for _, k := range keys {
		add(k, fields[k])
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return "---\n" + buf.String() + "---\n", nil
}

// writeTree renders the file tree section and one fenced block per file
// in tree order.
func writeTree(b *strings.Builder, doc *types.ExtractedDocument) {
	b.WriteString("## File Tree\n\n")
	diagram := Diagram(doc.Tree)
	fence := content.Fence(diagram)
	b.WriteString(fence + "text\n" + diagram + fence + "\n")

	b.WriteString("\n## File Contents\n")
	for _, f := range doc.Files {
		text := strings.TrimRight(string(f.Content), "\n")
		fence := content.Fence(text)
		fmt.Fprintf(b, "\n### `%s`\n\n", f.Path)
		b.WriteString(fence + Language(f.Path) + "\n")
		if text != "" {
			b.WriteString(text + "\n")
		}
		b.WriteString(fence + "\n")
	}
}

// Diagram draws tree with one entry per line, directories suffixed by "/".
func Diagram(tree *types.FileNode) string {
	var b strings.Builder
	root := tree.Name
	if root == "" {
		root = "."
	}
	b.WriteString(root + "/\n")
	var visit func(n *types.FileNode, depth int)
	visit = func(n *types.FileNode, depth int) {
		for _, c := range n.Children {
			b.WriteString(strings.Repeat("    ", depth))
			b.WriteString("|-- ")
			b.WriteString(c.Name)
			if c.IsDir() {
				b.WriteString("/\n")
				visit(c, depth+1)
				continue
			}
			b.WriteString("\n")
		}
	}
	visit(tree, 0)
	return b.String()
}

func buildContext(doc *types.ExtractedDocument, scrapedAt string) *Context {
	ctx := &Context{
		SourceURL:   doc.Source.URL(),
		SourceKind:  doc.Source.Kind,
		Title:       doc.Title,
		Metadata:    doc.Metadata,
		ScrapedAt:   scrapedAt,
		Navigation:  doc.Navigation,
		FooterLinks: doc.FooterLinks,
	}

	sizes := make(map[string]int64)
	if doc.Tree != nil {
		var visit func(*types.FileNode)
		visit = func(n *types.FileNode) {
			if !n.IsDir() {
				sizes[n.Path] = n.SizeBytes
			}
			for _, c := range n.Children {
				visit(c)
			}
		}
		visit(doc.Tree)
	}
	for _, f := range doc.Files {
		size, ok := sizes[f.Path]
		if !ok {
			size = int64(len(f.Content))
		}
		ctx.Files = append(ctx.Files, ContextFile{Path: f.Path, SizeBytes: size, Language: Language(f.Path)})
	}
	for _, s := range doc.Skipped {
		ctx.Skipped = append(ctx.Skipped, ContextSkip{Path: s.Path, Reason: s.Reason()})
	}
	return ctx
}

// Language returns the fence language hint for a file path, "text" when
// the extension is unknown.
func Language(p string) string {
	name := strings.ToLower(path.Base(p))
	if lang, ok := languageByName[name]; ok {
		return lang
	}
	if lang, ok := languageByExt[path.Ext(name)]; ok {
		return lang
	}
	return "text"
}
