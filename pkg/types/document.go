// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// NodeKind tells files from directories in a scraped tree.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeDirectory
)

func (k NodeKind) String() string {
	if k == NodeDirectory {
		return "dir"
	}
	return "file"
}

// FileNode is one entry of a scraped file tree. Paths are slash-separated
// and relative to the scrape root; the root itself has an empty Path.
type FileNode struct {
	// Path is the slash-separated path relative to the scrape root.
	Path string `json:"path" yaml:"path"`

	// Name is the last element of Path (the root carries the folder name).
	Name string `json:"name" yaml:"name"`

	Kind NodeKind `json:"kind" yaml:"kind"`

	// SizeBytes is the file size. Zero for directories.
	SizeBytes int64 `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`

	// Children are the accepted entries of a directory in lexicographic order.
	Children []*FileNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *FileNode) IsDir() bool { return n.Kind == NodeDirectory }

// FilePaths returns the paths of all file nodes in depth-first order.
func (n *FileNode) FilePaths() []string {
	var paths []string
	var visit func(*FileNode)
	visit = func(cur *FileNode) {
		if !cur.IsDir() {
			paths = append(paths, cur.Path)
			return
		}
		for _, c := range cur.Children {
			visit(c)
		}
	}
	if n != nil {
		visit(n)
	}
	return paths
}

// FileContent pairs an accepted file with its raw bytes.
type FileContent struct {
	Path    string `json:"path" yaml:"path"`
	Content []byte `json:"-" yaml:"-"`
}

// Skip records a file or directory that the walk left out, with the reason
// wrapped in Err (ErrFileIgnored, ErrFileTooLarge or ErrFileBinary).
type Skip struct {
	Path string `json:"path" yaml:"path"`
	Err  error  `json:"-" yaml:"-"`
}

// Reason returns the error text for reports.
func (s Skip) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Link is a hyperlink captured from page navigation or footers.
type Link struct {
	Text     string `json:"text" yaml:"text"`
	Href     string `json:"href" yaml:"href"`
	Children []Link `json:"children,omitempty" yaml:"children,omitempty"`
}

// ExtractedDocument is the output of one extraction strategy and the input
// of the document assembler.
type ExtractedDocument struct {
	Source SourceReference `json:"source" yaml:"source"`

	// Title is optional; the assembler omits it when empty.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Metadata holds source-specific fields such as authors, publish date,
	// arXiv id or repository stars.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Body is the normalized Markdown of web and PDF sources.
	Body string `json:"-" yaml:"-"`

	// Tree and Files are set for repository and folder sources.
	Tree    *FileNode     `json:"tree,omitempty" yaml:"tree,omitempty"`
	Files   []FileContent `json:"-" yaml:"-"`
	Skipped []Skip        `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	Navigation  []Link `json:"navigation_links,omitempty" yaml:"navigation_links,omitempty"`
	FooterLinks []Link `json:"footer_links,omitempty" yaml:"footer_links,omitempty"`
}

// SetMeta stores a trimmed metadata value, ignoring empty values.
func (d *ExtractedDocument) SetMeta(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if d.Metadata == nil {
		d.Metadata = make(map[string]string)
	}
	d.Metadata[key] = value
}
