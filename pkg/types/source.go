// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the web2llm pipeline:
// classified source references, extraction configuration, extracted
// documents with their file trees, and the typed pipeline errors.
package types

// SourceKind identifies which extraction strategy handles a reference.
type SourceKind int

const (
	KindUnknown SourceKind = iota
	KindWebPage
	KindGitHubRepo
	KindLocalFolder
	KindPDF
)

func (k SourceKind) String() string {
	switch k {
	case KindWebPage:
		return "web"
	case KindGitHubRepo:
		return "github"
	case KindLocalFolder:
		return "folder"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// MarshalText lets SourceKind appear by name in JSON and YAML output.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SourceReference is a classified input reference. It is created once by
// the classifier and passed by value afterwards.
type SourceReference struct {
	// Raw is the reference exactly as the user supplied it.
	Raw string `json:"raw" yaml:"raw"`

	// Kind selects the extraction strategy.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// Location is the normalized URL (without fragment) or the absolute
	// filesystem path.
	Location string `json:"location" yaml:"location"`

	// Fragment is the URL hash fragment of a web page reference. Empty for
	// every other kind.
	Fragment string `json:"fragment,omitempty" yaml:"fragment,omitempty"`

	// Remote reports whether Location is a URL rather than a local path.
	Remote bool `json:"remote" yaml:"remote"`
}

// URL returns the location with the fragment re-attached, which is the
// address a browser would show for the reference.
func (r SourceReference) URL() string {
	if r.Fragment == "" {
		return r.Location
	}
	return r.Location + "#" + r.Fragment
}
