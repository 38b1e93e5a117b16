// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify turns a raw input reference into a SourceReference of
// exactly one kind: web page, GitHub repository, local folder or PDF.
package classify

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/pkg/types"
)

// gitHosts are hosts whose repository URLs are cloned rather than rendered.
var gitHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
}

// arxivHosts serve PDFs under /pdf/ without a .pdf suffix.
var arxivHosts = map[string]bool{
	"arxiv.org":        true,
	"www.arxiv.org":    true,
	"export.arxiv.org": true,
}

var pdfSignature = []byte("%PDF-")

// Prober reports the media type of a URL, typically via HEAD.
type Prober interface {
	ContentType(ctx context.Context, url string) (string, error)
}

// Classifier classifies references. The zero value classifies without
// probing and reads the OS filesystem.
type Classifier struct {
	// Prober detects PDFs served from URLs without a .pdf suffix. Optional.
	Prober Prober

	// Fs is the filesystem local references are checked against.
	Fs afero.Fs
}

// Classify classifies reference without a content-type probe.
func Classify(ctx context.Context, reference string) (types.SourceReference, error) {
	return (&Classifier{}).Classify(ctx, reference)
}

// Classify inspects reference and selects its source kind. It fails with
// UnsupportedSourceError when the reference is neither an http(s) URL nor
// an existing directory or PDF file.
func (c *Classifier) Classify(ctx context.Context, reference string) (types.SourceReference, error) {
	raw := reference
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return types.SourceReference{}, &types.UnsupportedSourceError{Reference: raw, Reason: "empty reference"}
	}

	if u, err := url.Parse(reference); err == nil && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			if u.Host == "" {
				return types.SourceReference{}, &types.UnsupportedSourceError{Reference: raw, Reason: "URL has no host"}
			}
			return c.classifyURL(ctx, raw, u), nil
		case "file":
			return c.classifyPath(raw, u.Path)
		default:
			return types.SourceReference{}, &types.UnsupportedSourceError{Reference: raw, Reason: "unsupported URL scheme " + u.Scheme}
		}
	}
	return c.classifyPath(raw, reference)
}

func (c *Classifier) classifyURL(ctx context.Context, raw string, u *url.URL) types.SourceReference {
	fragment := u.Fragment
	clean := *u
	clean.Fragment = ""
	clean.RawFragment = ""
	clean.Host = strings.ToLower(clean.Host)

	ref := types.SourceReference{Raw: raw, Location: clean.String(), Remote: true}
	host := clean.Hostname()

	switch {
	case gitHosts[host] && isRepoPath(clean.Path):
		ref.Kind = types.KindGitHubRepo
	case isPDFPath(host, clean.Path):
		ref.Kind = types.KindPDF
	case c.probePDF(ctx, ref.Location):
		ref.Kind = types.KindPDF
	default:
		ref.Kind = types.KindWebPage
		ref.Fragment = fragment
	}
	return ref
}

// isRepoPath accepts /owner/repo and /owner/repo/tree/<branch>/... paths.
func isRepoPath(p string) bool {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return len(parts) == 2 || parts[2] == "tree"
}

func isPDFPath(host, p string) bool {
	if strings.HasSuffix(strings.ToLower(p), ".pdf") {
		return true
	}
	return arxivHosts[host] && strings.HasPrefix(p, "/pdf/")
}

func (c *Classifier) probePDF(ctx context.Context, location string) bool {
	if c.Prober == nil {
		return false
	}
	ct, err := c.Prober.ContentType(ctx, location)
	if err != nil {
		log.Debug().Err(err).Str("url", location).Msg("content-type probe failed")
		return false
	}
	return ct == "application/pdf"
}

func (c *Classifier) classifyPath(raw, p string) (types.SourceReference, error) {
	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	p = expandHome(p)
	abs, err := filepath.Abs(p)
	if err != nil {
		return types.SourceReference{}, &types.UnsupportedSourceError{Reference: raw, Reason: err.Error()}
	}

	info, err := fs.Stat(abs)
	if err != nil {
		reason := "path does not exist"
		if !os.IsNotExist(err) {
			reason = err.Error()
		}
		return types.SourceReference{}, &types.UnsupportedSourceError{Reference: raw, Reason: reason}
	}

	ref := types.SourceReference{Raw: raw, Location: abs}
	switch {
	case info.IsDir():
		ref.Kind = types.KindLocalFolder
	case strings.EqualFold(filepath.Ext(abs), ".pdf") || hasPDFSignature(fs, abs):
		ref.Kind = types.KindPDF
	default:
		return types.SourceReference{}, &types.UnsupportedSourceError{Reference: raw, Reason: "local file is not a PDF"}
	}
	return ref, nil
}

func hasPDFSignature(fs afero.Fs, name string) bool {
	f, err := fs.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(pdfSignature))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, pdfSignature)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
