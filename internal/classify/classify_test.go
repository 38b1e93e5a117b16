// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/web2llm/pkg/types"
)

type stubProber struct {
	types map[string]string
	calls []string
}

func (p *stubProber) ContentType(_ context.Context, url string) (string, error) {
	p.calls = append(p.calls, url)
	ct, ok := p.types[url]
	if !ok {
		return "", errors.New("probe failed")
	}
	return ct, nil
}

func TestClassify_URLs(t *testing.T) {
	tests := []struct {
		ref          string
		wantKind     types.SourceKind
		wantLocation string
		wantFragment string
	}{
		{"https://example.com/docs/page.html#install", types.KindWebPage, "https://example.com/docs/page.html", "install"},
		{"https://Example.COM/a", types.KindWebPage, "https://example.com/a", ""},
		{"http://example.com", types.KindWebPage, "http://example.com", ""},
		{"  https://example.com/x  ", types.KindWebPage, "https://example.com/x", ""},
		{"https://github.com/owner/repo", types.KindGitHubRepo, "https://github.com/owner/repo", ""},
		{"https://github.com/owner/repo#readme", types.KindGitHubRepo, "https://github.com/owner/repo", ""},
		{"https://www.github.com/owner/repo/tree/main/src", types.KindGitHubRepo, "https://www.github.com/owner/repo/tree/main/src", ""},
		{"https://github.com/owner", types.KindWebPage, "https://github.com/owner", ""},
		{"https://github.com/owner/repo/blob/main/README.md", types.KindWebPage, "https://github.com/owner/repo/blob/main/README.md", ""},
		{"https://example.com/paper.PDF", types.KindPDF, "https://example.com/paper.PDF", ""},
		{"https://example.com/paper.pdf#page=2", types.KindPDF, "https://example.com/paper.pdf", ""},
		{"https://arxiv.org/pdf/2301.07041v2", types.KindPDF, "https://arxiv.org/pdf/2301.07041v2", ""},
		{"https://arxiv.org/abs/2301.07041v2", types.KindWebPage, "https://arxiv.org/abs/2301.07041v2", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := Classify(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantLocation, got.Location)
			assert.Equal(t, tt.wantFragment, got.Fragment)
			assert.True(t, got.Remote)
			assert.Equal(t, tt.ref, got.Raw)
		})
	}
}

func TestClassify_Probe(t *testing.T) {
	prober := &stubProber{types: map[string]string{
		"https://example.com/download?id=1": "application/pdf",
		"https://example.com/page":          "text/html",
	}}
	c := &Classifier{Prober: prober}

	got, err := c.Classify(context.Background(), "https://example.com/download?id=1")
	require.NoError(t, err)
	assert.Equal(t, types.KindPDF, got.Kind)

	got, err = c.Classify(context.Background(), "https://example.com/page#intro")
	require.NoError(t, err)
	assert.Equal(t, types.KindWebPage, got.Kind)
	assert.Equal(t, "intro", got.Fragment)

	// Probe failures fall through to a web page.
	got, err = c.Classify(context.Background(), "https://example.com/unknown")
	require.NoError(t, err)
	assert.Equal(t, types.KindWebPage, got.Kind)

	// Repositories and .pdf URLs are never probed.
	_, err = c.Classify(context.Background(), "https://github.com/a/b")
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), "https://example.com/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/download?id=1",
		"https://example.com/page",
		"https://example.com/unknown",
	}, prober.calls)
}

func TestClassify_LocalPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "project"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.pdf"), []byte("%PDF-1.4 ..."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "download"), []byte("%PDF-1.7 ..."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))

	tests := []struct {
		name     string
		ref      string
		wantKind types.SourceKind
	}{
		{"directory", filepath.Join(dir, "project"), types.KindLocalFolder},
		{"pdf by extension", filepath.Join(dir, "paper.pdf"), types.KindPDF},
		{"pdf by signature", filepath.Join(dir, "download"), types.KindPDF},
		{"file URL", "file://" + filepath.ToSlash(filepath.Join(dir, "project")), types.KindLocalFolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.False(t, got.Remote)
			assert.True(t, filepath.IsAbs(got.Location))
			assert.Empty(t, got.Fragment)
		})
	}
}

func TestClassify_RelativePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(filepath.Join(cwd, "sub", "dir"), 0o755))

	got, err := (&Classifier{Fs: fs}).Classify(context.Background(), "sub/dir")
	require.NoError(t, err)
	assert.Equal(t, types.KindLocalFolder, got.Kind)
	assert.Equal(t, filepath.Join(cwd, "sub", "dir"), got.Location)
}

func TestClassify_HomeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(home, "notes"), 0o755))

	got, err := (&Classifier{Fs: fs}).Classify(context.Background(), "~/notes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes"), got.Location)
}

func TestClassify_Unsupported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))

	tests := []struct {
		name   string
		ref    string
		reason string
	}{
		{"empty", "   ", "empty reference"},
		{"missing path", filepath.Join(dir, "nope"), "does not exist"},
		{"plain local file", filepath.Join(dir, "notes.txt"), "not a PDF"},
		{"ftp scheme", "ftp://example.com/file", "unsupported URL scheme"},
		{"no host", "https:///path", "no host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(context.Background(), tt.ref)
			require.Error(t, err)
			var unsupported *types.UnsupportedSourceError
			require.True(t, errors.As(err, &unsupported))
			assert.Contains(t, unsupported.Reason, tt.reason)
		})
	}
}
