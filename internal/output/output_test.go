// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/web2llm/internal/assemble"
	"github.com/pdiddy/web2llm/pkg/types"
)

func artifact(name, markdown string) *assemble.Artifact {
	return &assemble.Artifact{
		Name:     name,
		Markdown: markdown,
		Context: &assemble.Context{
			SourceURL:  "https://example.com/docs",
			SourceKind: types.KindWebPage,
			Title:      "Docs",
		},
	}
}

// failingFs fails to open files whose name ends with suffix.
type failingFs struct {
	afero.Fs
	suffix string
}

func (f *failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.HasSuffix(name, f.suffix) {
		return nil, errors.New("disk full")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(afero.NewOsFs(), types.OutputConfig{Dir: dir, WriteContext: true})

	paths, err := w.Write(artifact("example.com-docs", "---\ntitle: Docs\n---\n\nBody\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "example.com-docs", "example.com-docs.md"), paths.Markdown)
	assert.Equal(t, filepath.Join(dir, "example.com-docs", "example.com-docs_context.json"), paths.Context)

	md, err := os.ReadFile(paths.Markdown)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Docs\n---\n\nBody\n", string(md))

	raw, err := os.ReadFile(paths.Context)
	require.NoError(t, err)
	var ctx map[string]any
	require.NoError(t, json.Unmarshal(raw, &ctx))
	assert.Equal(t, "web", ctx["source_kind"])
	assert.Equal(t, "Docs", ctx["title"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging directory must not remain")
	assert.Equal(t, "example.com-docs", entries[0].Name())
}

func TestWrite_WithoutContext(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(afero.NewOsFs(), types.OutputConfig{Dir: dir})

	paths, err := w.Write(artifact("a", "x\n"))
	require.NoError(t, err)
	assert.Empty(t, paths.Context)

	entries, err := os.ReadDir(paths.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.md", entries[0].Name())
}

func TestWrite_ReplacesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(afero.NewOsFs(), types.OutputConfig{Dir: dir, WriteContext: true})

	_, err := w.Write(artifact("doc", "first\n"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc", "stale.txt"), []byte("x"), 0o644))

	paths, err := w.Write(artifact("doc", "second\n"))
	require.NoError(t, err)

	md, err := os.ReadFile(paths.Markdown)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(md))
	assert.NoFileExists(t, filepath.Join(dir, "doc", "stale.txt"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWrite_FailureLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	fs := &failingFs{Fs: afero.NewOsFs(), suffix: "_context.json"}
	w := NewWriter(fs, types.OutputConfig{Dir: dir, WriteContext: true})

	_, err := w.Write(artifact("doc", "body\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWrite_FailureKeepsPreviousRun(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWriter(afero.NewOsFs(), types.OutputConfig{Dir: dir, WriteContext: true}).Write(artifact("doc", "good\n"))
	require.NoError(t, err)

	fs := &failingFs{Fs: afero.NewOsFs(), suffix: "_context.json"}
	_, err = NewWriter(fs, types.OutputConfig{Dir: dir, WriteContext: true}).Write(artifact("doc", "bad\n"))
	require.Error(t, err)

	md, err := os.ReadFile(filepath.Join(dir, "doc", "doc.md"))
	require.NoError(t, err)
	assert.Equal(t, "good\n", string(md))
}

func TestWrite_RequiresName(t *testing.T) {
	_, err := NewWriter(afero.NewMemMapFs(), types.OutputConfig{}).Write(artifact("", "x"))
	assert.Error(t, err)
}
