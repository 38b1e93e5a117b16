// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package walk

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/web2llm/internal/filter"
	"github.com/pdiddy/web2llm/pkg/types"
)

func memTree(t *testing.T, root string, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		full := path.Join(root, name)
		require.NoError(t, fs.MkdirAll(path.Dir(full), 0o755))
		require.NoError(t, afero.WriteFile(fs, full, []byte(content), 0o644))
	}
	return fs
}

func engine(t *testing.T, cfg types.ExtractionConfig) *filter.Engine {
	t.Helper()
	e, err := filter.New(cfg)
	require.NoError(t, err)
	return e
}

func contentPaths(files []types.FileContent) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestWalk_DefaultConfigDropsBuiltins(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{
		"src/main.py":         "print('hi')\n",
		"node_modules/lib.js": "module.exports = {}\n",
		".git/HEAD":           "ref: refs/heads/main\n",
	})

	res, err := Walk(fs, "/repo", engine(t, types.ExtractionConfig{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"src/main.py"}, res.Root.FilePaths())
	assert.Equal(t, []string{"src/main.py"}, contentPaths(res.Files))
	assert.Equal(t, "repo", res.Root.Name)
	require.Len(t, res.Root.Children, 1)
	assert.Equal(t, "src", res.Root.Children[0].Name)
	assert.True(t, res.Root.Children[0].IsDir())
	assert.Equal(t, "print('hi')\n", string(res.Files[0].Content))
}

func TestWalk_IncludeDirs(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{
		"lib/a.py": "a = 1\n",
		"src/b.py": "b = 2\n",
	})

	res, err := Walk(fs, "/repo", engine(t, types.ExtractionConfig{IncludeDirs: []string{"lib"}}))
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/a.py"}, res.Root.FilePaths())
	assert.Equal(t, []string{"lib/a.py"}, contentPaths(res.Files))
}

func TestWalk_Deterministic(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{
		"z.go":           "package z\n",
		"a/b/c.go":       "package b\n",
		"a/a.go":         "package a\n",
		"B/upper.go":     "package upper\n",
		"m/n/o/deep.txt": "deep\n",
	})
	e := engine(t, types.ExtractionConfig{})

	first, err := Walk(fs, "/repo", e)
	require.NoError(t, err)
	second, err := Walk(fs, "/repo", e)
	require.NoError(t, err)

	assert.Equal(t, first.Root, second.Root)
	assert.Equal(t, contentPaths(first.Files), contentPaths(second.Files))
	assert.Equal(t,
		[]string{"B/upper.go", "a/a.go", "a/b/c.go", "m/n/o/deep.txt", "z.go"},
		contentPaths(first.Files))
	assert.Equal(t, first.Root.FilePaths(), contentPaths(first.Files))
}

func TestWalk_SkipsLargeAndBinary(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{
		"small.txt":  "ok\n",
		"large.txt":  strings.Repeat("x", 200),
		"blob.dat":   "abc\x00def",
		"latin1.txt": "caf\xe9\n",
	})

	res, err := Walk(fs, "/repo", engine(t, types.ExtractionConfig{MaxFileSizeBytes: 100}))
	require.NoError(t, err)

	assert.Equal(t, []string{"small.txt"}, contentPaths(res.Files))

	reasons := map[string]error{}
	for _, s := range res.Skipped {
		reasons[s.Path] = s.Err
	}
	assert.True(t, errors.Is(reasons["large.txt"], types.ErrFileTooLarge))
	assert.True(t, errors.Is(reasons["blob.dat"], types.ErrFileBinary))
	assert.True(t, errors.Is(reasons["latin1.txt"], types.ErrFileBinary))
}

func TestWalk_PrunesEmptyDirectories(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{
		"keep/main.go":     "package main\n",
		"empty/image.png":  "png",
		"nested/x/y/a.log": "log",
	})

	res, err := Walk(fs, "/repo", engine(t, types.ExtractionConfig{}))
	require.NoError(t, err)

	require.Len(t, res.Root.Children, 1)
	assert.Equal(t, "keep", res.Root.Children[0].Path)
}

func TestWalk_RecordsIgnoredPaths(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{
		"main.go":      "package main\n",
		"go.sum":       "sum\n",
		"vendor/x.go":  "package x\n",
		"notes.secret": "s\n",
	})

	res, err := Walk(fs, "/repo", engine(t, types.ExtractionConfig{ExcludeExtensions: []string{"secret"}}))
	require.NoError(t, err)

	var skipped []string
	for _, s := range res.Skipped {
		assert.ErrorIs(t, s.Err, types.ErrFileIgnored)
		skipped = append(skipped, s.Path)
	}
	assert.ElementsMatch(t, []string{"go.sum", "vendor", "notes.secret"}, skipped)
}

func TestWalk_EmptyRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	res, err := Walk(fs, "/empty", engine(t, types.ExtractionConfig{}))
	require.NoError(t, err)
	assert.True(t, res.Root.IsDir())
	assert.Empty(t, res.Root.Children)
	assert.Empty(t, res.Files)
}

func TestWalk_Errors(t *testing.T) {
	fs := memTree(t, "/repo", map[string]string{"file.txt": "x"})
	e := engine(t, types.ExtractionConfig{})

	_, err := Walk(fs, "/missing", e)
	require.Error(t, err)

	_, err = Walk(fs, "/repo/file.txt", e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestWalk_DoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real", "a.go"), []byte("package a\n"), 0o644))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "real", "a.go"), filepath.Join(root, "alias.go")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := Walk(afero.NewOsFs(), root, engine(t, types.ExtractionConfig{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"real/a.go"}, contentPaths(res.Files))
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"plain text", []byte("hello\n"), false},
		{"utf8 text", []byte("héllo wörld ✓\n"), false},
		{"nul byte", []byte{'a', 0, 'b'}, true},
		{"invalid utf8", []byte{0xff, 0xfe, 'a'}, true},
		{"empty", nil, false},
		{"rune split at sniff boundary", append([]byte(strings.Repeat("a", sniffLen-1)), []byte("é tail")...), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBinary(tt.content))
		})
	}
}
