// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package walk traverses a directory tree through an afero.Fs, applying a
// filter.Engine, and returns the accepted file tree with file contents in
// tree order. The same walk serves local folders and cloned repositories.
package walk

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/internal/filter"
	"github.com/pdiddy/web2llm/pkg/types"
)

// sniffLen is how much of each file is inspected for binary content.
const sniffLen = 8 << 10

// Result holds the outcome of one walk.
type Result struct {
	// Root is the directory node of the walk root. Its Path is empty.
	Root *types.FileNode

	// Files are the accepted files in depth-first tree order.
	Files []types.FileContent

	// Skipped lists paths left out, with the reason.
	Skipped []types.Skip
}

// Walk traverses root on fsys. Entries are visited depth-first in
// lexicographic order, symbolic links are not followed, and directories
// without accepted descendants are pruned from the tree.
func Walk(fsys afero.Fs, root string, engine *filter.Engine) (*Result, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walking %s: not a directory", root)
	}

	w := &walker{fs: fsys, root: root, engine: engine}
	node, err := w.dir("")
	if err != nil {
		return nil, err
	}
	if node == nil {
		node = &types.FileNode{Kind: types.NodeDirectory}
	}
	node.Name = filepath.Base(filepath.Clean(root))

	log.Debug().
		Str("root", root).
		Int("files", len(w.files)).
		Int("skipped", len(w.skipped)).
		Msg("walk complete")

	return &Result{Root: node, Files: w.files, Skipped: w.skipped}, nil
}

type walker struct {
	fs      afero.Fs
	root    string
	engine  *filter.Engine
	files   []types.FileContent
	skipped []types.Skip
}

// dir walks the directory at rel and returns its node, or nil when nothing
// below it was accepted.
func (w *walker) dir(rel string) (*types.FileNode, error) {
	abs := w.abs(rel)
	entries, err := afero.ReadDir(w.fs, abs)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", abs, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node := &types.FileNode{Path: rel, Name: path.Base("/" + rel), Kind: types.NodeDirectory}
	for _, entry := range entries {
		childRel := path.Join(rel, entry.Name())

		if w.isSymlink(childRel, entry) {
			log.Debug().Str("path", childRel).Msg("skipping symlink")
			continue
		}

		if entry.IsDir() {
			if d := w.engine.Dir(childRel); !d.Accepted() {
				w.skip(childRel, types.ErrFileIgnored)
				continue
			}
			child, err := w.dir(childRel)
			if err != nil {
				return nil, err
			}
			if child != nil {
				node.Children = append(node.Children, child)
			}
			continue
		}

		if !entry.Mode().IsRegular() {
			continue
		}
		if d := w.engine.File(childRel); !d.Accepted() {
			w.skip(childRel, types.ErrFileIgnored)
			continue
		}
		if w.engine.TooLarge(entry.Size()) {
			w.skip(childRel, types.ErrFileTooLarge)
			continue
		}

		content, err := afero.ReadFile(w.fs, w.abs(childRel))
		if err != nil {
			w.skip(childRel, fmt.Errorf("reading file: %w", err))
			continue
		}
		if isBinary(content) {
			w.skip(childRel, types.ErrFileBinary)
			continue
		}

		node.Children = append(node.Children, &types.FileNode{
			Path:      childRel,
			Name:      entry.Name(),
			Kind:      types.NodeFile,
			SizeBytes: entry.Size(),
		})
		w.files = append(w.files, types.FileContent{Path: childRel, Content: content})
	}

	if rel != "" && len(node.Children) == 0 {
		return nil, nil
	}
	return node, nil
}

func (w *walker) abs(rel string) string {
	if rel == "" {
		return w.root
	}
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func (w *walker) isSymlink(rel string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink != 0 {
		return true
	}
	lst, ok := w.fs.(afero.Lstater)
	if !ok {
		return false
	}
	fi, _, err := lst.LstatIfPossible(w.abs(rel))
	return err == nil && fi.Mode()&os.ModeSymlink != 0
}

func (w *walker) skip(rel string, err error) {
	log.Debug().Str("path", rel).Err(err).Msg("skipped")
	w.skipped = append(w.skipped, types.Skip{Path: rel, Err: err})
}

// isBinary reports whether the leading bytes of content contain a NUL byte
// or invalid UTF-8.
func isBinary(content []byte) bool {
	sample := content
	truncated := false
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
		truncated = true
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	if truncated {
		sample = trimPartialRune(sample)
	}
	return !utf8.Valid(sample)
}

// trimPartialRune removes an incomplete trailing UTF-8 sequence.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if utf8.RuneStart(b[start]) {
			if !utf8.FullRune(b[start:]) {
				return b[:start]
			}
			return b
		}
	}
	return b
}
