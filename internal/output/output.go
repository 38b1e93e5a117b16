// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output writes assembled artifacts to disk. Each run produces
// <dir>/<name>/<name>.md and, optionally, <name>_context.json. Files are
// staged in a temporary directory next to the target and renamed into
// place, so a failed run leaves no partial output.
package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/internal/assemble"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Paths locates the files of one written artifact.
type Paths struct {
	Dir      string
	Markdown string

	// Context is empty when the context summary is disabled.
	Context string
}

// Writer writes artifacts below a parent directory.
type Writer struct {
	fs  afero.Fs
	cfg types.OutputConfig
}

// NewWriter returns a Writer on fsys. A nil fsys writes to the OS.
func NewWriter(fsys afero.Fs, cfg types.OutputConfig) *Writer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if cfg.Dir == "" {
		cfg.Dir = "output"
	}
	return &Writer{fs: fsys, cfg: cfg}
}

// Write stores art and returns the final paths. An existing directory for
// the same name is replaced only after the new files are complete.
func (w *Writer) Write(art *assemble.Artifact) (Paths, error) {
	if art.Name == "" {
		return Paths{}, fmt.Errorf("artifact has no name")
	}
	if err := w.fs.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating output directory %s: %w", w.cfg.Dir, err)
	}

	stage, err := afero.TempDir(w.fs, w.cfg.Dir, "."+art.Name+"-tmp-")
	if err != nil {
		return Paths{}, fmt.Errorf("creating staging directory: %w", err)
	}
	defer w.fs.RemoveAll(stage)

	mdName := art.Name + ".md"
	if err := afero.WriteFile(w.fs, filepath.Join(stage, mdName), []byte(art.Markdown), 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", mdName, err)
	}

	var ctxName string
	if w.cfg.WriteContext && art.Context != nil {
		ctxName = art.Name + "_context.json"
		data, err := json.MarshalIndent(art.Context, "", "  ")
		if err != nil {
			return Paths{}, fmt.Errorf("encoding context: %w", err)
		}
		data = append(data, '\n')
		if err := afero.WriteFile(w.fs, filepath.Join(stage, ctxName), data, 0o644); err != nil {
			return Paths{}, fmt.Errorf("writing %s: %w", ctxName, err)
		}
	}

	target := filepath.Join(w.cfg.Dir, art.Name)
	if err := w.replace(stage, target); err != nil {
		return Paths{}, err
	}

	paths := Paths{Dir: target, Markdown: filepath.Join(target, mdName)}
	if ctxName != "" {
		paths.Context = filepath.Join(target, ctxName)
	}
	log.Info().Str("path", paths.Markdown).Int("bytes", len(art.Markdown)).Msg("artifact written")
	return paths, nil
}

// replace moves stage to target, keeping the previous target until the
// move succeeds.
func (w *Writer) replace(stage, target string) error {
	exists, err := afero.Exists(w.fs, target)
	if err != nil {
		return fmt.Errorf("checking %s: %w", target, err)
	}
	if !exists {
		if err := w.fs.Rename(stage, target); err != nil {
			return fmt.Errorf("renaming staging directory: %w", err)
		}
		return nil
	}

	prev := stage + ".prev"
	if err := w.fs.Rename(target, prev); err != nil {
		return fmt.Errorf("moving previous output aside: %w", err)
	}
	if err := w.fs.Rename(stage, target); err != nil {
		if rerr := w.fs.Rename(prev, target); rerr != nil {
			log.Error().Err(rerr).Str("path", prev).Msg("restoring previous output")
		}
		return fmt.Errorf("renaming staging directory: %w", err)
	}
	if err := w.fs.RemoveAll(prev); err != nil {
		log.Warn().Err(err).Str("path", prev).Msg("removing previous output")
	}
	return nil
}
