// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which paths of a repository or folder walk are
// kept. An Engine is built once from an ExtractionConfig and is immutable,
// so one Engine may be shared across walks and goroutines.
//
// Decisions are ordered: built-in ignores, then the exclude lists, then the
// include lists when present. Exclude always wins over include.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/pdiddy/web2llm/pkg/types"
)

// Built-in ignore sets. They are always applied and extended by the
// exclude lists of the configuration.
var (
	builtinDirs = []string{
		".git", ".github", ".svn", ".hg", ".vscode", ".idea", "__pycache__",
		"node_modules", "vendor", "target", "build", "dist", "venv", ".venv",
		"env", ".cache", ".next", ".nuxt", ".tox", "docs",
	}

	builtinFiles = []string{
		".gitignore", ".editorconfig", ".ds_store", "thumbs.db",
		"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "poetry.lock",
		"pipfile.lock", "cargo.lock", "composer.lock", "gemfile.lock", "go.sum",
		"license", "license.md", "license.txt", "contributing.md",
		"contributors.md", "code_of_conduct.md", "security.md", "changelog.md",
		"history.md", "authors.md",
	}

	builtinExts = []string{
		".log", ".tmp", ".swp", ".swo", ".env", ".pyc", ".pyo", ".o", ".so",
		".dll", ".exe", ".class", ".jar", ".deb", ".rpm", ".png", ".jpg",
		".jpeg", ".gif", ".webp", ".svg", ".mp4", ".mp3", ".mov", ".wav", ".ico",
	}
)

// Decision is the outcome of evaluating one path.
type Decision int

const (
	Accept Decision = iota
	RejectBuiltin
	RejectExcluded
	RejectNotIncluded
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case RejectBuiltin:
		return "builtin"
	case RejectExcluded:
		return "excluded"
	case RejectNotIncluded:
		return "not-included"
	default:
		return "unknown"
	}
}

// Accepted reports whether the decision keeps the path.
func (d Decision) Accepted() bool { return d == Accept }

// dirPattern is one compiled directory pattern. Patterns without a slash
// match any single directory segment; patterns with a slash match a
// leading run of directory segments.
type dirPattern struct {
	raw      string
	segments int
	g        glob.Glob
}

func (p dirPattern) matchDir(dir string) bool {
	if dir == "" {
		return false
	}
	parts := strings.Split(dir, "/")
	if p.segments == 1 {
		for _, seg := range parts {
			if p.g.Match(seg) {
				return true
			}
		}
		return false
	}
	if len(parts) < p.segments {
		return false
	}
	return p.g.Match(strings.Join(parts[:p.segments], "/"))
}

// couldContain reports whether some descendant of dir may still match a
// multi-segment pattern, so include filtering must not prune dir yet.
func (p dirPattern) couldContain(dir string) bool {
	if p.segments == 1 {
		return true
	}
	parts := strings.Split(dir, "/")
	if len(parts) >= p.segments {
		return false
	}
	prefix, err := glob.Compile(strings.Join(strings.Split(p.raw, "/")[:len(parts)], "/"), '/')
	if err != nil {
		return false
	}
	return prefix.Match(dir)
}

// Engine evaluates paths against an ExtractionConfig. The zero value is
// not usable; build one with New.
type Engine struct {
	maxSize     int64
	excludeDirs []dirPattern
	includeDirs []dirPattern
	excludeExts map[string]bool
	includeExts map[string]bool
	builtinDirs map[string]bool
	builtinFile map[string]bool
	builtinExt  map[string]bool
}

// New compiles cfg into an Engine. It fails when a directory pattern is
// not a valid glob.
func New(cfg types.ExtractionConfig) (*Engine, error) {
	e := &Engine{
		maxSize:     cfg.MaxFileSizeBytes,
		excludeExts: extSet(cfg.ExcludeExtensions),
		includeExts: extSet(cfg.IncludeExtensions),
		builtinDirs: make(map[string]bool, len(builtinDirs)),
		builtinFile: make(map[string]bool, len(builtinFiles)),
		builtinExt:  extSet(builtinExts),
	}
	for _, d := range builtinDirs {
		e.builtinDirs[d] = true
	}
	for _, f := range builtinFiles {
		e.builtinFile[f] = true
	}

	var err error
	if e.excludeDirs, err = compileDirs(cfg.ExcludeDirs); err != nil {
		return nil, fmt.Errorf("exclude dirs: %w", err)
	}
	if e.includeDirs, err = compileDirs(cfg.IncludeDirs); err != nil {
		return nil, fmt.Errorf("include dirs: %w", err)
	}
	return e, nil
}

// TooLarge reports whether a file of size bytes exceeds the limit.
func (e *Engine) TooLarge(size int64) bool {
	return e.maxSize > 0 && size > e.maxSize
}

// Dir decides whether the walker descends into the directory at rel, a
// slash-separated path relative to the walk root. Include lists do not
// prune directories unless no descendant could match them.
func (e *Engine) Dir(rel string) Decision {
	rel = clean(rel)
	if rel == "" {
		return Accept
	}
	name := path.Base(rel)
	if e.builtinDirs[strings.ToLower(name)] {
		return RejectBuiltin
	}
	if anyMatch(e.excludeDirs, rel) {
		return RejectExcluded
	}
	if len(e.includeDirs) > 0 && !anyMatch(e.includeDirs, rel) {
		for _, p := range e.includeDirs {
			if p.couldContain(rel) {
				return Accept
			}
		}
		return RejectNotIncluded
	}
	return Accept
}

// File decides whether the file at rel is kept. Size is checked separately
// with TooLarge.
func (e *Engine) File(rel string) Decision {
	rel = clean(rel)
	dir, name := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	lowerName := strings.ToLower(name)
	ext := strings.ToLower(path.Ext(name))

	for _, seg := range splitDir(dir) {
		if e.builtinDirs[strings.ToLower(seg)] {
			return RejectBuiltin
		}
	}
	if e.builtinFile[lowerName] {
		return RejectBuiltin
	}
	if e.builtinExt[ext] {
		return RejectBuiltin
	}

	if anyMatch(e.excludeDirs, dir) || (ext != "" && e.excludeExts[ext]) {
		return RejectExcluded
	}

	if len(e.includeDirs) > 0 && !anyMatch(e.includeDirs, dir) {
		return RejectNotIncluded
	}
	if len(e.includeExts) > 0 && !e.includeExts[ext] {
		return RejectNotIncluded
	}
	return Accept
}

func compileDirs(patterns []string) ([]dirPattern, error) {
	var out []dirPattern
	for _, raw := range patterns {
		p := strings.Trim(strings.TrimSpace(filepathToSlash(raw)), "/")
		p = strings.TrimPrefix(p, "./")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
		}
		out = append(out, dirPattern{raw: p, segments: strings.Count(p, "/") + 1, g: g})
	}
	return out, nil
}

func anyMatch(patterns []dirPattern, dir string) bool {
	for _, p := range patterns {
		if p.matchDir(dir) {
			return true
		}
	}
	return false
}

// extSet normalizes extensions to lower case with a leading dot.
func extSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

func splitDir(dir string) []string {
	if dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}

func clean(rel string) string {
	rel = filepathToSlash(rel)
	rel = path.Clean("/" + rel)
	return strings.TrimPrefix(rel, "/")
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
