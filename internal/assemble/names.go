// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/web2llm/pkg/types"
)

var languageByExt = map[string]string{
	".py": "python", ".js": "javascript", ".mjs": "javascript", ".jsx": "jsx",
	".ts": "typescript", ".tsx": "tsx", ".java": "java", ".kt": "kotlin",
	".c": "c", ".h": "c", ".cpp": "cpp", ".cc": "cpp", ".hpp": "cpp",
	".cs": "csharp", ".go": "go", ".rs": "rust", ".rb": "ruby", ".php": "php",
	".swift": "swift", ".scala": "scala", ".lua": "lua", ".r": "r",
	".html": "html", ".htm": "html", ".css": "css", ".scss": "scss",
	".json": "json", ".xml": "xml", ".yaml": "yaml", ".yml": "yaml",
	".toml": "toml", ".ini": "ini", ".sql": "sql", ".proto": "protobuf",
	".md": "markdown", ".rst": "rst", ".sh": "shell", ".bash": "shell",
	".zsh": "shell", ".ps1": "powershell", ".tf": "hcl", ".txt": "text",
}

var languageByName = map[string]string{
	"dockerfile":     "dockerfile",
	"makefile":       "makefile",
	"go.mod":         "go",
	"cmakelists.txt": "cmake",
}

var pageExts = map[string]bool{".html": true, ".htm": true, ".php": true, ".aspx": true}

var slugUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug returns a filesystem-safe artifact name for src: "owner-repo" for
// repositories, the folder or file stem for local sources, and host plus
// path for web pages.
func Slug(src types.SourceReference) string {
	var base string
	switch src.Kind {
	case types.KindGitHubRepo:
		if u, err := url.Parse(src.Location); err == nil {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) >= 2 {
				base = parts[0] + "-" + strings.TrimSuffix(parts[1], ".git")
			}
		}
	case types.KindLocalFolder:
		base = filepath.Base(src.Location)
	case types.KindPDF:
		p := src.Location
		if src.Remote {
			if u, err := url.Parse(p); err == nil {
				p = u.Path
			}
		}
		base = path.Base(filepath.ToSlash(p))
		if strings.EqualFold(path.Ext(base), ".pdf") {
			base = base[:len(base)-len(".pdf")]
		}
	case types.KindWebPage:
		if u, err := url.Parse(src.Location); err == nil {
			base = u.Hostname()
			if p := strings.Trim(u.Path, "/"); p != "" {
				if ext := path.Ext(p); pageExts[strings.ToLower(ext)] {
					p = strings.TrimSuffix(p, ext)
				}
				base += "-" + strings.ReplaceAll(p, "/", "-")
			}
			if src.Fragment != "" {
				base += "-" + src.Fragment
			}
		}
	}

	base = strings.Trim(slugUnsafe.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		return hashSlug(src.Raw)
	}
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-.")
	}
	return base
}

func hashSlug(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("source-%x", h[:8])
}
