// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Supported key files: github-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultDir is the secrets directory used when none is configured.
const DefaultDir = ".secrets"

// GitHubTokenKey names the file holding a GitHub personal access token.
const GitHubTokenKey = "github-token"

// Load reads all files in dir on the OS filesystem.
func Load(dir string) (map[string]string, error) {
	return LoadFs(afero.NewOsFs(), dir)
}

// LoadFs reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; LoadFs returns an empty
// map. Dotfiles, subdirectories and empty files are skipped; unreadable
// files are logged and skipped.
func LoadFs(fsys afero.Fs, dir string) (map[string]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fsys, filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// GitHubToken returns the github-token secret from dir, or "" when it is
// absent or the directory cannot be read.
func GitHubToken(dir string) string {
	s, err := Load(dir)
	if err != nil {
		log.Warn().Err(err).Msg("secrets unavailable")
		return ""
	}
	return s[GitHubTokenKey]
}
