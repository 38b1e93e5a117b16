// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/web2llm/internal/clone"
	"github.com/pdiddy/web2llm/internal/filter"
	"github.com/pdiddy/web2llm/internal/github"
	"github.com/pdiddy/web2llm/internal/walk"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Folder walks a local directory.
type Folder struct {
	Fs     afero.Fs
	Config types.ExtractionConfig
}

func (f *Folder) Scrape(_ context.Context, ref types.SourceReference) (*types.ExtractedDocument, error) {
	doc, err := walkDocument(f.Fs, ref.Location, f.Config)
	if err != nil {
		return nil, err
	}
	doc.Source = ref
	doc.Title = doc.Tree.Name
	return doc, nil
}

// Repository shallow-clones a repository into a temporary directory, walks
// it like a local folder and removes the checkout afterwards.
type Repository struct {
	// Cloner checks out the repository. Nil selects one with clone.Detect.
	Cloner clone.Cloner

	// Metadata reads the GitHub API. Nil skips API enrichment.
	Metadata github.Getter

	Token   string
	Config  types.ExtractionConfig
	TempDir string
}

func (r *Repository) Scrape(ctx context.Context, ref types.SourceReference) (*types.ExtractedDocument, error) {
	repo, err := clone.ParseRepoURL(ref.Location)
	if err != nil {
		return nil, &types.UnsupportedSourceError{Reference: ref.Raw, Reason: err.Error()}
	}

	tmp, err := os.MkdirTemp(r.TempDir, "web2llm-clone-*")
	if err != nil {
		return nil, fmt.Errorf("creating clone directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			log.Warn().Err(err).Str("dir", tmp).Msg("removing clone directory")
		}
	}()

	cloner := r.Cloner
	if cloner == nil {
		cloner = clone.Detect(ctx, r.Token)
	}
	dest := filepath.Join(tmp, repo.Name)
	if err := cloner.Clone(ctx, repo, dest); err != nil {
		return nil, err
	}

	root := dest
	if repo.Subpath != "" {
		root = filepath.Join(dest, filepath.FromSlash(repo.Subpath))
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return nil, &types.UnsupportedSourceError{
				Reference: ref.Raw,
				Reason:    fmt.Sprintf("directory %q not found in %s", repo.Subpath, repo),
			}
		}
	}

	doc, err := walkDocument(afero.NewOsFs(), root, r.Config)
	if err != nil {
		return nil, err
	}
	doc.Source = ref
	doc.Title = repo.String()
	if repo.Subpath != "" {
		doc.Title += "/" + repo.Subpath
		doc.SetMeta("subpath", repo.Subpath)
	}
	doc.SetMeta("repository", repo.String())
	doc.SetMeta("branch", repo.Branch)
	doc.SetMeta("cloner", cloner.Name())

	if r.Metadata != nil && (repo.Host == "github.com" || repo.Host == "www.github.com") {
		meta, err := github.Metadata(ctx, r.Metadata, repo.Owner, repo.Name, r.Token)
		if err != nil {
			log.Warn().Err(err).Str("repo", repo.String()).Msg("GitHub metadata unavailable")
		}
		for k, v := range meta {
			doc.SetMeta(k, v)
		}
	}
	return doc, nil
}

func walkDocument(fsys afero.Fs, root string, cfg types.ExtractionConfig) (*types.ExtractedDocument, error) {
	engine, err := filter.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building filter: %w", err)
	}
	res, err := walk.Walk(fsys, root, engine)
	if err != nil {
		return nil, err
	}

	doc := &types.ExtractedDocument{
		Tree:    res.Root,
		Files:   res.Files,
		Skipped: res.Skipped,
	}
	doc.SetMeta("files", strconv.Itoa(len(res.Files)))
	doc.SetMeta("skipped", strconv.Itoa(len(res.Skipped)))
	return doc, nil
}
