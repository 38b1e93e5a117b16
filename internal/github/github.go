// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package github reads repository metadata from the GitHub REST API to
// enrich the front matter of repository extractions.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/web2llm/internal/fetch"
)

// APIBase is the GitHub REST API root. Tests point it at an httptest server.
var APIBase = "https://api.github.com"

// Getter is the HTTP dependency of Metadata.
type Getter interface {
	GetWithHeader(ctx context.Context, url string, header http.Header) (*fetch.Response, error)
}

type repoResponse struct {
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Language      string   `json:"language"`
	Stars         int      `json:"stargazers_count"`
	Forks         int      `json:"forks_count"`
	DefaultBranch string   `json:"default_branch"`
	Topics        []string `json:"topics"`
	HTMLURL       string   `json:"html_url"`
	License       *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// Metadata returns front matter fields for owner/name: full_name,
// description, language, stars, forks, license, default_branch and topics.
// Empty values are left out. token may be empty.
func Metadata(ctx context.Context, g Getter, owner, name, token string) (map[string]string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", strings.TrimRight(APIBase, "/"), owner, name)
	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	header.Set("X-GitHub-Api-Version", "2022-11-28")
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.GetWithHeader(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("fetching repository metadata for %s/%s: %w", owner, name, err)
	}

	var repo repoResponse
	if err := json.Unmarshal(resp.Body, &repo); err != nil {
		return nil, fmt.Errorf("decoding repository metadata for %s/%s: %w", owner, name, err)
	}

	meta := map[string]string{
		"full_name":      repo.FullName,
		"description":    repo.Description,
		"language":       repo.Language,
		"stars":          strconv.Itoa(repo.Stars),
		"forks":          strconv.Itoa(repo.Forks),
		"default_branch": repo.DefaultBranch,
		"topics":         strings.Join(repo.Topics, ", "),
	}
	if repo.License != nil && repo.License.SPDXID != "NOASSERTION" {
		meta["license"] = repo.License.SPDXID
	}
	for k, v := range meta {
		if v == "" {
			delete(meta, k)
		}
	}
	return meta, nil
}
