// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clone makes shallow checkouts of remote repositories. The git
// binary is used when it is installed and operational; otherwise the pure
// Go implementation from go-git takes over.
package clone

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/web2llm/pkg/types"
)

const binGit = "git"

// Repo identifies a repository and the part of it to extract.
type Repo struct {
	Host  string
	Owner string
	Name  string

	// Branch is checked out instead of the default branch when set.
	Branch string

	// Subpath limits extraction to a directory inside the checkout.
	Subpath string

	// URL is the clone address.
	URL string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepoURL splits a repository URL of the form
// https://host/owner/repo[.git][/tree/<branch>[/<subpath>]]. The branch is
// taken as the single segment after /tree/.
func ParseRepoURL(raw string) (Repo, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Repo{}, fmt.Errorf("parsing repository URL %q: %w", raw, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("repository URL %q must name an owner and a repository", raw)
	}

	repo := Repo{
		Host:  strings.ToLower(u.Host),
		Owner: parts[0],
		Name:  strings.TrimSuffix(parts[1], ".git"),
	}
	if len(parts) > 2 {
		if parts[2] != "tree" || len(parts) < 4 || parts[3] == "" {
			return Repo{}, fmt.Errorf("repository URL %q: expected /tree/<branch> after the repository", raw)
		}
		repo.Branch = parts[3]
		repo.Subpath = strings.Join(parts[4:], "/")
	}
	repo.URL = fmt.Sprintf("%s://%s/%s/%s.git", u.Scheme, repo.Host, repo.Owner, repo.Name)
	return repo, nil
}

// Cloner makes a shallow checkout of repo into dest, which must not exist
// or be empty.
type Cloner interface {
	// Name returns the implementation name ("git" or "go-git").
	Name() string

	Clone(ctx context.Context, repo Repo, dest string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// gitCLI clones with the installed git binary.
type gitCLI struct {
	token string
	exec  executor
}

func (g *gitCLI) Name() string { return binGit }

func (g *gitCLI) available(ctx context.Context) bool {
	if _, err := g.exec.LookPath(binGit); err != nil {
		return false
	}
	_, err := g.exec.Run(ctx, nil, binGit, "--version")
	return err == nil
}

func (g *gitCLI) Clone(ctx context.Context, repo Repo, dest string) error {
	args := []string{"clone", "--depth", "1", "--single-branch", "--quiet"}
	if repo.Branch != "" {
		args = append(args, "--branch", repo.Branch)
	}
	args = append(args, repo.URL, dest)

	// The token travels through GIT_CONFIG_* so it never shows in argv.
	env := []string{"GIT_TERMINAL_PROMPT=0"}
	if g.token != "" {
		auth := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + g.token))
		env = append(env,
			"GIT_CONFIG_COUNT=1",
			"GIT_CONFIG_KEY_0=http.extraHeader",
			"GIT_CONFIG_VALUE_0=Authorization: Basic "+auth,
		)
	}

	log.Debug().Str("repo", repo.String()).Str("branch", repo.Branch).Str("cloner", binGit).Msg("cloning")
	out, err := g.exec.Run(ctx, env, binGit, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &types.CloneError{Repo: repo.String(), Err: err}
	}
	return nil
}

// goGit clones with go-git and needs no external binary.
type goGit struct {
	token string
}

func (g *goGit) Name() string { return "go-git" }

func (g *goGit) Clone(ctx context.Context, repo Repo, dest string) error {
	opts := &git.CloneOptions{
		URL:          repo.URL,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
	}
	if g.token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: g.token}
	}

	log.Debug().Str("repo", repo.String()).Str("branch", repo.Branch).Str("cloner", g.Name()).Msg("cloning")
	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		return &types.CloneError{Repo: repo.String(), Err: err}
	}
	return nil
}

var defaultExec = &osExecutor{}

// Detect returns the git binary cloner when git is installed and responds
// to --version, otherwise the go-git cloner. token authenticates HTTPS
// clones of private repositories and may be empty.
func Detect(ctx context.Context, token string) Cloner {
	return detect(ctx, defaultExec, token)
}

func detect(ctx context.Context, exec executor, token string) Cloner {
	cli := &gitCLI{token: token, exec: exec}
	if cli.available(ctx) {
		return cli
	}
	log.Debug().Msg("git binary unavailable, using go-git")
	return &goGit{token: token}
}
