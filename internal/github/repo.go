// Package github fetches repositories for analysis, either by shallow clone
// or through the GitHub contents API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RepoService clones repositories into a scratch directory
type RepoService struct {
	baseDir string
	token   string
}

// NewRepoService creates a new repository service
func NewRepoService(baseDir, token string) *RepoService {
	return &RepoService{
		baseDir: baseDir,
		token:   token,
	}
}

// RepoInfo contains parsed repository information
type RepoInfo struct {
	Owner    string
	Name     string
	URL      string
	CloneURL string
	Branch   string // Empty means the remote's default branch
}

// CloneResult contains the result of a clone operation
type CloneResult struct {
	Path      string
	CommitSHA string
	Branch    string
}

// ParseRepoURL parses a GitHub URL and returns repo info. Both
// https://github.com/owner/repo[/tree/branch] and git@github.com:owner/repo.git
// forms are accepted.
func ParseRepoURL(rawURL string) (*RepoInfo, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("repository URL is empty")
	}

	if strings.HasPrefix(rawURL, "git@") {
		parts := strings.Split(rawURL, ":")
		if len(parts) != 2 || parts[0] != "git@github.com" {
			return nil, fmt.Errorf("invalid SSH URL format: %s", rawURL)
		}
		pathParts := strings.Split(strings.TrimSuffix(parts[1], ".git"), "/")
		if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
			return nil, fmt.Errorf("invalid repo path: %s", parts[1])
		}
		return newRepoInfo(rawURL, pathParts[0], pathParts[1], ""), nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return nil, fmt.Errorf("only github.com URLs are supported, got: %q", parsed.Host)
	}

	pathParts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(pathParts) < 2 || pathParts[0] == "" || pathParts[1] == "" {
		return nil, fmt.Errorf("invalid repo path: %s", parsed.Path)
	}

	branch := ""
	if len(pathParts) >= 4 && pathParts[2] == "tree" {
		branch = strings.Join(pathParts[3:], "/")
	}
	return newRepoInfo(rawURL, pathParts[0], strings.TrimSuffix(pathParts[1], ".git"), branch), nil
}

func newRepoInfo(raw, owner, name, branch string) *RepoInfo {
	return &RepoInfo{
		Owner:    owner,
		Name:     name,
		URL:      raw,
		CloneURL: fmt.Sprintf("https://github.com/%s/%s.git", owner, name),
		Branch:   branch,
	}
}

// Clone makes a shallow clone into a fresh directory. The caller removes
// CloneResult.Path when done.
func (s *RepoService) Clone(ctx context.Context, info *RepoInfo) (*CloneResult, error) {
	repoDir := filepath.Join(s.baseDir, "codescope-"+info.Owner+"-"+info.Name+"-"+uuid.NewString()[:8])
	if err := os.MkdirAll(filepath.Dir(repoDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	log.Info().
		Str("url", info.CloneURL).
		Str("path", repoDir).
		Msg("cloning repository")

	cloneOpts := &git.CloneOptions{
		URL:   info.CloneURL,
		Depth: 1,
	}
	if s.token != "" {
		cloneOpts.Auth = &http.BasicAuth{
			Username: "git",
			Password: s.token,
		}
	}
	if info.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(info.Branch)
		cloneOpts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, repoDir, false, cloneOpts)
	if err != nil {
		_ = os.RemoveAll(repoDir)
		return nil, fmt.Errorf("failed to clone: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		_ = os.RemoveAll(repoDir)
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	result := &CloneResult{
		Path:      repoDir,
		CommitSHA: head.Hash().String(),
		Branch:    head.Name().Short(),
	}

	log.Info().
		Str("commit", result.CommitSHA[:8]).
		Str("branch", result.Branch).
		Msg("clone complete")

	return result, nil
}
