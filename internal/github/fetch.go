package github

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/codescope/internal/config"
	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/pkg/model"
)

// Checkout is a fetched repository ready for analysis
type Checkout struct {
	Files     []model.SourceFile
	Project   *config.ProjectConfig // Effective project config
	CommitSHA string                // Empty when fetched through the contents API
}

// Fetcher turns a repository URL into source files. It clones first and
// falls back to the contents API when cloning fails.
type Fetcher struct {
	repos    *RepoService
	contents *ContentsService
	maxBytes int

	clone func(ctx context.Context, info *RepoInfo) (*CloneResult, error)
}

// NewFetcher creates a fetcher that clones under cloneDir
func NewFetcher(cloneDir, token string, maxBytes int) *Fetcher {
	f := &Fetcher{
		repos:    NewRepoService(cloneDir, token),
		contents: NewContentsService(token),
		maxBytes: maxBytes,
	}
	f.clone = f.repos.Clone
	return f
}

// Fetch resolves rawURL into source files. overrides, when non-nil, is
// merged over the repository's own .codescope.yaml.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, overrides *config.ProjectConfig) (*Checkout, error) {
	info, err := ParseRepoURL(rawURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InputError, "invalid repository URL", err)
	}

	res, err := f.clone(ctx, info)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("repo", info.Owner+"/"+info.Name).Msg("clone failed, falling back to contents API")

		project := config.DefaultProjectConfig()
		project.Merge(overrides)
		files, apiErr := f.contents.ListFiles(ctx, info, project, DefaultAPIDepth, f.maxBytes)
		if apiErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperrors.Wrap(apperrors.InputError, "failed to fetch repository", apiErr)
		}
		return &Checkout{Files: files, Project: project}, nil
	}
	defer func() {
		if err := os.RemoveAll(res.Path); err != nil {
			log.Warn().Err(err).Str("path", res.Path).Msg("failed to remove clone")
		}
	}()

	project, err := config.LoadProjectConfig(res.Path)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring invalid project config in repository")
		project = config.DefaultProjectConfig()
	}
	project.Merge(overrides)

	files, err := Discover(ctx, res.Path, DiscoverOptions{Project: project, MaxBytes: f.maxBytes})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.Wrap(apperrors.InternalError, "failed to read repository", err)
	}
	return &Checkout{Files: files, Project: project, CommitSHA: res.CommitSHA}, nil
}
