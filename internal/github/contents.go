package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/lang"
	"github.com/QTest-hq/codescope/pkg/model"
)

// DefaultAPIDepth bounds directory recursion through the contents API
const DefaultAPIDepth = 3

// ContentsService lists and downloads repository files through the GitHub
// REST contents API. It is used when a clone is not possible.
type ContentsService struct {
	token   string
	client  *http.Client
	baseURL string
}

// NewContentsService creates a new contents API client
func NewContentsService(token string) *ContentsService {
	return &ContentsService{
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.github.com",
	}
}

type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}

// ListFiles collects supported source files up to maxDepth directory levels.
// Files larger than maxBytes are listed with empty content so that they are
// still counted.
func (s *ContentsService) ListFiles(ctx context.Context, info *RepoInfo, project *config.ProjectConfig, maxDepth, maxBytes int) ([]model.SourceFile, error) {
	if project == nil {
		project = config.DefaultProjectConfig()
	}
	var files []model.SourceFile
	if err := s.walk(ctx, info, "", 0, maxDepth, maxBytes, project, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *ContentsService) walk(ctx context.Context, info *RepoInfo, dir string, depth, maxDepth, maxBytes int, project *config.ProjectConfig, out *[]model.SourceFile) error {
	entries, err := s.list(ctx, info, dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch e.Type {
		case "dir":
			if _, skip := skipDirs[e.Name]; skip || depth+1 > maxDepth {
				continue
			}
			if err := s.walk(ctx, info, e.Path, depth+1, maxDepth, maxBytes, project, out); err != nil {
				return err
			}
		case "file":
			l := lang.FromExtension(e.Path)
			if !l.IsSupported() || !project.Matches(e.Path) {
				continue
			}
			if maxBytes > 0 && e.Size > maxBytes {
				f := model.NewSourceFile(e.Path, "", l)
				f.SizeBytes = e.Size
				*out = append(*out, f)
				continue
			}
			content, err := s.download(ctx, e.DownloadURL)
			if err != nil {
				log.Warn().Err(err).Str("path", e.Path).Msg("failed to download file")
				continue
			}
			*out = append(*out, model.NewSourceFile(e.Path, content, l))
		}
	}
	return nil
}

func (s *ContentsService) list(ctx context.Context, info *RepoInfo, dir string) ([]contentEntry, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, info.Owner, info.Name, path.Clean("/" + dir)[1:])
	if info.Branch != "" {
		u += "?ref=" + url.QueryEscape(info.Branch)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to list contents: %s - %s", resp.Status, string(respBody))
	}

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode contents: %w", err)
	}
	return entries, nil
}

func (s *ContentsService) download(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("no download URL")
	}
	httpReq, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", err
	}
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *ContentsService) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
