package github

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/lang"
	"github.com/QTest-hq/codescope/pkg/model"
)

var skipDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	"node_modules":  {},
	"__pycache__":   {},
	"vendor":        {},
	"venv":          {},
	".venv":         {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// sniffLen is how much of a file is inspected for NUL bytes
const sniffLen = 8000

// DiscoverOptions controls which files are collected from a checkout
type DiscoverOptions struct {
	Project  *config.ProjectConfig // Include/exclude globs; nil means defaults
	MaxDepth int                   // Directory levels below root to descend; 0 means unlimited
	MaxBytes int                   // Larger files are listed with their size but no content; 0 means no limit
}

// Discover walks root and returns every non-hidden text file that the
// project config admits and .gitignore does not exclude, sorted by path. Paths are relative
// to root with forward slashes. Files of unknown language are kept so that
// they are counted in reports. The walk stops when ctx is done.
func Discover(ctx context.Context, root string, opts DiscoverOptions) ([]model.SourceFile, error) {
	project := opts.Project
	if project == nil {
		project = config.DefaultProjectConfig()
	}
	gi := loadGitignore(root)

	var files []model.SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && strings.Count(rel, "/")+1 > opts.MaxDepth {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if !project.Matches(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.Debug().Err(err).Str("path", rel).Msg("skipping unreadable file")
			return nil
		}
		if opts.MaxBytes > 0 && info.Size() > int64(opts.MaxBytes) {
			head, err := readHead(path, sniffLen)
			if err != nil {
				log.Debug().Err(err).Str("path", rel).Msg("skipping unreadable file")
				return nil
			}
			if isBinary(head) {
				return nil
			}
			f := model.NewSourceFile(rel, "", lang.Detect(rel, string(head), ""))
			f.SizeBytes = int(info.Size())
			files = append(files, f)
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Debug().Err(err).Str("path", rel).Msg("skipping unreadable file")
			return nil
		}
		if isBinary(data) {
			return nil
		}

		content := string(data)
		files = append(files, model.NewSourceFile(rel, content, lang.Detect(rel, content, "")))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// readHead returns at most n bytes from the start of a file
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:read], nil
}

func isBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
