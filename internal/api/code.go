package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/codescope/internal/analysis"
	"github.com/QTest-hq/codescope/internal/config"
	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/internal/lang"
	"github.com/QTest-hq/codescope/pkg/model"
)

// ParseRequest is the request body for parse-code
type ParseRequest struct {
	CodeContent string `json:"code_content"`
	Language    string `json:"language"`
	FilePath    string `json:"file_path,omitempty"`
}

// FunctionSummary is the short form of a function or method
type FunctionSummary struct {
	Name      string   `json:"name"`
	Line      int      `json:"line"`
	Args      []string `json:"args"`
	Docstring string   `json:"docstring,omitempty"`
}

// ClassSummary is the short form of a class or interface
type ClassSummary struct {
	Name      string   `json:"name"`
	Line      int      `json:"line"`
	Methods   []string `json:"methods"`
	Docstring string   `json:"docstring,omitempty"`
}

// ParseResponse is the response for parse-code and upload-file
type ParseResponse struct {
	Language    model.Language       `json:"language"`
	Structure   *model.FileAnalysis  `json:"structure"`
	Functions   []FunctionSummary    `json:"functions"`
	Classes     []ClassSummary       `json:"classes"`
	Imports     []string             `json:"imports"`
	Complexity  model.FileComplexity `json:"complexity"`
	Suggestions []string             `json:"suggestions"`
}

// FileInput is one inline file of a code-analysis request
type FileInput struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// AnalysisRequest is the request body for code-analysis
type AnalysisRequest struct {
	RepositoryURL   string      `json:"repository_url,omitempty"`
	Files           []FileInput `json:"files,omitempty"`
	LanguageFilters []string    `json:"language_filters,omitempty"`
}

func (s *Server) parseCode(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.CodeContent) == "" {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "code_content is required")
		return
	}
	s.analyzeSingle(w, r, req.FilePath, req.CodeContent, req.Language)
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "uploaded file is empty")
		return
	}
	s.analyzeSingle(w, r, header.Filename, string(data), r.FormValue("language"))
}

func (s *Server) analyzeSingle(w http.ResponseWriter, r *http.Request, path, content, hint string) {
	// Unrecognised code is still answered: the analysis comes back skipped
	// with a suggestion instead of declarations
	language := lang.Detect(path, content, hint)
	if path == "" {
		path = "snippet" + firstExtension(language)
	}

	fa, err := s.analyzer.AnalyzeFile(r.Context(), model.NewSourceFile(path, content, language))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newParseResponse(fa))
}

func firstExtension(l model.Language) string {
	if info, ok := lang.Lookup(l); ok && len(info.Extensions) > 0 {
		return info.Extensions[0]
	}
	return ""
}

func newParseResponse(fa *model.FileAnalysis) *ParseResponse {
	resp := &ParseResponse{
		Language:    fa.File.Language,
		Structure:   fa,
		Functions:   make([]FunctionSummary, 0),
		Classes:     make([]ClassSummary, 0),
		Imports:     fa.Imports,
		Complexity:  fa.Complexity,
		Suggestions: fa.Suggestions,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = make([]string, 0)
	}

	classIdx := make(map[string]int)
	for _, d := range fa.Declarations {
		switch d.Kind {
		case model.KindClass, model.KindInterface:
			classIdx[d.ID] = len(resp.Classes)
			resp.Classes = append(resp.Classes, ClassSummary{
				Name:      d.Name,
				Line:      d.StartLine,
				Methods:   make([]string, 0),
				Docstring: d.Docstring,
			})
		case model.KindFunction, model.KindMethod:
			args := make([]string, 0, len(d.Parameters))
			for _, p := range d.Parameters {
				args = append(args, p.Name)
			}
			resp.Functions = append(resp.Functions, FunctionSummary{
				Name:      d.Name,
				Line:      d.StartLine,
				Args:      args,
				Docstring: d.Docstring,
			})
			if i, ok := classIdx[d.ParentID]; ok {
				resp.Classes[i].Methods = append(resp.Classes[i].Methods, d.Name)
			}
		}
	}
	return resp
}

func (s *Server) analyzeCode(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.RepositoryURL) == "" && len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "either repository_url or files is required")
		return
	}

	var (
		files     []model.SourceFile
		project   = config.DefaultProjectConfig()
		commitSHA string
	)
	if req.RepositoryURL != "" {
		if s.fetcher == nil {
			respondError(w, http.StatusServiceUnavailable, apperrors.InternalError, "repository fetching is not configured")
			return
		}
		checkout, err := s.fetcher.Fetch(r.Context(), req.RepositoryURL, nil)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		files = append(files, checkout.Files...)
		if checkout.Project != nil {
			project = checkout.Project
		}
		commitSHA = checkout.CommitSHA
	}
	for _, f := range req.Files {
		files = append(files, model.NewSourceFile(f.Path, f.Content, lang.Detect(f.Path, f.Content, f.Language)))
	}
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "repository contains no files to analyze")
		return
	}

	opts := analysis.RepositoryOptions{
		Languages:  project.LanguageFilter(),
		Thresholds: project.Thresholds,
	}
	if len(req.LanguageFilters) > 0 {
		opts.Languages = make(map[model.Language]bool)
		for _, name := range req.LanguageFilters {
			if l := lang.ParseHint(name); l != model.LanguageUnknown {
				opts.Languages[l] = true
			}
		}
		if len(opts.Languages) == 0 {
			respondError(w, http.StatusBadRequest, apperrors.InputError, "language_filters names no supported language")
			return
		}
	}

	report, err := s.analyzer.AnalyzeRepository(r.Context(), files, opts)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if s.store != nil {
		if err := s.store.SaveReport(r.Context(), report, req.RepositoryURL, commitSHA); err != nil {
			log.Error().Err(err).Str("report_id", report.ID).Msg("failed to save report")
		}
	}
	respondJSON(w, http.StatusOK, report)
}
