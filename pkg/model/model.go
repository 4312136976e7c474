// Package model defines the language-agnostic representation of analysed
// source code. The lexer, parser and analyzers all produce these types, and
// the API layer serialises them unchanged.
package model

// Language identifies a supported source language
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
	LanguageC          Language = "c"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
	LanguagePHP        Language = "php"
	LanguageRuby       Language = "ruby"
	LanguageUnknown    Language = "unknown"
)

// Languages lists every supported language in display order
var Languages = []Language{
	LanguagePython,
	LanguageJavaScript,
	LanguageTypeScript,
	LanguageJava,
	LanguageCPP,
	LanguageC,
	LanguageGo,
	LanguageRust,
	LanguagePHP,
	LanguageRuby,
}

// IsSupported reports whether structural analysis exists for the language
func (l Language) IsSupported() bool {
	for _, s := range Languages {
		if s == l {
			return true
		}
	}
	return false
}

// SourceFile is a single input file. Content is never modified after construction.
type SourceFile struct {
	Path      string   `json:"path"`
	Language  Language `json:"language"`
	Content   string   `json:"-"`
	SizeBytes int      `json:"size_bytes"`
}

// NewSourceFile builds a SourceFile, filling SizeBytes from the content
func NewSourceFile(path, content string, lang Language) SourceFile {
	return SourceFile{
		Path:      path,
		Language:  lang,
		Content:   content,
		SizeBytes: len(content),
	}
}

// ParseError is a non-fatal problem found while analysing a file
type ParseError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
