package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/QTest-hq/codescope/pkg/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.py", "def add(a, b):\n    \"\"\"Add.\"\"\"\n    return a + b\n")

	out, err := execute(t, "parse", "-f", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"Language: python", "function add [lines 1-3]", "Parameters: a, b"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	out, err := execute(t, "parse", "-f", path, "--json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var fa model.FileAnalysis
	if err := json.Unmarshal([]byte(out), &fa); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if fa.File.Language != model.LanguageGo || len(fa.Declarations) != 1 {
		t.Errorf("analysis = %+v", fa)
	}
}

func TestParseCommand_UnknownLanguage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "just some words\n")

	out, err := execute(t, "parse", "-f", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"Language: unknown", "Skipped: language not supported", "Declarations: 0", "Suggestion: Consider using language-specific parsers"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "import os\n\ndef main():\n    return os.getcwd()\n")
	writeFile(t, dir, "lib/util.js", "function twice(x) {\n  return x * 2;\n}\n")
	writeFile(t, dir, "node_modules/dep/index.js", "function skipped() {}\n")
	out := filepath.Join(dir, "report.json")

	if _, err := execute(t, "analyze", "-p", dir, "-o", out, "--json"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report file: %v", err)
	}
	var report model.RepositoryReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid report: %v", err)
	}
	if report.TotalFiles != 2 {
		t.Errorf("total files = %d, want 2", report.TotalFiles)
	}
	if report.Languages[model.LanguagePython] != 1 || report.Languages[model.LanguageJavaScript] != 1 {
		t.Errorf("languages = %v", report.Languages)
	}
}

func TestAnalyzeCommand_LanguageFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "def main():\n    pass\n")
	writeFile(t, dir, "util.js", "function twice(x) { return x * 2; }\n")

	out, err := execute(t, "analyze", "-p", dir, "--languages", "js")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "javascript") || strings.Contains(out, "python") {
		t.Errorf("unexpected languages in output:\n%s", out)
	}
}

func TestAnalyzeCommand_PathAndRepo(t *testing.T) {
	if _, err := execute(t, "analyze", "-p", ".", "-r", "https://github.com/owner/repo"); err == nil {
		t.Error("expected an error when both --path and --repo are set")
	}
}

func TestSwaggerCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "api.yaml", `openapi: 3.0.0
info:
  title: Pets
  version: "2"
paths:
  /pets:
    get:
      summary: List pets
      responses:
        "200":
          description: ok
`)

	out, err := execute(t, "swagger", "-f", path)
	if err != nil {
		t.Fatalf("swagger: %v", err)
	}
	for _, want := range []string{"# API Documentation for Pets", "### GET /pets", "List pets"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLanguagesCommand(t *testing.T) {
	out, err := execute(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if lines := strings.Count(out, "\n"); lines != len(model.Languages) {
		t.Errorf("lines = %d, want %d", lines, len(model.Languages))
	}
	if !strings.HasPrefix(out, "python") {
		t.Errorf("first line should be python:\n%s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestAnalyzeCommand_SampleRepository(t *testing.T) {
	out, err := execute(t, "analyze", "-p", "../../testdata/sample", "--json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var report model.RepositoryReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid report: %v\n%s", err, out)
	}
	if report.TotalFiles != 3 {
		t.Errorf("total files = %d, want 3", report.TotalFiles)
	}
	for _, l := range []model.Language{model.LanguageGo, model.LanguageJavaScript, model.LanguagePython} {
		if report.Languages[l] != 1 {
			t.Errorf("languages[%s] = %d, want 1", l, report.Languages[l])
		}
	}
	if len(report.Endpoints) != 2 {
		t.Errorf("endpoints = %d, want 2", len(report.Endpoints))
	}
	if report.ComplexitySummary.Max != 2 {
		t.Errorf("max complexity = %d, want 2", report.ComplexitySummary.Max)
	}
	if report.Failures != 0 {
		t.Errorf("failures = %d, want 0", report.Failures)
	}
}

func TestSwaggerCommand_Petstore(t *testing.T) {
	out, err := execute(t, "swagger", "-f", "../../testdata/petstore.yaml", "--json")
	if err != nil {
		t.Fatalf("swagger: %v", err)
	}

	var doc model.SwaggerDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid document: %v", err)
	}
	if doc.BaseURL != "https://petstore.example.com/v1" {
		t.Errorf("base URL = %s", doc.BaseURL)
	}
	if len(doc.Endpoints) != 3 {
		t.Errorf("endpoints = %d, want 3", len(doc.Endpoints))
	}
	if len(doc.Models) != 1 || doc.Models[0].Name != "Pet" {
		t.Errorf("models = %+v", doc.Models)
	}
}
