package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/pkg/model"
)

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	cfg := &config.Config{Analysis: config.DefaultAnalysisConfig()}
	cfg.Analysis.Workers = 2
	cfg.Analysis.SyntaxCheck = false
	s, err := NewServer(cfg, deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	rr := doJSON(t, server, "GET", "/health", nil)

	if rr.Code != http.StatusOK {
		t.Errorf("healthCheck returned status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %s, want ok", resp["status"])
	}
}

func TestReadyCheck(t *testing.T) {
	t.Run("without store", func(t *testing.T) {
		rr := doJSON(t, newTestServer(t, Dependencies{}), "GET", "/ready", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("readyCheck returned status %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("store down", func(t *testing.T) {
		store := NewMockReportStore()
		store.pingErr = errors.New("connection refused")
		rr := doJSON(t, newTestServer(t, Dependencies{Store: store}), "GET", "/ready", nil)

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("readyCheck returned status %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp["database"] != "down" {
			t.Errorf("database = %s, want down", resp["database"])
		}
	})
}

func TestCorsMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("sets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Access-Control-Allow-Origin header not set")
		}
		if rr.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("Access-Control-Allow-Methods header not set")
		}
		if rr.Code != http.StatusTeapot {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusTeapot)
		}
	})

	t.Run("handles preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/test", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("OPTIONS returned status %d, want %d", rr.Code, http.StatusOK)
		}
	})
}

func TestRespondJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	respondJSON(rr, http.StatusCreated, map[string]int{"n": 1})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"n":1}` {
		t.Errorf("body = %s", got)
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	rr := httptest.NewRecorder()
	respondJSON(rr, http.StatusNoContent, nil)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body should be empty, got %q", rr.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	respondError(rr, http.StatusBadRequest, "INPUT_ERROR", "bad things")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	body := decodeError(t, rr)
	if body.Code != "INPUT_ERROR" || body.Message != "bad things" {
		t.Errorf("error = %+v", body)
	}
}

func TestParseCode(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	src := "def add(a, b):\n    \"\"\"Add two numbers.\"\"\"\n    return a + b\n"
	rr := doJSON(t, server, "POST", "/api/v1/parse-code", ParseRequest{CodeContent: src, Language: "python"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp ParseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Language != model.LanguagePython {
		t.Errorf("language = %s, want python", resp.Language)
	}
	if len(resp.Functions) != 1 {
		t.Fatalf("functions = %d, want 1", len(resp.Functions))
	}
	fn := resp.Functions[0]
	if fn.Name != "add" || fn.Line != 1 {
		t.Errorf("function = %+v", fn)
	}
	if strings.Join(fn.Args, ",") != "a,b" {
		t.Errorf("args = %v, want [a b]", fn.Args)
	}
	if fn.Docstring != "Add two numbers." {
		t.Errorf("docstring = %q", fn.Docstring)
	}
	if resp.Complexity.Max != 1 {
		t.Errorf("max complexity = %d, want 1", resp.Complexity.Max)
	}
	if resp.Structure == nil || resp.Structure.File.Path != "snippet.py" {
		t.Errorf("structure should carry the synthesised path")
	}
}

func TestParseCode_ClassMethods(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	src := "class Greeter:\n    def hello(self):\n        pass\n\n    def bye(self):\n        pass\n"
	rr := doJSON(t, server, "POST", "/api/v1/parse-code", ParseRequest{CodeContent: src, FilePath: "greet.py"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp ParseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Classes) != 1 {
		t.Fatalf("classes = %d, want 1", len(resp.Classes))
	}
	if got := strings.Join(resp.Classes[0].Methods, ","); got != "hello,bye" {
		t.Errorf("methods = %s, want hello,bye", got)
	}
}

func TestParseCode_Errors(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"invalid json", "{not json", http.StatusBadRequest, "INPUT_ERROR"},
		{"empty code", ParseRequest{CodeContent: "   ", Language: "python"}, http.StatusBadRequest, "INPUT_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, server, "POST", "/api/v1/parse-code", tt.body)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if got := decodeError(t, rr).Code; string(got) != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestParseCode_UnknownLanguage(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	rr := doJSON(t, server, "POST", "/api/v1/parse-code", ParseRequest{CodeContent: "hello world", Language: "cobol"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp ParseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Language != model.LanguageUnknown {
		t.Errorf("language = %s, want unknown", resp.Language)
	}
	if !resp.Structure.Skipped {
		t.Error("structure.skipped = false, want true")
	}
	if len(resp.Functions) != 0 || len(resp.Classes) != 0 || len(resp.Structure.Declarations) != 0 {
		t.Errorf("declarations reported for skipped code: %+v", resp.Structure.Declarations)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "Consider using language-specific parsers" {
		t.Errorf("suggestions = %v", resp.Suggestions)
	}
}

func TestUploadFile(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "util.js")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte("function twice(x) {\n  return x * 2;\n}\n"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/upload-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp ParseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Language != model.LanguageJavaScript {
		t.Errorf("language = %s, want javascript", resp.Language)
	}
	if len(resp.Functions) != 1 || resp.Functions[0].Name != "twice" {
		t.Errorf("functions = %+v", resp.Functions)
	}
}

func TestUploadFile_MissingFile(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	req := httptest.NewRequest("POST", "/api/v1/upload-file", strings.NewReader("nothing"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestParseSwagger(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	doc := `{"swagger":"2.0","info":{"title":"T","version":"1"},"paths":{"/a":{"get":{"responses":{"200":{"description":"ok"}}}}}}`
	rr := doJSON(t, server, "POST", "/api/v1/parse-swagger", SwaggerRequest{SwaggerContent: doc, Format: "json"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp model.SwaggerDocument
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Title != "T" || len(resp.Endpoints) != 1 {
		t.Errorf("document = %+v", resp)
	}
	if resp.Endpoints[0].Method != "GET" || resp.Endpoints[0].Path != "/a" {
		t.Errorf("endpoint = %+v", resp.Endpoints[0])
	}
}

func TestParseSwagger_Errors(t *testing.T) {
	server := newTestServer(t, Dependencies{})

	tests := []struct {
		name   string
		req    SwaggerRequest
		status int
		code   string
	}{
		{"empty", SwaggerRequest{Format: "json"}, http.StatusBadRequest, "INPUT_ERROR"},
		{"bad format name", SwaggerRequest{SwaggerContent: "{}", Format: "xml"}, http.StatusBadRequest, "INPUT_ERROR"},
		{"malformed", SwaggerRequest{SwaggerContent: "{\"swagger\": ", Format: "json"}, http.StatusUnprocessableEntity, "FORMAT_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, server, "POST", "/api/v1/parse-swagger", tt.req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if got := decodeError(t, rr).Code; string(got) != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestSupportedLanguages(t *testing.T) {
	rr := doJSON(t, newTestServer(t, Dependencies{}), "GET", "/api/v1/supported-languages", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Languages []struct {
			ID         string   `json:"id"`
			Extensions []string `json:"extensions"`
		} `json:"languages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Languages) != len(model.Languages) {
		t.Errorf("languages = %d, want %d", len(resp.Languages), len(model.Languages))
	}
	if resp.Languages[0].ID != "python" {
		t.Errorf("first language = %s, want python", resp.Languages[0].ID)
	}
}

func TestAnalyzeCode_MissingInput(t *testing.T) {
	rr := doJSON(t, newTestServer(t, Dependencies{}), "POST", "/api/v1/code-analysis", AnalysisRequest{})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAnalyzeCode_NoFetcher(t *testing.T) {
	rr := doJSON(t, newTestServer(t, Dependencies{}), "POST", "/api/v1/code-analysis",
		AnalysisRequest{RepositoryURL: "https://github.com/owner/repo"})

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestGetReport_NoStore(t *testing.T) {
	rr := doJSON(t, newTestServer(t, Dependencies{}), "GET", "/api/v1/reports/"+"00000000-0000-0000-0000-000000000001", nil)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestGetReport_InvalidID(t *testing.T) {
	server := newTestServer(t, Dependencies{Store: NewMockReportStore()})
	rr := doJSON(t, server, "GET", "/api/v1/reports/not-a-uuid", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
