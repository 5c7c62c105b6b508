package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaderflow/shaderflow/pkg/cache"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
)

func testServer() *Server {
	return New(pipeline.NewRunner(cache.NewMemory(), nil, nil), nil)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id header")
	}
}

func TestVersion(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["version"] == "" {
		t.Errorf("version missing: %v", body)
	}
}

const compileDoc = `{
  "nodes": [
    {
      "id": "out",
      "body": "void shade(vec2 uv, out vec4 result) {\n    result = vec4(uv, 0.0, 1.0);\n}\n"
    }
  ],
  "output": "out"
}`

func TestCompile(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(compileDoc))
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		GraphHash string `json:"graph_hash"`
		Passes    []struct {
			ID     string `json:"id"`
			Source string `json:"source"`
		} `json:"passes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.GraphHash == "" {
		t.Error("missing graph hash")
	}
	if len(body.Passes) != 1 || body.Passes[0].ID != "out" {
		t.Fatalf("passes = %+v", body.Passes)
	}
	if !strings.Contains(body.Passes[0].Source, "#version 300 es") {
		t.Errorf("pass source missing version header:\n%s", body.Passes[0].Source)
	}
}

func TestCompileBadJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader("{not json"))
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_DOCUMENT") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCompileBadGraph(t *testing.T) {
	doc := `{
  "nodes": [{"id": "a", "body": "void shade(vec2 uv, out float r) { r = 1.0; }"}],
  "edges": [{"from": "ghost", "to": "a", "to_port": "x"}],
  "output": "a"
}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(doc))
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "INVALID_GRAPH") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCompileMissingOutput(t *testing.T) {
	doc := `{"nodes": [{"id": "a", "body": "void shade(vec2 uv, out float r) { r = 1.0; }"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(doc))
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "INVALID_INPUT") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
