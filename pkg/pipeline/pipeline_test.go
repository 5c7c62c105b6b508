package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shaderflow/shaderflow/pkg/cache"
	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	src := graph.NewNode(graph.KindStandard)
	src.ID = "grad"
	src.Body = "void shade(vec2 uv, out vec3 color) { color = vec3(uv, 0.0); }"
	io := shader.ExtractIO(src.Body)
	src.Inputs, src.Outputs = io.Inputs, io.Outputs
	g.AddNode(src)

	screen := graph.NewNode(graph.KindStandard)
	screen.ID = "screen"
	screen.Body = "void shade(vec2 uv, vec3 color, out vec4 result) { result = vec4(color, 1.0); }"
	io = shader.ExtractIO(screen.Body)
	screen.Inputs, screen.Outputs = io.Inputs, io.Outputs
	g.AddNode(screen)

	g.AddEdge(graph.Edge{From: "grad", FromPort: "color", To: "screen", ToPort: "color"})
	return g
}

func TestExecuteCompiles(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), testGraph(t), Options{Output: "screen"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Passes) != 1 {
		t.Errorf("pass count = %d, want 1", len(res.Passes))
	}
	if res.GraphHash == "" {
		t.Error("missing graph hash")
	}
	if res.Stats.NodeCount != 2 || res.Stats.EdgeCount != 1 || res.Stats.PassCount != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.CacheInfo.CompileHit {
		t.Error("null cache should never hit")
	}
}

func TestExecuteCacheHit(t *testing.T) {
	r := NewRunner(cache.NewMemory(), nil, nil)
	ctx := context.Background()
	g := testGraph(t)

	first, err := r.Execute(ctx, g, Options{Output: "screen"})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.CompileHit {
		t.Fatal("first run should miss")
	}

	second, err := r.Execute(ctx, g, Options{Output: "screen"})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.CompileHit {
		t.Fatal("second run should hit")
	}
	if len(second.Passes) != len(first.Passes) {
		t.Errorf("cached pass count = %d, want %d", len(second.Passes), len(first.Passes))
	}
	if second.Passes[0].Source != first.Passes[0].Source {
		t.Error("cached pass source differs")
	}

	// Refresh bypasses the cache read.
	third, err := r.Execute(ctx, g, Options{Output: "screen", Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.CompileHit {
		t.Error("refresh run should not hit")
	}
}

func TestExecuteHooks(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	var started, finished int
	r.Hooks = Hooks{
		CompileStarted:  func(string) { started++ },
		CompileFinished: func(_ string, hit bool, passes int, _ time.Duration) { finished++ },
	}
	if _, err := r.Execute(context.Background(), testGraph(t), Options{Output: "screen"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if started != 1 || finished != 1 {
		t.Errorf("hooks fired started=%d finished=%d, want 1/1", started, finished)
	}
}

func TestExecuteValidation(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), testGraph(t), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing output: code = %v, want INVALID_INPUT", errors.GetCode(err))
	}

	bad := testGraph(t)
	bad.AddEdge(graph.Edge{From: "nowhere", To: "screen", ToPort: "color"})
	_, err = r.Execute(context.Background(), bad, Options{Output: "screen"})
	if !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("dangling edge: code = %v, want INVALID_GRAPH", errors.GetCode(err))
	}
}

func TestExecuteSkipInference(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), testGraph(t), Options{Output: "screen", SkipInference: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.TypesChanged {
		t.Error("skipped inference cannot report type changes")
	}
	if res.Stats.InferTime != 0 {
		t.Error("skipped inference should report zero infer time")
	}
}
