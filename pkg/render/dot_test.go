package render

import (
	"strings"
	"testing"

	"github.com/shaderflow/shaderflow/pkg/compile"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()

	grad := &graph.Node{
		ID:      "grad",
		Kind:    graph.KindStandard,
		Outputs: []shader.Port{{ID: "color", Name: "color", Type: shader.TVec3}},
		Meta:    map[string]any{"label": "Gradient"},
	}
	screen := &graph.Node{
		ID:   "screen",
		Kind: graph.KindStandard,
		Inputs: []shader.Port{
			{ID: "color", Name: "color", Type: shader.TVec3},
			{ID: "amount", Name: "amount", Type: shader.TFloat},
		},
		Outputs: []shader.Port{{ID: "result", Name: "result", Type: shader.TVec4}},
	}
	time := &graph.Node{ID: "time", Kind: graph.KindGlobal, Name: "time"}

	for _, n := range []*graph.Node{grad, screen, time} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(graph.Edge{From: "grad", FromPort: "color", To: "screen", ToPort: "color"}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`"grad" [label="Gradient"]`,
		`"time" [label="global time", shape=ellipse]`,
		`"grad" -> "screen"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "vec3") {
		t.Error("non-detailed DOT should not list port types")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Detailed: true})

	for _, want := range []string{
		"out color: vec3",
		"in amount: float",
		"out result: vec4",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestPassesToDOT(t *testing.T) {
	passes := []*compile.RenderPass{
		{ID: "blur::v", Inputs: map[string]string{}},
		{
			ID: "trail",
			Inputs: map[string]string{
				"u_trail_tex":      "blur::v",
				"u_trail_feedback": compile.RefFeedback,
				"u_trail_seed":     compile.RefEmpty,
			},
			Feedback: &compile.FeedbackConfig{Persistent: true},
			Loop:     3,
		},
	}

	dot := PassesToDOT(passes)
	for _, want := range []string{
		"digraph Passes {",
		`"trail" [label="trail ×3", fillcolor=lightyellow]`,
		`"blur::v" -> "trail" [label="u_trail_tex"`,
		`"trail" -> "trail" [label="u_trail_feedback", style=dashed`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "u_trail_seed") {
		t.Error("empty buffer reads should not be drawn")
	}
}
