package infer

import (
	"reflect"
	"testing"

	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

const gainBody = `
void shade(vec2 uv, float v, float gain, out float r) { r = v * gain; }
void shade(vec2 uv, vec3 v, vec3 gain, out vec3 r) { r = v * gain; }
`

func standardNode(id, body string) *graph.Node {
	n := graph.NewNode(graph.KindStandard)
	n.ID = id
	n.Body = body
	io := shader.ExtractIO(body)
	n.Inputs = io.Inputs
	n.Outputs = io.Outputs
	return n
}

func floatSource(id string) *graph.Node {
	return standardNode(id, "void shade(vec2 uv, out float v) { v = 0.5; }")
}

func vec3Source(id string) *graph.Node {
	return standardNode(id, "void shade(vec2 uv, out vec3 v) { v = vec3(0.5); }")
}

func TestInferStickyWithoutEdges(t *testing.T) {
	g := graph.New()
	n := standardNode("lonely", gainBody)
	before := append([]shader.Port(nil), n.Inputs...)
	g.AddNode(n)

	out, changed := Infer(g, nil)
	if changed {
		t.Error("inference changed a zero-edge graph")
	}
	if !reflect.DeepEqual(out.Node("lonely").Inputs, before) {
		t.Error("ports of an unconnected node changed")
	}
}

func TestInferDoesNotMutateInput(t *testing.T) {
	g := graph.New()
	g.AddNode(vec3Source("src"))
	g.AddNode(standardNode("gain", gainBody))
	g.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "gain", ToPort: "v"})

	before := graph.Hash(g)
	_, changed := Infer(g, nil)
	if !changed {
		t.Fatal("expected a change")
	}
	if graph.Hash(g) != before {
		t.Error("Infer mutated its input graph")
	}
}

func TestInferSelectsWiderOverloadAndMigrates(t *testing.T) {
	g := graph.New()
	g.AddNode(floatSource("src"))
	gain := standardNode("gain", gainBody)
	gain.Values["gain"] = shader.FloatValue(2)
	g.AddNode(gain)
	g.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "gain", ToPort: "v"})

	// Float source: the float overload stays selected.
	out, _ := Infer(g, nil)
	if p, _ := out.Node("gain").Input("v"); p.Type != shader.TFloat {
		t.Fatalf("v type = %v, want float", p.Type)
	}

	// Rewire to a vec3 source: the vec3 overload must win, the output
	// must widen, and the bound gain must broadcast.
	g.AddNode(vec3Source("src3"))
	g.AddEdge(graph.Edge{From: "src3", FromPort: "v", To: "gain", ToPort: "v"})

	out, changed := Infer(g, nil)
	if !changed {
		t.Fatal("expected a change after rewiring")
	}
	n := out.Node("gain")
	if p, _ := n.Input("v"); p.Type != shader.TVec3 {
		t.Errorf("v type = %v, want vec3", p.Type)
	}
	if p, _ := n.Input("gain"); p.Type != shader.TVec3 {
		t.Errorf("gain type = %v, want vec3", p.Type)
	}
	if p, _ := n.Output("r"); p.Type != shader.TVec3 {
		t.Errorf("r type = %v, want vec3", p.Type)
	}
	want := shader.VecValue(2, 2, 2)
	if !reflect.DeepEqual(n.Values["gain"], want) {
		t.Errorf("migrated value = %+v, want %+v", n.Values["gain"], want)
	}
}

func TestInferNoChangeSentinel(t *testing.T) {
	g := graph.New()
	g.AddNode(vec3Source("src"))
	g.AddNode(standardNode("gain", gainBody))
	g.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "gain", ToPort: "v"})

	out, changed := Infer(g, nil)
	if !changed {
		t.Fatal("first run should change types")
	}
	_, changed = Infer(out, nil)
	if changed {
		t.Error("second run should report no change")
	}
}

func TestInferRejectsSamplerMixing(t *testing.T) {
	body := `
void shade(vec2 uv, sampler2D tex, out vec4 r) { r = texture(tex, uv); }
void shade(vec2 uv, vec4 c, out vec4 r) { r = c; }
`
	g := graph.New()
	src := standardNode("src", "void shade(vec2 uv, out vec4 v) { v = vec4(1.0); }")
	g.AddNode(src)
	n := standardNode("sink", body)
	// Current ports follow the default (first) signature: sampler input.
	n.Inputs = []shader.Port{{ID: "tex", Name: "tex", Type: shader.TSampler}}
	g.AddNode(n)
	g.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "sink", ToPort: "tex"})

	out, _ := Infer(g, nil)
	// The sampler overload pairs a vec4 argument with a sampler parameter
	// and must be rejected; the vec4 overload wins.
	if p, ok := out.Node("sink").Input("c"); !ok || p.Type != shader.TVec4 {
		t.Errorf("expected vec4 overload, inputs = %+v", out.Node("sink").Inputs)
	}
}

func TestInferSkipsFeedbackParameter(t *testing.T) {
	body := `
void shade(vec2 uv, vec3 color, sampler2D feedback, float decay, out vec3 r) {
    r = max(color, texture(feedback, uv).rgb * decay);
}
void shade(vec2 uv, vec4 color, sampler2D feedback, float decay, out vec4 r) {
    r = max(color, texture(feedback, uv) * decay);
}
`
	g := graph.New()
	g.AddNode(standardNode("src", "void shade(vec2 uv, out vec4 v) { v = vec4(uv, 0.0, 1.0); }"))
	g.AddNode(floatSource("rate"))
	trail := standardNode("trail", body)
	g.AddNode(trail)
	g.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "trail", ToPort: "color"})
	g.AddEdge(graph.Edge{From: "rate", FromPort: "v", To: "trail", ToPort: "decay"})

	out, changed := Infer(g, nil)
	if !changed {
		t.Fatal("expected a change")
	}
	n := out.Node("trail")

	// The feedback sampler is resolved at compile time and must never
	// surface as a port, even after an overload switch.
	var ids []string
	for _, p := range n.Inputs {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []string{"color", "decay"}) {
		t.Fatalf("input ids = %v, want [color decay]", ids)
	}
	if p, _ := n.Input("color"); p.Type != shader.TVec4 {
		t.Errorf("color type = %v, want vec4", p.Type)
	}
	if p, _ := n.Input("decay"); p.Type != shader.TFloat {
		t.Errorf("decay type = %v, want float", p.Type)
	}
	if p, _ := n.Output("r"); p.Type != shader.TVec4 {
		t.Errorf("r type = %v, want vec4", p.Type)
	}
}

func TestInferKeepsPassReferenceHidden(t *testing.T) {
	body := `
void shade(vec2 uv, vec3 color, sampler2D prevPass, out vec3 r) {
    r = color + texture(prevPass, uv).rgb;
}
`
	g := graph.New()
	g.AddNode(vec3Source("src"))
	g.AddNode(standardNode("blend", body))
	g.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "blend", ToPort: "color"})

	out, changed := Infer(g, nil)
	if changed {
		t.Error("ports already match the only overload, expected no change")
	}
	n := out.Node("blend")
	if len(n.Inputs) != 1 || n.Inputs[0].ID != "color" {
		t.Errorf("inputs = %+v, want only color", n.Inputs)
	}
}

func TestInferInputProxyReverse(t *testing.T) {
	sub := graph.New()
	proxy := graph.NewNode(graph.KindInput)
	proxy.ID = "in_color"
	proxy.PortID = "color"
	proxy.Outputs = []shader.Port{{ID: "v", Name: "v", Type: shader.TFloat}}
	sub.AddNode(proxy)

	sink := standardNode("sink", "void shade(vec2 uv, vec3 color, out vec3 r) { r = color; }")
	sink.AutoType = false
	sub.AddNode(sink)
	sub.AddEdge(graph.Edge{From: "in_color", FromPort: "v", To: "sink", ToPort: "color"})

	g := graph.New()
	group := graph.NewNode(graph.KindGroup)
	group.ID = "grp"
	group.Sub = sub
	group.Inputs = []shader.Port{{ID: "color", Name: "color", Type: shader.TFloat}}
	group.Values["color"] = shader.FloatValue(0.5)
	g.AddNode(group)

	out, changed := Infer(g, nil)
	if !changed {
		t.Fatal("expected a change")
	}
	og := out.Node("grp")
	if og.Inputs[0].Type != shader.TVec3 {
		t.Errorf("group input type = %v, want vec3", og.Inputs[0].Type)
	}
	oproxy := og.Sub.Node("in_color")
	if oproxy.Outputs[0].Type != shader.TVec3 {
		t.Errorf("proxy type = %v, want vec3", oproxy.Outputs[0].Type)
	}
	want := shader.VecValue(0.5, 0.5, 0.5)
	if !reflect.DeepEqual(og.Values["color"], want) {
		t.Errorf("group value = %+v, want %+v", og.Values["color"], want)
	}
}

func TestInferOutputProxyAdoptsVerbatim(t *testing.T) {
	sub := graph.New()
	src := vec3Source("src")
	src.AutoType = false
	sub.AddNode(src)

	proxy := graph.NewNode(graph.KindOutput)
	proxy.ID = "out_result"
	proxy.PortID = "result"
	proxy.Inputs = []shader.Port{{ID: "v", Name: "v", Type: shader.TFloat}}
	sub.AddNode(proxy)
	sub.AddEdge(graph.Edge{From: "src", FromPort: "v", To: "out_result", ToPort: "v"})

	g := graph.New()
	group := graph.NewNode(graph.KindGroup)
	group.ID = "grp"
	group.Sub = sub
	group.Outputs = []shader.Port{{ID: "result", Name: "result", Type: shader.TFloat}}
	g.AddNode(group)

	out, changed := Infer(g, nil)
	if !changed {
		t.Fatal("expected a change")
	}
	if got := out.Node("grp").Outputs[0].Type; got != shader.TVec3 {
		t.Errorf("group output type = %v, want vec3", got)
	}
}
