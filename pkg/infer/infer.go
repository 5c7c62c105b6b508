// Package infer implements polymorphic type inference over the dataflow
// graph.
//
// Inference runs three passes per invocation, each over the whole graph
// including nested group subgraphs:
//
//  1. Reverse inference for graph-input proxies: an exposed input adopts the
//     widest rank among the ports it feeds.
//  2. Forward inference for auto-typed standard nodes: the widest incoming
//     rank selects the best-matching entry-function overload, and bound
//     values migrate to the winning types.
//  3. Forward inference for graph-output proxies: an exposed output adopts
//     its source port's type verbatim.
//
// Rank is the total order over numeric types (float/int < vec2 < vec3 <
// vec4); non-numeric types never promote, and samplers require exact type
// equality. A node with no connections is "sticky": inference never changes
// its ports.
//
// Infer never mutates its input: it clones the graph, adjusts the clone, and
// reports whether anything changed. Callers must treat "nothing changed" as
// a sentinel meaning the previous compilation is still valid.
package infer

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// Infer runs the three inference passes over a clone of g and returns the
// clone plus whether any pass changed anything. A nil logger discards
// warnings.
func Infer(g *graph.Graph, logger *log.Logger) (*graph.Graph, bool) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	out := g.Clone()

	// Passes must all run even after one reports a change.
	changed := inferInputProxies(out, logger)
	if inferStandardNodes(out, logger) {
		changed = true
	}
	if inferOutputProxies(out, logger) {
		changed = true
	}
	return out, changed
}

// forEachGraph visits g and every nested group subgraph. The owner is the
// group node wrapping the visited graph, nil for the top level.
func forEachGraph(g *graph.Graph, owner *graph.Node, visit func(*graph.Graph, *graph.Node)) {
	visit(g, owner)
	for _, n := range g.Nodes() {
		if n.Kind == graph.KindGroup && n.Sub != nil {
			forEachGraph(n.Sub, n, visit)
		}
	}
}

// =============================================================================
// Pass 1: Reverse Inference for Input Proxies
// =============================================================================

func inferInputProxies(g *graph.Graph, logger *log.Logger) bool {
	changed := false
	forEachGraph(g, nil, func(cg *graph.Graph, owner *graph.Node) {
		for _, n := range cg.Nodes() {
			if n.Kind != graph.KindInput || len(n.Outputs) == 0 {
				continue
			}
			if inferOneInputProxy(cg, owner, n, logger) {
				changed = true
			}
		}
	})
	return changed
}

func inferOneInputProxy(cg *graph.Graph, owner *graph.Node, proxy *graph.Node, logger *log.Logger) bool {
	edges := cg.EdgesFrom(proxy.ID)
	if len(edges) == 0 {
		return false
	}

	maxRank := 0
	for _, e := range edges {
		target := cg.Node(e.To)
		if target == nil {
			continue
		}
		base, _, _ := graph.ParsePortRef(e.ToPort)
		p, ok := target.Input(base)
		if !ok {
			continue
		}
		if !p.Type.Numeric() {
			// A non-numeric consumer pins the proxy: no promotion.
			return false
		}
		if r := p.Type.Rank(); r > maxRank {
			maxRank = r
		}
	}

	t, ok := shader.TypeForRank(maxRank)
	if !ok || proxy.Outputs[0].Type.Equal(t) {
		return false
	}

	logger.Debug("promoted input proxy", "node", proxy.ID, "type", t)
	proxy.Outputs[0].Type = t

	// Propagate to the owning group's exposed port and migrate its bound
	// value.
	if owner != nil && proxy.PortID != "" {
		for i := range owner.Inputs {
			if owner.Inputs[i].ID != proxy.PortID {
				continue
			}
			owner.Inputs[i].Type = t
			if v, ok := owner.Values[proxy.PortID]; ok && !v.Type.Equal(t) {
				owner.Values[proxy.PortID] = shader.Migrate(v, t)
			}
		}
	}
	return true
}

// =============================================================================
// Pass 2: Forward Inference for Standard Nodes
// =============================================================================

func inferStandardNodes(g *graph.Graph, logger *log.Logger) bool {
	changed := false
	forEachGraph(g, nil, func(cg *graph.Graph, _ *graph.Node) {
		for _, n := range cg.Nodes() {
			if n.Kind != graph.KindStandard || !n.AutoType || n.Body == "" {
				continue
			}
			if inferOneStandardNode(cg, n, logger) {
				changed = true
			}
		}
	})
	return changed
}

func inferOneStandardNode(cg *graph.Graph, n *graph.Node, logger *log.Logger) bool {
	incoming := incomingTypes(cg, n)
	targetRank := 0
	for _, t := range incoming {
		if r := t.Rank(); r > targetRank {
			targetRank = r
		}
	}
	if len(incoming) == 0 {
		// No incoming edges: fall back to the rank of the ports we feed.
		outs := cg.EdgesFrom(n.ID)
		if len(outs) == 0 {
			// Sticky: zero connections means no change.
			return false
		}
		for _, e := range outs {
			target := cg.Node(e.To)
			if target == nil {
				continue
			}
			base, _, _ := graph.ParsePortRef(e.ToPort)
			if p, ok := target.Input(base); ok {
				if r := p.Type.Rank(); r > targetRank {
					targetRank = r
				}
			}
		}
	}
	if targetRank == 0 {
		return false
	}

	sigs := shader.ExtractSignatures(n.Body)
	if len(sigs) == 0 {
		return false
	}

	winner, ok := selectSignature(cg, n, sigs, targetRank, logger)
	if !ok {
		return false
	}
	return applySignature(n, winner, logger)
}

// incomingTypes maps each connected input port id to the specific source
// port's type.
func incomingTypes(cg *graph.Graph, n *graph.Node) map[string]shader.Type {
	types := make(map[string]shader.Type)
	for _, e := range cg.EdgesInto(n.ID) {
		if _, _, isElem := graph.ParsePortRef(e.ToPort); isElem {
			continue
		}
		if t, ok := sourcePortType(cg, e); ok {
			types[e.ToPort] = t
		}
	}
	return types
}

// sourcePortType resolves the type of an edge's source port. When the
// source is a graph-input proxy the proxy's exposed port type is used.
func sourcePortType(cg *graph.Graph, e graph.Edge) (shader.Type, bool) {
	src := cg.Node(e.From)
	if src == nil {
		return shader.Type{}, false
	}
	if src.Kind == graph.KindInput {
		if len(src.Outputs) == 0 {
			return shader.Type{}, false
		}
		return src.Outputs[0].Type, true
	}
	if e.FromPort == "" {
		p, ok := src.DefaultOutput()
		return p.Type, ok
	}
	p, ok := src.Output(e.FromPort)
	return p.Type, ok
}

// selectSignature scores each overload against the connected input types
// and returns the best candidate.
//
// Scoring per connected argument: +3 for an exact type match, +2 for mere
// presence. A candidate is rejected outright when any pairing mixes a
// sampler with a non-sampler, or pairs a numeric argument whose rank
// exceeds the parameter's rank. When nothing is compatible, the fallback is
// the first signature (in default order) whose first input matches the
// target rank.
func selectSignature(cg *graph.Graph, n *graph.Node, sigs []shader.Signature, targetRank int, logger *log.Logger) (shader.Signature, bool) {
	incoming := incomingTypes(cg, n)
	deps := dependencyNames(n.Body)

	ordered := orderedSignatures(sigs)
	best := -1
	bestScore := 0
	for i, sig := range ordered {
		score, ok := scoreSignature(n, sig, deps, incoming)
		if !ok {
			continue
		}
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best >= 0 {
		return ordered[best], true
	}

	// No compatible overload: fall back on the first whose leading input
	// matches the target rank.
	for _, sig := range ordered {
		inputs := portInputs(sig, deps)
		if len(inputs) > 0 && inputs[0].Type.Rank() == targetRank {
			logger.Warn("no matching overload, using rank fallback",
				"node", n.ID, "rank", targetRank)
			return sig, true
		}
	}
	logger.Warn("no matching overload for node", "node", n.ID, "rank", targetRank)
	return shader.Signature{}, false
}

// orderedSignatures returns the overloads sorted by (order, original index)
// so ties resolve toward the default signature.
func orderedSignatures(sigs []shader.Signature) []shader.Signature {
	out := make([]shader.Signature, 0, len(sigs))
	remaining := append([]shader.Signature(nil), sigs...)
	for len(remaining) > 0 {
		def, _ := shader.DefaultSignature(remaining)
		out = append(out, def)
		for i, s := range remaining {
			if s.OriginalIndex == def.OriginalIndex {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return out
}

// dependencyNames collects the parameter names resolved as cross-pass
// textures at compile time: the reserved feedback name plus every pass
// reference found in the body. These never surface as ports, so signature
// matching has to skip them.
func dependencyNames(body string) map[string]bool {
	names := map[string]bool{shader.FeedbackName: true}
	for _, d := range shader.ScanPassDependencies(body) {
		names[d.Name] = true
	}
	return names
}

// portInputs returns the signature's inputs minus dependency parameters,
// aligned with the node's visible port list.
func portInputs(sig shader.Signature, deps map[string]bool) []shader.Port {
	var ports []shader.Port
	for _, p := range sig.Inputs() {
		if deps[p.ID] {
			continue
		}
		ports = append(ports, p)
	}
	return ports
}

func scoreSignature(n *graph.Node, sig shader.Signature, deps map[string]bool, incoming map[string]shader.Type) (int, bool) {
	sigInputs := portInputs(sig, deps)
	score := 0
	for i, cur := range n.Inputs {
		srcType, connected := incoming[cur.ID]
		if !connected {
			continue
		}
		if i >= len(sigInputs) {
			// Connected argument with no corresponding parameter.
			return 0, false
		}
		param := sigInputs[i].Type

		srcSampler := srcType.Kind == shader.Sampler && !srcType.Array
		paramSampler := param.Kind == shader.Sampler && !param.Array
		if srcSampler != paramSampler {
			return 0, false
		}
		if srcType.Numeric() && param.Numeric() && srcType.Rank() > param.Rank() {
			return 0, false
		}
		if srcType.Equal(param) {
			score += 3
		} else {
			score += 2
		}
	}
	return score, true
}

// applySignature replaces the node's ports with the winner's and migrates
// bound values whose type changed or no longer matches.
func applySignature(n *graph.Node, sig shader.Signature, logger *log.Logger) bool {
	newInputs := portInputs(sig, dependencyNames(n.Body))
	newOutputs := sig.Outputs()
	if portsEqual(n.Inputs, newInputs) && portsEqual(n.Outputs, newOutputs) {
		return false
	}

	logger.Debug("retyped node", "node", n.ID, "label", sig.Label)
	n.Inputs = newInputs
	n.Outputs = newOutputs

	for _, p := range newInputs {
		v, ok := n.Values[p.ID]
		if !ok {
			continue
		}
		if !v.Type.Equal(p.Type) {
			n.Values[p.ID] = shader.Migrate(v, p.Type)
		}
	}
	return true
}

func portsEqual(a, b []shader.Port) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}

// =============================================================================
// Pass 3: Forward Inference for Output Proxies
// =============================================================================

func inferOutputProxies(g *graph.Graph, logger *log.Logger) bool {
	changed := false
	forEachGraph(g, nil, func(cg *graph.Graph, owner *graph.Node) {
		for _, n := range cg.Nodes() {
			if n.Kind != graph.KindOutput || len(n.Inputs) == 0 {
				continue
			}
			if inferOneOutputProxy(cg, owner, n, logger) {
				changed = true
			}
		}
	})
	return changed
}

func inferOneOutputProxy(cg *graph.Graph, owner *graph.Node, proxy *graph.Node, logger *log.Logger) bool {
	e, ok := cg.EdgeTo(proxy.ID, proxy.Inputs[0].ID)
	if !ok {
		return false
	}
	// The exposed output adopts the source type verbatim, no ranking.
	t, ok := sourcePortType(cg, e)
	if !ok || proxy.Inputs[0].Type.Equal(t) {
		return false
	}

	logger.Debug("retyped output proxy", "node", proxy.ID, "type", t)
	proxy.Inputs[0].Type = t
	if owner != nil && proxy.PortID != "" {
		for i := range owner.Outputs {
			if owner.Outputs[i].ID == proxy.PortID {
				owner.Outputs[i].Type = t
			}
		}
	}
	return true
}
