// Package compile turns an inferred dataflow graph into an ordered list of
// render passes.
//
// Compilation walks dependency edges backward from a chosen output node. An
// edge is inlined into the current pass when the source's output type equals
// the consuming port's declared type and the source is not staged; any other
// edge is a pass boundary, compiled into its own pass and sampled through a
// generated texture uniform. Node bodies concatenated into one pass are
// rewritten with collision-safe scoped names.
//
// Two guards bound recursion on malformed graphs. The pass stack detects
// re-entrant pass dependencies and reuses the in-progress pass key instead
// of recursing, accepting that the consumer may read a not-yet-populated
// buffer on its first frame. The inline stack detects boundary-free cycles
// inside one pass and breaks the edge with a warning.
//
// Only a missing node or port reference aborts a compile. Every other
// anomaly degrades: unparsable bodies become zero outputs, unknown pass
// references bind the reserved empty texture, cycles resolve as above.
package compile

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// Options configure one compilation.
type Options struct {
	// Logger receives degraded-mode warnings. Nil discards them.
	Logger *log.Logger

	// DefaultArrayCapacity is the capacity used for array ports that carry
	// none. Zero means shader.DefaultArrayCapacity.
	DefaultArrayCapacity int
}

// Compile partitions the graph into render passes rooted at the given output
// node and returns them dependency-first. The graph is only read, never
// mutated. An unresolvable node or port reference aborts with an error and
// no passes; all other anomalies degrade with logged warnings.
func Compile(g *graph.Graph, outputNode string, opts Options) ([]*RenderPass, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.DefaultArrayCapacity <= 0 {
		opts.DefaultArrayCapacity = shader.DefaultArrayCapacity
	}

	c := &compiler{
		opts:    opts,
		logger:  opts.Logger,
		done:    make(map[string]string),
		pending: make(map[string]string),
	}
	if _, err := c.generatePass(&frame{g: g}, outputNode, ""); err != nil {
		return nil, err
	}
	return c.passes, nil
}

// compiler carries the per-call state: the emitted pass list, the
// idempotency cache keyed (qualified node, resolved output port), and the
// in-progress pass stack for cycle detection.
type compiler struct {
	opts   Options
	logger *log.Logger

	passes  []*RenderPass
	done    map[string]string
	pending map[string]string
}

// frame is one level of group nesting during traversal.
type frame struct {
	g      *graph.Graph
	group  *graph.Node // the group node in the parent frame
	parent *frame
}

// qualify prefixes an id with the owning group path so nodes in different
// subgraphs never collide on pass keys or scope names.
func (f *frame) qualify(id string) string {
	if f.parent == nil {
		return id
	}
	return f.parent.qualify(f.group.ID) + "." + id
}

// =============================================================================
// Pass Generation
// =============================================================================

// generatePass compiles the pass producing (node, output port) and returns
// its key. An empty outPort means the node's default output. Generation is
// idempotent per resolved (node, port) pair.
func (c *compiler) generatePass(f *frame, nodeID, outPort string) (string, error) {
	n := f.g.Node(nodeID)
	if n == nil {
		return "", errors.New(errors.ErrCodeNodeNotFound, "pass target %q does not exist", nodeID)
	}

	switch n.Kind {
	case graph.KindStaged:
		return c.generateStagedPasses(f, n)
	case graph.KindGroup:
		return c.generateGroupPass(f, n, outPort)
	case graph.KindOutput:
		// Compiling a subgraph through its output proxy.
		if len(n.Inputs) > 0 {
			if e, ok := f.g.EdgeTo(n.ID, n.Inputs[0].ID); ok {
				return c.generatePass(f, e.From, e.FromPort)
			}
		}
		return "", errors.New(errors.ErrCodeInvalidGraph, "output proxy %q has no source", nodeID)
	case graph.KindInput:
		return "", errors.New(errors.ErrCodeUnsupported, "input proxy %q cannot be a pass target", nodeID)
	}

	port, ok := sourceOutput(n, outPort)
	if !ok {
		return "", errors.New(errors.ErrCodePortNotFound, "node %q has no output port %q", nodeID, outPort)
	}

	qual := f.qualify(nodeID)
	cacheKey := qual + "\x00" + port.ID
	if key, ok := c.done[cacheKey]; ok {
		return key, nil
	}
	if key, ok := c.pending[cacheKey]; ok {
		c.logger.Warn("pass dependency cycle, reusing in-progress pass", "pass", key)
		return key, nil
	}

	key := qual
	if outPort != "" {
		key = qual + "::" + outPort
	}
	c.pending[cacheKey] = key
	defer delete(c.pending, cacheKey)

	pass, err := c.buildPass(f, n, port, key)
	if err != nil {
		return "", err
	}
	c.passes = append(c.passes, pass)
	c.done[cacheKey] = key
	return key, nil
}

// generateGroupPass resolves a group pass target through the subgraph's
// output proxy to the inner source feeding it.
func (c *compiler) generateGroupPass(f *frame, n *graph.Node, outPort string) (string, error) {
	if n.Sub == nil {
		return "", errors.New(errors.ErrCodeInvalidGraph, "group %q has no subgraph", n.ID)
	}
	proxy := outputProxy(n.Sub, outPort)
	if proxy == nil || len(proxy.Inputs) == 0 {
		return "", errors.New(errors.ErrCodePortNotFound, "group %q exposes no output %q", n.ID, outPort)
	}
	e, ok := n.Sub.EdgeTo(proxy.ID, proxy.Inputs[0].ID)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidGraph, "group %q output %q is not connected", n.ID, proxy.PortID)
	}
	cf := &frame{g: n.Sub, group: n, parent: f}
	return c.generatePass(cf, e.From, e.FromPort)
}

// outputProxy finds the subgraph's output proxy for the exposed port id; an
// empty id means the first output proxy.
func outputProxy(g *graph.Graph, portID string) *graph.Node {
	for _, n := range g.Nodes() {
		if n.Kind != graph.KindOutput {
			continue
		}
		if portID == "" || n.PortID == portID {
			return n
		}
	}
	return nil
}

// buildPass compiles one single-body pass: collect the local subgraph,
// generate the program, and wire feedback configuration from pragmas.
func (c *compiler) buildPass(f *frame, n *graph.Node, out shader.Port, key string) (*RenderPass, error) {
	col := newCollector(c)

	var rootExpr string
	var rootType shader.Type
	if n.Kind == graph.KindGlobal {
		rootExpr, rootType = col.globalUniform(n)
	} else {
		ln, err := col.collectNode(f, n, true)
		if err != nil {
			return nil, err
		}
		v, ok := ln.outVars[out.ID]
		if !ok {
			return nil, errors.New(errors.ErrCodePortNotFound, "node %q generates no output %q", n.ID, out.ID)
		}
		rootExpr, rootType = v, ln.outTypes[out.ID]
	}

	pragmas := shader.ScanPragmas(n.Body)
	pass := &RenderPass{
		ID:     key,
		Source: col.program(rootExpr, rootType),
		Output: key,
		Loop:   pragmas.Loop,
	}
	col.finish(pass)
	if col.usedFeedback || pragmas.Persistent || pragmas.HasClear {
		pass.Feedback = &FeedbackConfig{
			Persistent: pragmas.Persistent,
			Clear:      pragmas.Clear,
			HasClear:   pragmas.HasClear,
			Initial:    c.feedbackInitial(f, n),
		}
	}
	return pass, nil
}

// feedbackInitial resolves what a feedback buffer reads before its first
// evaluation: a connected upstream texture, then a bound texture value, then
// the reserved empty texture.
func (c *compiler) feedbackInitial(f *frame, n *graph.Node) string {
	if e, ok := f.g.EdgeTo(n.ID, shader.FeedbackName); ok {
		key, err := c.generatePass(f, e.From, e.FromPort)
		if err == nil {
			return key
		}
		c.logger.Warn("feedback source failed, using empty texture", "node", n.ID, "err", err)
	}
	if v, ok := n.Values[shader.FeedbackName]; ok && v.Texture != "" {
		return v.Texture
	}
	return RefEmpty
}

// =============================================================================
// Staged Nodes
// =============================================================================

// stageRefs resolves the cross-pass references available inside one stage
// pass of a multi-stage chain.
type stageRefs struct {
	prev    string            // previous pass in the chain; empty for the first
	first   string            // first stage's pass
	stages  map[string]string // stage id -> pass key
	initial string            // feedback source for the chain's first iteration
}

// generateStagedPasses expands a multi-stage node to one pass per stage in
// declared order, with loop-requesting stages expanded into chained passes
// threading feedback.
func (c *compiler) generateStagedPasses(f *frame, n *graph.Node) (string, error) {
	if len(n.Stages) == 0 {
		return "", errors.New(errors.ErrCodeInvalidGraph, "staged node %q has no stages", n.ID)
	}

	qual := f.qualify(n.ID)
	cacheKey := qual + "\x00staged"
	if key, ok := c.done[cacheKey]; ok {
		return key, nil
	}
	if key, ok := c.pending[cacheKey]; ok {
		c.logger.Warn("pass dependency cycle, reusing in-progress pass", "pass", key)
		return key, nil
	}

	stageKeys := make(map[string]string, len(n.Stages))
	for _, st := range n.Stages {
		stageKeys[st.ID] = qual + "::" + st.ID
	}
	firstKey := qual + "::" + n.Stages[0].ID

	c.pending[cacheKey] = firstKey
	defer delete(c.pending, cacheKey)

	refs := stageRefs{
		first:   firstKey,
		stages:  stageKeys,
		initial: c.feedbackInitial(f, n),
	}

	var lastKey string
	for _, st := range n.Stages {
		pragmas := shader.ScanPragmas(st.Body)
		loops := st.Loop
		if pragmas.Loop > loops {
			loops = pragmas.Loop
		}
		if loops < 1 {
			loops = 1
		}
		for it := 0; it < loops; it++ {
			key := qual + "::" + st.ID
			if it > 0 {
				key = fmt.Sprintf("%s::%d", key, it+1)
			}
			pass, err := c.buildStagePass(f, n, st, key, refs)
			if err != nil {
				return "", err
			}
			c.passes = append(c.passes, pass)
			refs.prev = key
			lastKey = key
		}
	}

	c.done[cacheKey] = lastKey
	return lastKey, nil
}

// buildStagePass compiles one stage as a standard pass. The stage borrows
// the staged node's id, values, and incoming edges, so stage inputs resolve
// against the graph exactly like single-body ports.
func (c *compiler) buildStagePass(f *frame, n *graph.Node, st graph.Stage, key string, refs stageRefs) (*RenderPass, error) {
	stageIO := shader.ExtractIO(st.Body)
	pseudo := &graph.Node{
		ID:      n.ID,
		Kind:    graph.KindStandard,
		Body:    st.Body,
		Inputs:  stageIO.Inputs,
		Outputs: stageIO.Outputs,
		Values:  n.Values,
	}

	col := newCollector(c)
	col.stage = &refs
	ln, err := col.collectNode(f, pseudo, true)
	if err != nil {
		return nil, err
	}

	out, ok := sourceOutput(pseudo, "")
	if !ok {
		return nil, errors.New(errors.ErrCodePortNotFound, "stage %q of %q has no output", st.ID, n.ID)
	}
	rootExpr, okVar := ln.outVars[out.ID]
	if !okVar {
		return nil, errors.New(errors.ErrCodePortNotFound, "stage %q of %q generates no output %q", st.ID, n.ID, out.ID)
	}

	pragmas := shader.ScanPragmas(st.Body)
	pass := &RenderPass{
		ID:     key,
		Source: col.program(rootExpr, ln.outTypes[out.ID]),
		Output: key,
	}
	col.finish(pass)
	if col.usedFeedback || pragmas.Persistent || pragmas.HasClear {
		pass.Feedback = &FeedbackConfig{
			Persistent: pragmas.Persistent,
			Clear:      pragmas.Clear,
			HasClear:   pragmas.HasClear,
			Initial:    refs.initial,
		}
	}
	return pass, nil
}

// sourceOutput resolves a node's output port, falling back to the parsed
// body interface when the editor left the port list empty. An empty port id
// means the default (first) output.
func sourceOutput(n *graph.Node, port string) (shader.Port, bool) {
	outs := n.Outputs
	if len(outs) == 0 {
		switch n.Kind {
		case graph.KindStandard:
			outs = shader.ExtractIO(n.Body).Outputs
		case graph.KindGlobal:
			t := shader.TFloat
			if v, ok := n.Values[graph.GlobalValueKey]; ok {
				t = v.Type
			}
			outs = []shader.Port{{ID: graph.GlobalValueKey, Name: n.Name, Type: t}}
		}
	}
	if port == "" {
		if len(outs) == 0 {
			return shader.Port{}, false
		}
		return outs[0], true
	}
	for _, p := range outs {
		if p.ID == port {
			return p, true
		}
	}
	return shader.Port{}, false
}
