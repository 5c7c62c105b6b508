package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// collector accumulates one pass's local subgraph: the nodes inlined into
// the pass in dependency order, their uniform and texture bindings, and the
// inline-cycle stack.
type collector struct {
	c     *compiler
	names *namer

	locals []*localNode
	byID   map[string]*localNode
	stack  map[string]bool

	uniforms map[string]Uniform
	inputs   map[string]string

	usedFeedback bool
	stage        *stageRefs // set when the pass root is a stage body
}

func newCollector(c *compiler) *collector {
	return &collector{
		c:        c,
		names:    newNamer(),
		byID:     make(map[string]*localNode),
		stack:    make(map[string]bool),
		uniforms: make(map[string]Uniform),
		inputs:   make(map[string]string),
	}
}

// localNode is one node inlined into the current pass.
type localNode struct {
	node  *graph.Node
	frame *frame
	scope string

	callable bool // false when no entry function parsed
	coord    bool // entry declares the leading coordinate parameter
	caps     map[string]int
	args     []string
	pre      []string // statements emitted before the call
	outVars  map[string]string
	outTypes map[string]shader.Type
}

// argValue is one resolved call argument before casting.
type argValue struct {
	expr string
	typ  shader.Type

	// addressable marks expressions that can be indexed per element
	// (variables and uniforms, not literals).
	addressable bool
}

// finish moves the collected bindings onto the pass.
func (col *collector) finish(pass *RenderPass) {
	if len(col.uniforms) > 0 {
		pass.Uniforms = col.uniforms
	}
	if len(col.inputs) > 0 {
		pass.Inputs = col.inputs
	}
}

// =============================================================================
// Local Subgraph Collection
// =============================================================================

// collectNode inlines a standard node and, recursively, every same-pass
// predecessor. Returns nil without error when an inline cycle forced the
// edge to break; the caller substitutes a zero value.
func (col *collector) collectNode(f *frame, n *graph.Node, isRoot bool) (*localNode, error) {
	qual := f.qualify(n.ID)
	if ln, ok := col.byID[qual]; ok {
		return ln, nil
	}
	if col.stack[qual] {
		col.c.logger.Warn("inline cycle, breaking edge", "node", n.ID)
		return nil, nil
	}
	col.stack[qual] = true
	defer delete(col.stack, qual)

	ln := &localNode{
		node:     n,
		frame:    f,
		scope:    col.names.Unique(sanitizeIdent(qual)),
		caps:     make(map[string]int),
		outVars:  make(map[string]string),
		outTypes: make(map[string]shader.Type),
	}

	sig, ok := chooseSignature(n)
	if !ok {
		// Unparsable body: the fallback interface with zero outputs and no
		// call.
		col.c.logger.Warn("no entry function parsed, emitting zero output", "node", n.ID)
		for _, p := range shader.ExtractIO(n.Body).Outputs {
			col.declareOutput(ln, p)
		}
		col.locals = append(col.locals, ln)
		col.byID[qual] = ln
		return ln, nil
	}

	ln.callable = true
	ln.coord = sig.Coord
	for _, prm := range sig.Params {
		if prm.Out {
			name := col.declareOutput(ln, prm.Port)
			ln.args = append(ln.args, name)
			continue
		}
		arg, err := col.resolveParam(ln, prm, isRoot)
		if err != nil {
			return nil, err
		}
		ln.args = append(ln.args, arg)
	}

	col.locals = append(col.locals, ln)
	col.byID[qual] = ln
	return ln, nil
}

// declareOutput declares the zero-initialized variable backing one output
// port and returns its name.
func (col *collector) declareOutput(ln *localNode, p shader.Port) string {
	name := "out_" + ln.scope + "_" + sanitizeIdent(p.ID)
	ln.outVars[p.ID] = name
	ln.outTypes[p.ID] = p.Type
	if p.Type.Array {
		cap := col.capacity(p.Type)
		ln.caps[p.ID] = cap
		ln.pre = append(ln.pre, fmt.Sprintf("%s %s[%d];", p.Type.Kind, name, cap))
	} else {
		ln.pre = append(ln.pre, fmt.Sprintf("%s %s = %s;", p.Type, name, shader.Zero(p.Type).GLSL()))
	}
	return name
}

// resolveParam renders one input argument. Cross-pass texture parameters
// (feedback, prevPass, firstPass, pass_<id>) resolve to texture bindings;
// everything else resolves as a graph port in priority order: boundary
// texture, same-pass predecessor variable, bound constant uniform, zero.
func (col *collector) resolveParam(ln *localNode, prm shader.Param, isRoot bool) (string, error) {
	texName := "u_" + ln.scope + "_" + sanitizeIdent(prm.ID)

	switch {
	case prm.ID == shader.FeedbackName:
		return col.bindTexture(texName, RefFeedback), nil

	case prm.ID == shader.PrevPassName:
		if isRoot && col.stage != nil && col.stage.prev != "" {
			return col.bindTexture(texName, col.stage.prev), nil
		}
		// Single-body nodes and the chain's first pass read their own
		// previous frame.
		return col.bindTexture(texName, RefFeedback), nil

	case prm.ID == shader.FirstPassName:
		if isRoot && col.stage != nil {
			return col.bindTexture(texName, col.stage.first), nil
		}
		return col.bindTexture(texName, RefFeedback), nil

	case strings.HasPrefix(prm.ID, shader.PassRefPrefix) && len(prm.ID) > len(shader.PassRefPrefix):
		ref := prm.ID[len(shader.PassRefPrefix):]
		if isRoot && col.stage != nil {
			if key, ok := col.stage.stages[ref]; ok {
				return col.bindTexture(texName, key), nil
			}
			col.c.logger.Warn("unknown stage reference, binding empty texture",
				"node", ln.node.ID, "ref", prm.ID)
			return col.bindTexture(texName, RefEmpty), nil
		}
		if ln.frame.g.Node(ref) != nil {
			key, err := col.c.generatePass(ln.frame, ref, "")
			if err != nil {
				return "", err
			}
			return col.bindTexture(texName, key), nil
		}
		col.c.logger.Warn("unknown pass reference, binding empty texture",
			"node", ln.node.ID, "ref", prm.ID)
		return col.bindTexture(texName, RefEmpty), nil
	}

	av, err := col.resolvePort(ln, prm.Port)
	if err != nil {
		return "", err
	}
	if prm.Type.Array {
		return col.arrayArgument(ln, prm.Port, av)
	}
	if !av.typ.Equal(prm.Type) {
		return CastExpr(av.expr, av.typ, prm.Type), nil
	}
	return av.expr, nil
}

// resolvePort resolves a graph input port: a connected edge first, then the
// bound constant, then the type's zero default.
func (col *collector) resolvePort(ln *localNode, port shader.Port) (argValue, error) {
	if e, ok := ln.frame.g.EdgeTo(ln.node.ID, port.ID); ok {
		return col.resolveSource(ln.frame, ln, e, port)
	}

	if v, ok := ln.node.Values[port.ID]; ok {
		if port.Type.Kind == shader.Sampler && !port.Type.Array {
			ref := v.Texture
			if ref == "" {
				ref = RefEmpty
			}
			name := "u_" + ln.scope + "_" + sanitizeIdent(port.ID)
			return argValue{col.bindTexture(name, ref), shader.TSampler, false}, nil
		}
		resolved := col.resolved(port.Type)
		name := "u_" + ln.scope + "_" + sanitizeIdent(port.ID)
		mv := shader.Migrate(v, resolved)
		col.uniforms[name] = Uniform{Type: resolved.String(), Value: &mv}
		return argValue{name, port.Type, true}, nil
	}

	return col.zeroArg(ln, port), nil
}

// resolveSource resolves the far end of an edge within frame f. The consumer
// is only used to scope generated uniform names.
func (col *collector) resolveSource(f *frame, consumer *localNode, e graph.Edge, declPort shader.Port) (argValue, error) {
	src := f.g.Node(e.From)
	if src == nil {
		return argValue{}, errors.New(errors.ErrCodeNodeNotFound, "edge source %q does not exist", e.From)
	}

	switch src.Kind {
	case graph.KindGlobal:
		expr, typ := col.globalUniform(src)
		return argValue{expr, typ, true}, nil

	case graph.KindInput:
		return col.resolveInputProxy(f, consumer, src, declPort)

	case graph.KindGroup:
		return col.resolveGroupOutput(f, consumer, src, e.FromPort, declPort)

	case graph.KindStaged:
		key, err := col.c.generatePass(f, src.ID, "")
		if err != nil {
			return argValue{}, err
		}
		return col.textureArg(consumer, declPort, key), nil

	case graph.KindOutput:
		col.c.logger.Warn("output proxy used as a source", "node", src.ID)
		return col.zeroArg(consumer, declPort), nil
	}

	srcPort, ok := sourceOutput(src, e.FromPort)
	if !ok {
		return argValue{}, errors.New(errors.ErrCodePortNotFound, "node %q has no output %q", src.ID, e.FromPort)
	}

	// Element selection: an array output feeding a non-array port reads one
	// element through the implicit index uniform.
	if srcPort.Type.Array && !declPort.Type.Array && declPort.Type.Kind != shader.Sampler {
		ln2, err := col.collectNode(f, src, false)
		if err != nil {
			return argValue{}, err
		}
		if ln2 == nil {
			return col.zeroArg(consumer, declPort), nil
		}
		srcVar, okVar := ln2.outVars[srcPort.ID]
		if !okVar {
			col.c.logger.Warn("source generates no output, using zero", "node", src.ID, "port", srcPort.ID)
			return col.zeroArg(consumer, declPort), nil
		}
		idx := col.indexUniform(consumer, declPort.ID, col.capacity(col.resolved(srcPort.Type)))
		return argValue{fmt.Sprintf("%s[%s]", srcVar, idx), srcPort.Type.Elem(), false}, nil
	}

	if srcPort.Type.Equal(declPort.Type) {
		// Inline: same pass, direct variable reference.
		ln2, err := col.collectNode(f, src, false)
		if err != nil {
			return argValue{}, err
		}
		if ln2 == nil {
			return col.zeroArg(consumer, declPort), nil
		}
		srcVar, okVar := ln2.outVars[srcPort.ID]
		if !okVar {
			col.c.logger.Warn("source generates no output, using zero", "node", src.ID, "port", srcPort.ID)
			return col.zeroArg(consumer, declPort), nil
		}
		return argValue{srcVar, ln2.outTypes[srcPort.ID], true}, nil
	}

	// Pass boundary: compile the source separately and sample its target.
	key, err := col.c.generatePass(f, src.ID, srcPort.ID)
	if err != nil {
		return argValue{}, err
	}
	return col.textureArg(consumer, declPort, key), nil
}

// resolveInputProxy follows a graph-input proxy up to its owning group: the
// outer edge bound to the exposed port, then the group-level bound value,
// then zero. A top-level proxy becomes a host-provided uniform.
func (col *collector) resolveInputProxy(f *frame, consumer *localNode, proxy *graph.Node, declPort shader.Port) (argValue, error) {
	t := declPort.Type
	if len(proxy.Outputs) > 0 {
		t = proxy.Outputs[0].Type
	}

	if f.parent == nil {
		id := proxy.PortID
		if id == "" {
			id = proxy.ID
		}
		name := "in_" + sanitizeIdent(id)
		resolved := col.resolved(t)
		col.uniforms[name] = Uniform{Type: resolved.String()}
		return argValue{name, t, true}, nil
	}

	pf, group := f.parent, f.group
	if e, ok := pf.g.EdgeTo(group.ID, proxy.PortID); ok {
		return col.resolveSource(pf, consumer, e, declPort)
	}
	if v, ok := group.Values[proxy.PortID]; ok {
		if p, ok := group.Input(proxy.PortID); ok {
			t = p.Type
		}
		resolved := col.resolved(t)
		name := "u_" + sanitizeIdent(pf.qualify(group.ID)) + "_" + sanitizeIdent(proxy.PortID)
		mv := shader.Migrate(v, resolved)
		col.uniforms[name] = Uniform{Type: resolved.String(), Value: &mv}
		return argValue{name, t, true}, nil
	}
	return col.zeroArg(consumer, shader.Port{ID: proxy.PortID, Type: t}), nil
}

// resolveGroupOutput descends into a group's subgraph through the output
// proxy matching the consumed port.
func (col *collector) resolveGroupOutput(f *frame, consumer *localNode, src *graph.Node, fromPort string, declPort shader.Port) (argValue, error) {
	if src.Sub == nil {
		col.c.logger.Warn("group has no subgraph, using zero", "node", src.ID)
		return col.zeroArg(consumer, declPort), nil
	}
	proxy := outputProxy(src.Sub, fromPort)
	if proxy == nil || len(proxy.Inputs) == 0 {
		col.c.logger.Warn("group exposes no matching output, using zero", "node", src.ID, "port", fromPort)
		return col.zeroArg(consumer, declPort), nil
	}
	ie, ok := src.Sub.EdgeTo(proxy.ID, proxy.Inputs[0].ID)
	if !ok {
		col.c.logger.Warn("group output is not connected, using zero", "node", src.ID, "port", proxy.PortID)
		return col.zeroArg(consumer, declPort), nil
	}
	cf := &frame{g: src.Sub, group: src, parent: f}
	return col.resolveSource(cf, consumer, ie, declPort)
}

// =============================================================================
// Bindings
// =============================================================================

// bindTexture registers a sampler uniform bound to a producing pass or
// reserved reference and returns the uniform name.
func (col *collector) bindTexture(name, ref string) string {
	col.uniforms[name] = Uniform{Type: shader.TSampler.String(), Texture: ref}
	col.inputs[name] = ref
	if ref == RefFeedback {
		col.usedFeedback = true
	}
	return name
}

// textureArg binds a boundary texture for the consuming port. Sampler ports
// receive the sampler itself; numeric ports sample it at uv.
func (col *collector) textureArg(consumer *localNode, declPort shader.Port, ref string) argValue {
	name := "u_" + consumer.scope + "_" + sanitizeIdent(declPort.ID)
	col.bindTexture(name, ref)
	if declPort.Type.Kind == shader.Sampler && !declPort.Type.Array {
		return argValue{name, shader.TSampler, false}
	}
	return argValue{fmt.Sprintf("texture(%s, uv)", name), shader.TVec4, false}
}

// globalUniform registers the shared uniform backing a global node.
func (col *collector) globalUniform(n *graph.Node) (string, shader.Type) {
	t := shader.TFloat
	if len(n.Outputs) > 0 {
		t = n.Outputs[0].Type
	} else if v, ok := n.Values[graph.GlobalValueKey]; ok {
		t = v.Type
	}

	id := n.Name
	if id == "" {
		id = n.ID
	}
	name := "g_" + sanitizeIdent(id)
	resolved := col.resolved(t)
	u := Uniform{Type: resolved.String()}
	if v, ok := n.Values[graph.GlobalValueKey]; ok {
		mv := shader.Migrate(v, resolved)
		u.Value = &mv
	}
	col.uniforms[name] = u
	return name, t
}

// indexUniform registers the implicit element-select uniform for an
// array-typed port, clamped to the array capacity.
func (col *collector) indexUniform(consumer *localNode, portID string, cap int) string {
	name := "u_" + consumer.scope + "_" + sanitizeIdent(portID) + "_index"
	idx := 0
	if v, ok := consumer.node.Values[portID+"_index"]; ok {
		idx = int(v.Scalar)
	}
	if idx < 0 {
		idx = 0
	}
	if cap > 0 && idx >= cap {
		idx = cap - 1
	}
	iv := shader.IntValue(idx)
	col.uniforms[name] = Uniform{Type: shader.TInt.String(), Value: &iv}
	return name
}

// arrayArgument renders an array input: the implicit index uniform is always
// registered; element-override edges additionally copy the base array into a
// local and apply per-index assignments sorted by index.
func (col *collector) arrayArgument(ln *localNode, port shader.Port, base argValue) (string, error) {
	resolved := col.resolved(port.Type)
	cap := col.capacity(resolved)
	ln.caps[port.ID] = cap
	col.indexUniform(ln, port.ID, cap)

	overrides := ln.frame.g.ElementEdges(ln.node.ID, port.ID)
	if len(overrides) == 0 {
		return base.expr, nil
	}

	elem := port.Type.Elem()
	local := "arr_" + ln.scope + "_" + sanitizeIdent(port.ID)
	ln.pre = append(ln.pre, fmt.Sprintf("%s %s[%d];", elem, local, cap))
	if base.addressable {
		ln.pre = append(ln.pre, fmt.Sprintf("for (int i = 0; i < %d; i++) { %s[i] = %s[i]; }", cap, local, base.expr))
	} else {
		ln.pre = append(ln.pre, fmt.Sprintf("for (int i = 0; i < %d; i++) { %s[i] = %s; }", cap, local, shader.Zero(elem).GLSL()))
	}

	for _, e := range overrides {
		_, i, _ := graph.ParsePortRef(e.ToPort)
		if i < 0 || i >= cap {
			col.c.logger.Warn("element override beyond capacity, skipping",
				"node", ln.node.ID, "port", e.ToPort, "capacity", cap)
			continue
		}
		av, err := col.resolveSource(ln.frame, ln, e, shader.Port{ID: port.ID, Type: elem})
		if err != nil {
			return "", err
		}
		ln.pre = append(ln.pre, fmt.Sprintf("%s[%d] = %s;", local, i, CastExpr(av.expr, av.typ, elem)))
	}
	return local, nil
}

// zeroArg renders a port's type-appropriate zero. Sampler ports bind the
// reserved empty texture instead.
func (col *collector) zeroArg(consumer *localNode, port shader.Port) argValue {
	if port.Type.Kind == shader.Sampler && !port.Type.Array {
		name := "u_" + consumer.scope + "_" + sanitizeIdent(port.ID)
		return argValue{col.bindTexture(name, RefEmpty), shader.TSampler, false}
	}
	resolved := col.resolved(port.Type)
	return argValue{shader.Zero(resolved).GLSL(), port.Type, false}
}

// resolved fills in an array type's capacity from the configured default.
func (col *collector) resolved(t shader.Type) shader.Type {
	if t.Array && t.Capacity <= 0 {
		t.Capacity = col.c.opts.DefaultArrayCapacity
	}
	return t
}

func (col *collector) capacity(t shader.Type) int {
	if !t.Array {
		return 0
	}
	if t.Capacity > 0 {
		return t.Capacity
	}
	return col.c.opts.DefaultArrayCapacity
}

// =============================================================================
// Signature Selection & Program Assembly
// =============================================================================

// chooseSignature picks the overload to call: the one matching the node's
// current (inferred) ports, else the default.
func chooseSignature(n *graph.Node) (shader.Signature, bool) {
	sigs := shader.ExtractSignatures(n.Body)
	if len(sigs) == 0 {
		return shader.Signature{}, false
	}

	depNames := map[string]bool{shader.FeedbackName: true}
	for _, d := range shader.ScanPassDependencies(n.Body) {
		depNames[d.Name] = true
	}
	for _, sig := range sigs {
		if sigMatchesPorts(sig, depNames, n.Inputs, n.Outputs) {
			return sig, true
		}
	}
	def, _ := shader.DefaultSignature(sigs)
	return def, true
}

func sigMatchesPorts(sig shader.Signature, depNames map[string]bool, inputs, outputs []shader.Port) bool {
	var sigIn []shader.Port
	for _, p := range sig.Inputs() {
		if depNames[p.ID] {
			continue
		}
		sigIn = append(sigIn, p)
	}
	sigOut := sig.Outputs()

	if len(sigIn) != len(inputs) || len(sigOut) != len(outputs) {
		return false
	}
	for i := range sigIn {
		if sigIn[i].ID != inputs[i].ID || !sigIn[i].Type.Equal(inputs[i].Type) {
			return false
		}
	}
	for i := range sigOut {
		if sigOut[i].ID != outputs[i].ID || !sigOut[i].Type.Equal(outputs[i].Type) {
			return false
		}
	}
	return true
}

// program assembles the pass's complete source: version and precision
// header, sorted uniform declarations, the renamed node bodies, and a main
// that runs the calls in dependency order and writes the root output to
// fragColor.
func (col *collector) program(rootExpr string, rootType shader.Type) string {
	var b strings.Builder
	b.WriteString("#version 300 es\n")
	b.WriteString("precision highp float;\n")
	b.WriteString("precision highp int;\n\n")

	b.WriteString("uniform vec2 iResolution;\n")
	names := make([]string, 0, len(col.uniforms))
	for name := range col.uniforms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(col.uniformDecl(name, col.uniforms[name]))
	}
	b.WriteString("\nout vec4 fragColor;\n")

	for _, ln := range col.locals {
		if !ln.callable {
			continue
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(renameBody(ln.node.Body, ln.scope, ln.caps)))
		b.WriteString("\n")
	}

	b.WriteString("\nvoid main() {\n")
	b.WriteString("    vec2 uv = gl_FragCoord.xy / iResolution;\n")
	for _, ln := range col.locals {
		for _, stmt := range ln.pre {
			b.WriteString("    " + stmt + "\n")
		}
		if !ln.callable {
			continue
		}
		args := strings.Join(ln.args, ", ")
		if ln.coord {
			args = "uv"
			if len(ln.args) > 0 {
				args += ", " + strings.Join(ln.args, ", ")
			}
		}
		b.WriteString(fmt.Sprintf("    %s_%s(%s);\n", shader.EntryName, ln.scope, args))
	}
	b.WriteString(fmt.Sprintf("    fragColor = %s;\n", CastExpr(rootExpr, rootType, shader.TVec4)))
	b.WriteString("}\n")
	return b.String()
}

func (col *collector) uniformDecl(name string, u Uniform) string {
	t, err := shader.ParseType(u.Type)
	if err != nil {
		return fmt.Sprintf("uniform %s %s;\n", u.Type, name)
	}
	if t.Array {
		return fmt.Sprintf("uniform %s %s[%d];\n", t.Kind, name, col.capacity(t))
	}
	return fmt.Sprintf("uniform %s %s;\n", t, name)
}
