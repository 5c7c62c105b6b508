// Package graph defines the editor-facing dataflow graph that the compiler
// consumes: nodes holding shader bodies, typed ports, bound constant values,
// and edges wiring outputs to inputs.
//
// # Node kinds
//
// Nodes form a closed tagged union keyed by Kind:
//
//   - KindStandard: an ordinary node with one shader body
//   - KindInput: a graph-input proxy exposing a port of its owning group
//   - KindOutput: a graph-output proxy exposing a port of its owning group
//   - KindGlobal: a named global variable shared across passes as a uniform
//   - KindGroup: a compound node wrapping a nested subgraph
//   - KindStaged: a multi-stage node expanding to one render pass per stage
//
// Consumers resolve behavior by switching on Kind exhaustively, never by
// probing which fields happen to be set.
//
// # Mutation model
//
// Nodes are created and owned by the external editor. Type inference mutates
// a cloned graph's port lists and bound values in place; the compiler only
// reads. Use [Graph.Clone] before handing a shared graph to either.
package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// Kind discriminates the node union.
type Kind string

// Node kinds.
const (
	KindStandard Kind = "standard"
	KindInput    Kind = "input"
	KindOutput   Kind = "output"
	KindGlobal   Kind = "global"
	KindGroup    Kind = "group"
	KindStaged   Kind = "staged"
)

// Stage is one named stage of a multi-stage node, in declared order.
type Stage struct {
	ID   string
	Body string
	Loop int // repeat count; 0 or 1 means a single pass
}

// Node is one node of the dataflow graph.
type Node struct {
	ID     string
	Kind   Kind
	Body   string  // standard and global nodes
	Stages []Stage // staged nodes only

	// Current port lists. After inference these match one of the body's
	// parsed signatures (or the documented fallback shape).
	Inputs  []shader.Port
	Outputs []shader.Port

	// Values maps a port id to its bound constant. Array ports may carry
	// an additional "<port>_index" companion selecting one element.
	Values map[string]shader.Value

	// AutoType lets inference replace the port types from connections.
	AutoType bool

	Sub    *Graph // group nodes: the nested subgraph
	PortID string // proxy nodes: the owning group's exposed port id
	Name   string // global nodes: the variable name

	// Meta is editor-owned metadata (position, selection, notes). It is
	// excluded from the structural hash.
	Meta map[string]any
}

// GlobalValueKey is the Values key holding a global node's constant.
const GlobalValueKey = "value"

// NewNode creates a node of the given kind with a generated id.
func NewNode(kind Kind) *Node {
	return &Node{
		ID:       uuid.NewString(),
		Kind:     kind,
		AutoType: true,
		Values:   make(map[string]shader.Value),
	}
}

// Input returns the input port with the given id.
func (n *Node) Input(id string) (shader.Port, bool) {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return shader.Port{}, false
}

// Output returns the output port with the given id.
func (n *Node) Output(id string) (shader.Port, bool) {
	for _, p := range n.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return shader.Port{}, false
}

// DefaultOutput returns the node's first output port.
func (n *Node) DefaultOutput() (shader.Port, bool) {
	if len(n.Outputs) == 0 {
		return shader.Port{}, false
	}
	return n.Outputs[0], true
}

// Clone returns a deep copy of the node, including any nested subgraph.
func (n *Node) Clone() *Node {
	out := *n
	out.Stages = append([]Stage(nil), n.Stages...)
	out.Inputs = append([]shader.Port(nil), n.Inputs...)
	out.Outputs = append([]shader.Port(nil), n.Outputs...)
	if n.Values != nil {
		out.Values = make(map[string]shader.Value, len(n.Values))
		for k, v := range n.Values {
			out.Values[k] = v
		}
	}
	if n.Sub != nil {
		out.Sub = n.Sub.Clone()
	}
	if n.Meta != nil {
		out.Meta = make(map[string]any, len(n.Meta))
		for k, v := range n.Meta {
			out.Meta[k] = v
		}
	}
	return &out
}

// Edge connects a source node's output port to a target node's input port.
// An empty FromPort means the source's default (first) output. ToPort may
// carry an element suffix "name[i]" addressing one array element.
type Edge struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// Graph is a node collection plus an edge list. Nodes keep insertion order
// so traversals and generated output are deterministic.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode inserts a node. Adding a node with an existing id replaces the
// previous node in place.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return errors.New(errors.ErrCodeInvalidGraph, "node id must not be empty")
	}
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
	return nil
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns the edge list.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddEdge binds an edge. At most one edge may terminate at a given
// (node, input port): a newly bound edge supersedes a prior one.
func (g *Graph) AddEdge(e Edge) error {
	if e.From == "" || e.To == "" || e.ToPort == "" {
		return errors.New(errors.ErrCodeInvalidGraph, "edge endpoints must not be empty")
	}
	for i, prev := range g.edges {
		if prev.To == e.To && prev.ToPort == e.ToPort {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			break
		}
	}
	g.edges = append(g.edges, e)
	return nil
}

// RemoveEdge deletes the edge terminating at (node, port), if any.
func (g *Graph) RemoveEdge(node, port string) {
	for i, e := range g.edges {
		if e.To == node && e.ToPort == port {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return
		}
	}
}

// EdgesInto returns all edges terminating at the given node, element-suffix
// edges included.
func (g *Graph) EdgesInto(node string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To == node {
			out = append(out, e)
		}
	}
	return out
}

// EdgeTo returns the edge terminating at exactly (node, port). Element
// override edges ("port[i]") do not match the bare port name.
func (g *Graph) EdgeTo(node, port string) (Edge, bool) {
	for _, e := range g.edges {
		if e.To == node && e.ToPort == port {
			return e, true
		}
	}
	return Edge{}, false
}

// ElementEdges returns the element-override edges addressing individual
// entries of the given array port, sorted by element index.
func (g *Graph) ElementEdges(node, port string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To != node {
			continue
		}
		base, _, ok := ParsePortRef(e.ToPort)
		if ok && base == port {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		_, a, _ := ParsePortRef(out[i].ToPort)
		_, b, _ := ParsePortRef(out[j].ToPort)
		return a < b
	})
	return out
}

// EdgesFrom returns all edges originating at the given node.
func (g *Graph) EdgesFrom(node string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == node {
			out = append(out, e)
		}
	}
	return out
}

// ParsePortRef splits an element-suffixed port handle "name[i]" into the
// port name and element index. Returns ok false for a bare port name.
func ParsePortRef(ref string) (port string, index int, ok bool) {
	open := strings.IndexByte(ref, '[')
	if open <= 0 || !strings.HasSuffix(ref, "]") {
		return ref, -1, false
	}
	n, err := strconv.Atoi(ref[open+1 : len(ref)-1])
	if err != nil || n < 0 {
		return ref, -1, false
	}
	return ref[:open], n, true
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New()
	out.order = append([]string(nil), g.order...)
	for id, n := range g.nodes {
		out.nodes[id] = n.Clone()
	}
	out.edges = append([]Edge(nil), g.edges...)
	return out
}

// Validate checks structural invariants: non-empty node ids, edge endpoints
// that exist, and target ports that resolve on their node. Nested subgraphs
// are validated recursively.
func (g *Graph) Validate() error {
	for _, n := range g.Nodes() {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidGraph, "node with empty id")
		}
		if n.Kind == KindGroup && n.Sub != nil {
			if err := n.Sub.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidGraph, err, "group %s", n.ID)
			}
		}
	}
	for _, e := range g.edges {
		if g.Node(e.From) == nil {
			return errors.New(errors.ErrCodeInvalidGraph, "edge source %q does not exist", e.From)
		}
		if g.Node(e.To) == nil {
			return errors.New(errors.ErrCodeInvalidGraph, "edge target %q does not exist", e.To)
		}
	}
	return nil
}

// String returns a short summary for logging.
func (g *Graph) String() string {
	return fmt.Sprintf("graph(%d nodes, %d edges)", len(g.nodes), len(g.edges))
}
