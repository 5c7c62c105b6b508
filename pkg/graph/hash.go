package graph

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"lukechampine.com/blake3"

	"github.com/shaderflow/shaderflow/pkg/shader"
)

// Hash returns the structural hash of a graph: a BLAKE3 digest over a
// canonical encoding covering bodies, stages, topology, port types, bound
// values, and the auto-type flag. Editor metadata (node Meta, value Meta) is
// excluded, so purely cosmetic edits do not invalidate memoized compiles.
func Hash(g *Graph) string {
	data, _ := json.Marshal(hashGraph(g))
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashNode is the canonical, meta-free projection of a node.
type hashNode struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Body     string            `json:"body,omitempty"`
	Stages   []Stage           `json:"stages,omitempty"`
	Inputs   []string          `json:"inputs,omitempty"`
	Outputs  []string          `json:"outputs,omitempty"`
	Values   map[string]string `json:"values,omitempty"`
	AutoType bool              `json:"auto_type"`
	PortID   string            `json:"port_id,omitempty"`
	Name     string            `json:"name,omitempty"`
	Sub      *hashDoc          `json:"sub,omitempty"`
}

type hashDoc struct {
	Nodes []hashNode `json:"nodes"`
	Edges []Edge     `json:"edges,omitempty"`
}

func hashGraph(g *Graph) *hashDoc {
	doc := &hashDoc{}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, hashNodeOf(n))
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })

	doc.Edges = append(doc.Edges, g.Edges()...)
	sort.Slice(doc.Edges, func(i, j int) bool {
		a, b := doc.Edges[i], doc.Edges[j]
		if a.To != b.To {
			return a.To < b.To
		}
		if a.ToPort != b.ToPort {
			return a.ToPort < b.ToPort
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.FromPort < b.FromPort
	})
	return doc
}

func hashNodeOf(n *Node) hashNode {
	hn := hashNode{
		ID:       n.ID,
		Kind:     string(n.Kind),
		Body:     n.Body,
		Stages:   n.Stages,
		AutoType: n.AutoType,
		PortID:   n.PortID,
		Name:     n.Name,
	}
	for _, p := range n.Inputs {
		hn.Inputs = append(hn.Inputs, p.ID+":"+p.Type.String())
	}
	for _, p := range n.Outputs {
		hn.Outputs = append(hn.Outputs, p.ID+":"+p.Type.String())
	}
	if len(n.Values) > 0 {
		hn.Values = make(map[string]string, len(n.Values))
		for k, v := range n.Values {
			hn.Values[k] = hashValue(v)
		}
	}
	if n.Sub != nil {
		hn.Sub = hashGraph(n.Sub)
	}
	return hn
}

// hashValue renders a value without its Meta. The GLSL literal form is
// canonical for everything but samplers, which hash their texture ref.
func hashValue(v shader.Value) string {
	if v.Type.Kind == shader.Sampler {
		return "sampler:" + v.Texture
	}
	return v.Type.String() + ":" + v.GLSL()
}
