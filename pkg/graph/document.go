package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// =============================================================================
// Document Types - Canonical Serialization Format
// =============================================================================

// Document is the canonical serialization format for shader graphs.
// It is deliberately dumb: types render as language strings ("vec3",
// "float[8]") so documents stay readable and survive hand editing.
// The format round-trips: import → compile → export → re-import produces
// identical results.
type Document struct {
	Nodes  []NodeDoc `json:"nodes" yaml:"nodes"`
	Edges  []EdgeDoc `json:"edges,omitempty" yaml:"edges,omitempty"`
	Output string    `json:"output,omitempty" yaml:"output,omitempty"` // chosen output node id
}

// NodeDoc is the serialized form of a Node.
type NodeDoc struct {
	ID       string              `json:"id" yaml:"id"`
	Kind     string              `json:"kind,omitempty" yaml:"kind,omitempty"` // defaults to "standard"
	Body     string              `json:"body,omitempty" yaml:"body,omitempty"`
	Stages   []StageDoc          `json:"stages,omitempty" yaml:"stages,omitempty"`
	Inputs   []PortDoc           `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []PortDoc           `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Values   map[string]ValueDoc `json:"values,omitempty" yaml:"values,omitempty"`
	AutoType *bool               `json:"auto_type,omitempty" yaml:"auto_type,omitempty"` // defaults to true
	Sub      *Document           `json:"sub,omitempty" yaml:"sub,omitempty"`
	PortID   string              `json:"port_id,omitempty" yaml:"port_id,omitempty"`
	Name     string              `json:"name,omitempty" yaml:"name,omitempty"`
	Meta     map[string]any      `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// StageDoc is the serialized form of a Stage.
type StageDoc struct {
	ID   string `json:"id" yaml:"id"`
	Body string `json:"body" yaml:"body"`
	Loop int    `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// PortDoc is the serialized form of a Port.
type PortDoc struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type" yaml:"type"`
}

// ValueDoc is the serialized form of a bound Value.
type ValueDoc struct {
	Type    string         `json:"type" yaml:"type"`
	Scalar  *float64       `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Bool    *bool          `json:"bool,omitempty" yaml:"bool,omitempty"`
	Vec     []float64      `json:"vec,omitempty" yaml:"vec,omitempty"`
	Mat     []float64      `json:"mat,omitempty" yaml:"mat,omitempty"`
	Elems   []ValueDoc     `json:"elems,omitempty" yaml:"elems,omitempty"`
	Texture string         `json:"texture,omitempty" yaml:"texture,omitempty"`
	Meta    map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// =============================================================================
// Graph → Document
// =============================================================================

// EncodeDocument converts a graph to its serialized form. The output node id
// is carried on the document when non-empty.
func EncodeDocument(g *Graph, output string) Document {
	doc := Document{Output: output}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, encodeNode(n))
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDoc{From: e.From, FromPort: e.FromPort, To: e.To, ToPort: e.ToPort})
	}
	return doc
}

// EdgeDoc is the serialized form of an Edge.
type EdgeDoc struct {
	From     string `json:"from" yaml:"from"`
	FromPort string `json:"from_port,omitempty" yaml:"from_port,omitempty"`
	To       string `json:"to" yaml:"to"`
	ToPort   string `json:"to_port" yaml:"to_port"`
}

func encodeNode(n *Node) NodeDoc {
	doc := NodeDoc{
		ID:     n.ID,
		Body:   n.Body,
		PortID: n.PortID,
		Name:   n.Name,
		Meta:   n.Meta,
	}
	if n.Kind != KindStandard {
		doc.Kind = string(n.Kind)
	}
	if !n.AutoType {
		f := false
		doc.AutoType = &f
	}
	for _, s := range n.Stages {
		doc.Stages = append(doc.Stages, StageDoc(s))
	}
	for _, p := range n.Inputs {
		doc.Inputs = append(doc.Inputs, encodePort(p))
	}
	for _, p := range n.Outputs {
		doc.Outputs = append(doc.Outputs, encodePort(p))
	}
	if len(n.Values) > 0 {
		doc.Values = make(map[string]ValueDoc, len(n.Values))
		for k, v := range n.Values {
			doc.Values[k] = encodeValue(v)
		}
	}
	if n.Sub != nil {
		sub := EncodeDocument(n.Sub, "")
		doc.Sub = &sub
	}
	return doc
}

func encodePort(p shader.Port) PortDoc {
	doc := PortDoc{ID: p.ID, Type: p.Type.String()}
	if p.Name != p.ID {
		doc.Name = p.Name
	}
	return doc
}

func encodeValue(v shader.Value) ValueDoc {
	doc := ValueDoc{
		Type:    v.Type.String(),
		Vec:     v.Vec,
		Mat:     v.Mat,
		Texture: v.Texture,
		Meta:    v.Meta,
	}
	switch v.Type.Kind {
	case shader.Float, shader.Int:
		if !v.Type.Array {
			s := v.Scalar
			doc.Scalar = &s
		}
	case shader.Bool:
		b := v.Bool
		doc.Bool = &b
	}
	for _, e := range v.Elems {
		doc.Elems = append(doc.Elems, encodeValue(e))
	}
	return doc
}

// =============================================================================
// Document → Graph
// =============================================================================

// DecodeDocument converts a serialized document back into a graph, returning
// the graph and the document's output node id.
func DecodeDocument(doc Document) (*Graph, string, error) {
	g := New()
	for _, nd := range doc.Nodes {
		n, err := decodeNode(nd)
		if err != nil {
			return nil, "", err
		}
		if err := g.AddNode(n); err != nil {
			return nil, "", err
		}
	}
	for _, ed := range doc.Edges {
		if err := g.AddEdge(Edge{From: ed.From, FromPort: ed.FromPort, To: ed.To, ToPort: ed.ToPort}); err != nil {
			return nil, "", err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, "", err
	}
	return g, doc.Output, nil
}

func decodeNode(doc NodeDoc) (*Node, error) {
	n := &Node{
		ID:       doc.ID,
		Kind:     KindStandard,
		Body:     doc.Body,
		PortID:   doc.PortID,
		Name:     doc.Name,
		Meta:     doc.Meta,
		AutoType: true,
		Values:   make(map[string]shader.Value),
	}
	if doc.Kind != "" {
		switch Kind(doc.Kind) {
		case KindStandard, KindInput, KindOutput, KindGlobal, KindGroup, KindStaged:
			n.Kind = Kind(doc.Kind)
		default:
			return nil, errors.New(errors.ErrCodeInvalidDocument, "node %s: unknown kind %q", doc.ID, doc.Kind)
		}
	}
	if doc.AutoType != nil {
		n.AutoType = *doc.AutoType
	}
	for _, s := range doc.Stages {
		n.Stages = append(n.Stages, Stage(s))
	}
	for _, pd := range doc.Inputs {
		p, err := decodePort(pd, doc.ID)
		if err != nil {
			return nil, err
		}
		n.Inputs = append(n.Inputs, p)
	}
	for _, pd := range doc.Outputs {
		p, err := decodePort(pd, doc.ID)
		if err != nil {
			return nil, err
		}
		n.Outputs = append(n.Outputs, p)
	}
	for k, vd := range doc.Values {
		v, err := decodeValue(vd, doc.ID)
		if err != nil {
			return nil, err
		}
		n.Values[k] = v
	}
	if doc.Sub != nil {
		sub, _, err := DecodeDocument(*doc.Sub)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %s: subgraph", doc.ID)
		}
		n.Sub = sub
	}
	return n, nil
}

func decodePort(doc PortDoc, nodeID string) (shader.Port, error) {
	t, err := shader.ParseType(doc.Type)
	if err != nil {
		return shader.Port{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %s: port %s", nodeID, doc.ID)
	}
	name := doc.Name
	if name == "" {
		name = doc.ID
	}
	return shader.Port{ID: doc.ID, Name: name, Type: t}, nil
}

func decodeValue(doc ValueDoc, nodeID string) (shader.Value, error) {
	t, err := shader.ParseType(doc.Type)
	if err != nil {
		return shader.Value{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %s: value", nodeID)
	}
	v := shader.Value{
		Type:    t,
		Vec:     doc.Vec,
		Mat:     doc.Mat,
		Texture: doc.Texture,
		Meta:    doc.Meta,
	}
	if doc.Scalar != nil {
		v.Scalar = *doc.Scalar
	}
	if doc.Bool != nil {
		v.Bool = *doc.Bool
	}
	for _, e := range doc.Elems {
		ev, err := decodeValue(e, nodeID)
		if err != nil {
			return shader.Value{}, err
		}
		v.Elems = append(v.Elems, ev)
	}
	return v, nil
}

// =============================================================================
// Readers and Writers
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph, output string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(EncodeDocument(g, output)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
	}
	return buf.Bytes(), nil
}

// ReadGraph decodes a JSON or YAML graph document. The format is detected
// from the first non-space byte: '{' means JSON, anything else YAML.
func ReadGraph(data []byte) (*Graph, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", errors.New(errors.ErrCodeInvalidDocument, "empty document")
	}

	var doc Document
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode JSON")
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode YAML")
		}
	}
	return DecodeDocument(doc)
}

// ReadGraphFile reads and decodes a graph document from a file.
func ReadGraphFile(path string) (*Graph, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	return ReadGraph(data)
}

// WriteGraph writes a graph as indented JSON to w.
func WriteGraph(g *Graph, output string, w io.Writer) error {
	data, err := MarshalGraph(g, output)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
