// Package library manages stored node definitions: the built-in set shipped
// with the compiler, TOML manifest directories authored by users, and a
// shared registry backend the surrounding system syncs against.
package library

import (
	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// StageDef is one stage of a stored multi-stage definition.
type StageDef struct {
	ID   string `toml:"id" json:"id" bson:"id"`
	Body string `toml:"body" json:"body" bson:"body"`
	Loop int    `toml:"loop,omitempty" json:"loop,omitempty" bson:"loop,omitempty"`
}

// Definition is a stored node definition. Either Body (single-body) or
// Stages (multi-stage) is set, never both.
type Definition struct {
	ID       string                  `toml:"id" json:"id" bson:"_id"`
	Label    string                  `toml:"label" json:"label" bson:"label"`
	Category string                  `toml:"category,omitempty" json:"category,omitempty" bson:"category,omitempty"`
	Body     string                  `toml:"body,omitempty" json:"body,omitempty" bson:"body,omitempty"`
	Stages   []StageDef              `toml:"stage,omitempty" json:"stages,omitempty" bson:"stages,omitempty"`
	Values   map[string]shader.Value `toml:"values,omitempty" json:"values,omitempty" bson:"values,omitempty"`
	Tags     []string                `toml:"tags,omitempty" json:"tags,omitempty" bson:"tags,omitempty"`
}

// Validate checks that the definition can be instantiated: a non-empty id
// and a body (or stage bodies) declaring a parsable entry function.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "definition without id")
	}
	if d.Body != "" && len(d.Stages) > 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "definition %q has both a body and stages", d.ID)
	}
	switch {
	case len(d.Stages) > 0:
		for _, st := range d.Stages {
			if st.ID == "" {
				return errors.New(errors.ErrCodeInvalidManifest, "definition %q has a stage without id", d.ID)
			}
			if len(shader.ExtractSignatures(st.Body)) == 0 {
				return errors.New(errors.ErrCodeInvalidManifest, "definition %q stage %q has no entry function", d.ID, st.ID)
			}
		}
	case d.Body != "":
		if len(shader.ExtractSignatures(d.Body)) == 0 {
			return errors.New(errors.ErrCodeInvalidManifest, "definition %q has no entry function", d.ID)
		}
	default:
		return errors.New(errors.ErrCodeInvalidManifest, "definition %q has neither body nor stages", d.ID)
	}
	return nil
}

// Instantiate builds a fresh graph node from the definition, with ports
// parsed from the body and bound values copied over.
func (d *Definition) Instantiate() (*graph.Node, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var n *graph.Node
	if len(d.Stages) > 0 {
		n = graph.NewNode(graph.KindStaged)
		for _, st := range d.Stages {
			n.Stages = append(n.Stages, graph.Stage{ID: st.ID, Body: st.Body, Loop: st.Loop})
		}
		// Ports of a staged node come from its first stage.
		io := shader.ExtractIO(d.Stages[0].Body)
		n.Inputs, n.Outputs = io.Inputs, io.Outputs
	} else {
		n = graph.NewNode(graph.KindStandard)
		n.Body = d.Body
		io := shader.ExtractIO(d.Body)
		n.Inputs, n.Outputs = io.Inputs, io.Outputs
	}

	for k, v := range d.Values {
		n.Values[k] = v
	}
	n.Meta = map[string]any{"definition": d.ID}
	if d.Label != "" {
		n.Meta["label"] = d.Label
	}
	return n, nil
}
