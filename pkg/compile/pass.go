package compile

import (
	"encoding/json"

	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// Reserved texture references in a pass's input bindings.
const (
	// RefFeedback binds a texture uniform to the pass's own previous
	// frame (its feedback buffer).
	RefFeedback = "__feedback__"

	// RefEmpty binds a texture uniform to the reserved empty texture.
	RefEmpty = "__empty__"
)

// Uniform is one entry of a pass's uniform table: a typed constant value or
// a texture reference.
type Uniform struct {
	Type    string        `json:"type"`
	Value   *shader.Value `json:"value,omitempty"`
	Texture string        `json:"texture,omitempty"`
}

// FeedbackConfig describes a pass's feedback buffer.
type FeedbackConfig struct {
	// Persistent keeps the buffer contents across frames.
	Persistent bool `json:"persistent,omitempty"`

	// Clear is the initial clear color; HasClear reports whether one was
	// configured.
	Clear    [4]float64 `json:"clear,omitempty"`
	HasClear bool       `json:"has_clear,omitempty"`

	// Initial is the texture feeding the buffer before its first
	// evaluation: a pass key, a bound texture reference, or RefEmpty.
	Initial string `json:"initial,omitempty"`
}

// RenderPass is one generated program plus its bindings, corresponding to
// one render-target evaluation.
type RenderPass struct {
	// ID is the pass key: "node" for a node's default output,
	// "node::port" for a specific output, "node::stage" per stage, and
	// "node::stage::N" for loop iterations beyond the first.
	ID string `json:"id"`

	// Source is the complete generated program text.
	Source string `json:"source"`

	// Uniforms maps uniform names to their typed values or texture
	// references.
	Uniforms map[string]Uniform `json:"uniforms,omitempty"`

	// Output is the render-target id this pass writes.
	Output string `json:"output"`

	// Inputs maps texture uniform names to the producing pass id, or to
	// one of the reserved references RefFeedback / RefEmpty.
	Inputs map[string]string `json:"inputs,omitempty"`

	// Feedback configures the pass's feedback buffer, if it has one.
	Feedback *FeedbackConfig `json:"feedback,omitempty"`

	// Loop is the host-side repeat count requested by a loop pragma on a
	// single-body node; 0 means run once.
	Loop int `json:"loop,omitempty"`
}

// EncodePasses serializes a pass list to JSON for caching and transport.
func EncodePasses(passes []*RenderPass) ([]byte, error) {
	data, err := json.Marshal(passes)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode passes")
	}
	return data, nil
}

// DecodePasses deserializes a pass list produced by EncodePasses.
func DecodePasses(data []byte) ([]*RenderPass, error) {
	var passes []*RenderPass
	if err := json.Unmarshal(data, &passes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode passes")
	}
	return passes, nil
}
