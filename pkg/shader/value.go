package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a constant bound to a port: a scalar, fixed-arity vector, matrix,
// capacity-bounded array, or texture reference, carrying its declared type.
//
// Meta holds display and widget metadata owned by the editor (slider ranges,
// color pickers). The compiler never reads it and migration never drops it.
type Value struct {
	Type    Type           `json:"type"`
	Scalar  float64        `json:"scalar,omitempty"`
	Bool    bool           `json:"bool,omitempty"`
	Vec     []float64      `json:"vec,omitempty"`
	Mat     []float64      `json:"mat,omitempty"`
	Elems   []Value        `json:"elems,omitempty"`
	Texture string         `json:"texture,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// FloatValue returns a float constant.
func FloatValue(f float64) Value { return Value{Type: TFloat, Scalar: f} }

// IntValue returns an int constant.
func IntValue(i int) Value { return Value{Type: TInt, Scalar: float64(i)} }

// BoolValue returns a bool constant.
func BoolValue(b bool) Value { return Value{Type: TBool, Bool: b} }

// VecValue returns a vector constant with 2 to 4 components.
func VecValue(comps ...float64) Value {
	t := TVec2
	switch len(comps) {
	case 3:
		t = TVec3
	case 4:
		t = TVec4
	}
	return Value{Type: t, Vec: comps}
}

// TextureValue returns a texture reference constant.
func TextureValue(ref string) Value { return Value{Type: TSampler, Texture: ref} }

// ArrayValue returns an array constant over elem with the given elements.
// Elements beyond the capacity are dropped.
func ArrayValue(elem Kind, capacity int, elems ...Value) Value {
	t := ArrayOf(elem, capacity)
	if len(elems) > t.Capacity {
		elems = elems[:t.Capacity]
	}
	return Value{Type: t, Elems: elems}
}

// Zero returns the type-appropriate default value: 0 for scalars, false for
// bool, zero vectors, the identity matrix, an empty texture reference, and a
// zero-filled array at capacity.
func Zero(t Type) Value {
	if t.Array {
		elems := make([]Value, t.cap())
		for i := range elems {
			elems[i] = Zero(t.Elem())
		}
		return Value{Type: ArrayOf(t.Kind, t.cap()), Elems: elems}
	}
	switch t.Kind {
	case Vec2, Vec3, Vec4:
		return Value{Type: t, Vec: make([]float64, t.Components())}
	case Mat4:
		m := make([]float64, 16)
		for i := 0; i < 4; i++ {
			m[i*4+i] = 1
		}
		return Value{Type: t, Mat: m}
	case Sampler:
		return Value{Type: t}
	default:
		return Value{Type: t}
	}
}

// shapeOK reports whether the value's payload matches its declared type.
// A value whose declared type disagrees with its actual shape is treated as
// absent by Migrate.
func (v Value) shapeOK() bool {
	t := v.Type
	if t.Array {
		return len(v.Elems) <= t.cap()
	}
	switch t.Kind {
	case Float, Int:
		return v.Vec == nil && v.Mat == nil && v.Elems == nil
	case Bool:
		return v.Vec == nil && v.Mat == nil && v.Elems == nil
	case Vec2, Vec3, Vec4:
		return len(v.Vec) == t.Components()
	case Mat4:
		return len(v.Mat) == 16
	case Sampler:
		return true
	}
	return false
}

// components returns the value's scalar components for numeric values.
func (v Value) components() []float64 {
	if v.Type.Kind == Float || v.Type.Kind == Int {
		return []float64{v.Scalar}
	}
	return v.Vec
}

// Migrate converts a bound value to a new type, preserving as much of the
// old value as the shapes allow:
//
//   - scalar → scalar copies
//   - scalar → vector broadcasts
//   - vector → scalar takes the first component
//   - vector → vector truncates or zero-pads
//   - array → array migrates element-wise and re-clamps to capacity
//
// Any non-numeric or shape-mismatched value is treated as absent and
// replaced by Zero(t). Meta is carried over in every case.
func Migrate(v Value, t Type) Value {
	out := migrate(v, t)
	out.Meta = v.Meta
	return out
}

func migrate(v Value, t Type) Value {
	if !v.shapeOK() {
		return Zero(t)
	}
	if v.Type.Equal(t) && !t.Array {
		out := v
		out.Type = t
		return out
	}

	if t.Array && v.Type.Array {
		elems := make([]Value, t.cap())
		for i := range elems {
			if i < len(v.Elems) {
				elems[i] = Migrate(v.Elems[i], t.Elem())
			} else {
				elems[i] = Zero(t.Elem())
			}
		}
		return Value{Type: ArrayOf(t.Kind, t.cap()), Elems: elems}
	}

	if !v.Type.Numeric() || !t.Numeric() {
		return Zero(t)
	}

	src := v.components()
	n := t.Components()
	if n == 1 {
		return Value{Type: t, Scalar: src[0]}
	}
	dst := make([]float64, n)
	if len(src) == 1 {
		// Broadcast
		for i := range dst {
			dst[i] = src[0]
		}
	} else {
		// Truncate or zero-pad
		copy(dst, src)
	}
	return Value{Type: t, Vec: dst}
}

// GLSL renders the value as a source-language literal, e.g. "1.0",
// "vec3(0.0, 0.5, 1.0)", or "float[4](0.0, 0.0, 0.0, 0.0)". Sampler values
// have no literal form and render as the empty string.
func (v Value) GLSL() string {
	t := v.Type
	if t.Array {
		parts := make([]string, t.cap())
		for i := range parts {
			if i < len(v.Elems) {
				parts[i] = v.Elems[i].GLSL()
			} else {
				parts[i] = Zero(t.Elem()).GLSL()
			}
		}
		return fmt.Sprintf("%s[%d](%s)", kindNames[t.Kind], t.cap(), strings.Join(parts, ", "))
	}
	switch t.Kind {
	case Float:
		return formatFloat(v.Scalar)
	case Int:
		return strconv.Itoa(int(v.Scalar))
	case Bool:
		if v.Bool {
			return "true"
		}
		return "false"
	case Vec2, Vec3, Vec4:
		parts := make([]string, t.Components())
		for i := range parts {
			c := 0.0
			if i < len(v.Vec) {
				c = v.Vec[i]
			}
			parts[i] = formatFloat(c)
		}
		return fmt.Sprintf("%s(%s)", kindNames[t.Kind], strings.Join(parts, ", "))
	case Mat4:
		parts := make([]string, 16)
		for i := range parts {
			c := 0.0
			if i < len(v.Mat) {
				c = v.Mat[i]
			}
			parts[i] = formatFloat(c)
		}
		return fmt.Sprintf("mat4(%s)", strings.Join(parts, ", "))
	}
	return ""
}

// formatFloat renders f as a GLSL float literal, always including a decimal
// point so the literal is not mistaken for an int.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
