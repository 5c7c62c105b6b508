package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one of the recognized base types.
type Kind int

// Recognized base types of the restricted language.
const (
	Float Kind = iota
	Int
	Bool
	Vec2
	Vec3
	Vec4
	Mat4
	Sampler
)

// DefaultArrayCapacity is the capacity assumed for array ports declared with
// an unsized [] suffix. A per-port configured capacity overrides it at code
// generation time.
const DefaultArrayCapacity = 8

// Type is the semantic type of a port or bound value: a base kind plus an
// optional array wrapper with a fixed capacity.
type Type struct {
	Kind     Kind
	Array    bool
	Capacity int // array capacity; meaningful only when Array is true
}

// Base type constructors for the common cases.
var (
	TFloat   = Type{Kind: Float}
	TInt     = Type{Kind: Int}
	TBool    = Type{Kind: Bool}
	TVec2    = Type{Kind: Vec2}
	TVec3    = Type{Kind: Vec3}
	TVec4    = Type{Kind: Vec4}
	TMat4    = Type{Kind: Mat4}
	TSampler = Type{Kind: Sampler}
)

// ArrayOf returns the array type over elem with the given capacity.
// A capacity of 0 or less falls back to DefaultArrayCapacity.
func ArrayOf(elem Kind, capacity int) Type {
	if capacity <= 0 {
		capacity = DefaultArrayCapacity
	}
	return Type{Kind: elem, Array: true, Capacity: capacity}
}

// kindNames maps base kinds to their source-language spelling.
var kindNames = map[Kind]string{
	Float:   "float",
	Int:     "int",
	Bool:    "bool",
	Vec2:    "vec2",
	Vec3:    "vec3",
	Vec4:    "vec4",
	Mat4:    "mat4",
	Sampler: "sampler2D",
}

// String returns the source-language spelling of the kind.
func (k Kind) String() string { return kindNames[k] }

// namedKinds is the reverse of kindNames.
var namedKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// ParseKind maps a type name from source text to its kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := namedKinds[name]
	return k, ok
}

// ParseType parses a type string as produced by [Type.String], e.g. "vec3"
// or "float[8]".
func ParseType(s string) (Type, error) {
	base := s
	var t Type
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Type{}, fmt.Errorf("malformed type %q", s)
		}
		base = s[:i]
		t.Array = true
		size := s[i+1 : len(s)-1]
		if size == "" {
			t.Capacity = DefaultArrayCapacity
		} else {
			n, err := strconv.Atoi(size)
			if err != nil || n <= 0 {
				return Type{}, fmt.Errorf("malformed array capacity in %q", s)
			}
			t.Capacity = n
		}
	}
	k, ok := ParseKind(base)
	if !ok {
		return Type{}, fmt.Errorf("unknown type %q", s)
	}
	t.Kind = k
	return t, nil
}

// String renders the type in source-language form.
func (t Type) String() string {
	name := kindNames[t.Kind]
	if t.Array {
		return fmt.Sprintf("%s[%d]", name, t.cap())
	}
	return name
}

func (t Type) cap() int {
	if t.Capacity > 0 {
		return t.Capacity
	}
	return DefaultArrayCapacity
}

// Elem returns the element type of an array type, or t itself when t is not
// an array.
func (t Type) Elem() Type {
	return Type{Kind: t.Kind}
}

// Equal reports whether two types are the same for connection purposes.
// Array capacity is intentionally ignored: it is a code-generation concern,
// not a compatibility one.
func (t Type) Equal(o Type) bool {
	return t.Kind == o.Kind && t.Array == o.Array
}

// Rank is the total order over numeric types used by type inference:
// float/int rank 1, vec2 rank 2, vec3 rank 3, vec4 rank 4. Bool, mat4,
// sampler2D, and all array types rank 0 and are never promoted.
func (t Type) Rank() int {
	if t.Array {
		return 0
	}
	switch t.Kind {
	case Float, Int:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	}
	return 0
}

// Numeric reports whether the type participates in rank promotion.
func (t Type) Numeric() bool { return t.Rank() > 0 }

// Components returns the number of scalar components of a non-array numeric
// type (1 for float/int, 2..4 for vectors), or 0 for everything else.
func (t Type) Components() int {
	if t.Array {
		return 0
	}
	switch t.Kind {
	case Float, Int:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	}
	return 0
}

// TypeForRank maps a rank back to the canonical numeric type: 1 → float,
// 2 → vec2, 3 → vec3, 4 → vec4.
func TypeForRank(r int) (Type, bool) {
	switch r {
	case 1:
		return TFloat, true
	case 2:
		return TVec2, true
	case 3:
		return TVec3, true
	case 4:
		return TVec4, true
	}
	return Type{}, false
}

// MarshalText renders the type in source-language form for serialization.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the source-language form.
func (t *Type) UnmarshalText(data []byte) error {
	parsed, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
