package shader

import (
	"reflect"
	"testing"
)

func TestMigrate(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		to   Type
		want Value
	}{
		{
			name: "scalar to scalar",
			in:   FloatValue(0.5),
			to:   TFloat,
			want: FloatValue(0.5),
		},
		{
			name: "scalar to vec3 broadcasts",
			in:   FloatValue(0.25),
			to:   TVec3,
			want: VecValue(0.25, 0.25, 0.25),
		},
		{
			name: "vec3 to scalar takes first component",
			in:   VecValue(0.1, 0.2, 0.3),
			to:   TFloat,
			want: FloatValue(0.1),
		},
		{
			name: "vec4 to vec2 truncates",
			in:   VecValue(1, 2, 3, 4),
			to:   TVec2,
			want: VecValue(1, 2),
		},
		{
			name: "vec2 to vec4 zero-pads",
			in:   VecValue(1, 2),
			to:   TVec4,
			want: VecValue(1, 2, 0, 0),
		},
		{
			name: "bool to float discards and defaults",
			in:   BoolValue(true),
			to:   TFloat,
			want: FloatValue(0),
		},
		{
			name: "texture to vec3 discards and defaults",
			in:   TextureValue("buf"),
			to:   TVec3,
			want: VecValue(0, 0, 0),
		},
		{
			name: "float to bool defaults",
			in:   FloatValue(1),
			to:   TBool,
			want: BoolValue(false),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Migrate(tt.in, tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Migrate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMigratePreservesMeta(t *testing.T) {
	v := FloatValue(0.5)
	v.Meta = map[string]any{"widget": "slider", "max": 2.0}
	got := Migrate(v, TVec3)
	if !reflect.DeepEqual(got.Meta, v.Meta) {
		t.Errorf("Meta = %v, want %v", got.Meta, v.Meta)
	}
}

func TestMigrateShapeMismatchTreatedAsAbsent(t *testing.T) {
	// Declared vec3 but only two components: use the zero default.
	bad := Value{Type: TVec3, Vec: []float64{1, 2}}
	got := Migrate(bad, TVec4)
	want := Zero(TVec4)
	got.Meta = nil
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Migrate(mismatched) = %+v, want %+v", got, want)
	}
}

func TestMigrateArray(t *testing.T) {
	in := ArrayValue(Float, 4, FloatValue(1), FloatValue(2))
	got := Migrate(in, ArrayOf(Vec2, 2))
	if len(got.Elems) != 2 {
		t.Fatalf("got %d elems, want 2 (re-clamped)", len(got.Elems))
	}
	if !reflect.DeepEqual(got.Elems[0], VecValue(1, 1)) {
		t.Errorf("elem 0 = %+v, want broadcast vec2(1, 1)", got.Elems[0])
	}
}

func TestZero(t *testing.T) {
	if got := Zero(TFloat); got.Scalar != 0 {
		t.Errorf("Zero(float) = %+v", got)
	}
	if got := Zero(TVec3); len(got.Vec) != 3 {
		t.Errorf("Zero(vec3) = %+v", got)
	}
	m := Zero(TMat4)
	if len(m.Mat) != 16 || m.Mat[0] != 1 || m.Mat[5] != 1 || m.Mat[1] != 0 {
		t.Errorf("Zero(mat4) should be the identity, got %v", m.Mat)
	}
	arr := Zero(ArrayOf(Float, 4))
	if len(arr.Elems) != 4 {
		t.Errorf("Zero(float[4]) has %d elems", len(arr.Elems))
	}
}

func TestValueGLSL(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{FloatValue(1), "1.0"},
		{FloatValue(0.5), "0.5"},
		{IntValue(3), "3"},
		{BoolValue(true), "true"},
		{VecValue(0, 0.5, 1), "vec3(0.0, 0.5, 1.0)"},
		{ArrayValue(Float, 2, FloatValue(1)), "float[2](1.0, 0.0)"},
	}
	for _, tt := range tests {
		if got := tt.in.GLSL(); got != tt.want {
			t.Errorf("GLSL(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
