package compile

import (
	"testing"

	"github.com/shaderflow/shaderflow/pkg/shader"
)

func TestCastExpr(t *testing.T) {
	tests := []struct {
		from, to shader.Type
		want     string
	}{
		{shader.TFloat, shader.TFloat, "x"},
		{shader.TFloat, shader.TVec2, "vec2(x)"},
		{shader.TFloat, shader.TVec3, "vec3(x)"},
		{shader.TFloat, shader.TVec4, "vec4(vec3(x), 1.0)"},
		{shader.TFloat, shader.TBool, "(x != 0.0)"},
		{shader.TBool, shader.TFloat, "(x ? 1.0 : 0.0)"},
		{shader.TFloat, shader.TInt, "int(x)"},
		{shader.TInt, shader.TFloat, "float(x)"},
		{shader.TInt, shader.TVec3, "vec3(float(x))"},
		{shader.TVec2, shader.TFloat, "(x).x"},
		{shader.TVec2, shader.TVec3, "vec3(x, 0.0)"},
		{shader.TVec2, shader.TVec4, "vec4(x, 0.0, 1.0)"},
		{shader.TVec3, shader.TFloat, "(x).x"},
		{shader.TVec3, shader.TVec2, "(x).xy"},
		{shader.TVec3, shader.TVec4, "vec4(x, 1.0)"},
		{shader.TVec4, shader.TFloat, "(x).x"},
		{shader.TVec4, shader.TVec2, "(x).xy"},
		{shader.TVec4, shader.TVec3, "(x).xyz"},
		{shader.TMat4, shader.TVec4, "vec4(x)"}, // fallback constructor
	}
	for _, tt := range tests {
		if got := CastExpr("x", tt.from, tt.to); got != tt.want {
			t.Errorf("CastExpr(x, %v, %v) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}
