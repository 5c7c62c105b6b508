package compile

import (
	"fmt"

	"github.com/shaderflow/shaderflow/pkg/shader"
)

// CastExpr wraps expr, an expression of type from, so that it evaluates to
// type to. Equal types pass through untouched. Conversions between vector
// widths drop trailing components or pad with zeros, except that promoting
// to vec4 sets the alpha component to 1 so colors stay opaque. Unmatched
// pairs fall back to the target type's constructor.
func CastExpr(expr string, from, to shader.Type) string {
	if from.Equal(to) {
		return expr
	}
	if from.Array || to.Array {
		return fmt.Sprintf("%s(%s)", to.Kind, expr)
	}

	f, t := from.Kind, to.Kind
	if f == shader.Int {
		f = shader.Float
		expr = fmt.Sprintf("float(%s)", expr)
	}

	switch {
	case f == shader.Float && t == shader.Bool:
		return fmt.Sprintf("(%s != 0.0)", expr)
	case f == shader.Bool && t == shader.Float:
		return fmt.Sprintf("(%s ? 1.0 : 0.0)", expr)
	case f == shader.Float && t == shader.Int:
		return fmt.Sprintf("int(%s)", expr)

	case f == shader.Float && t == shader.Vec2:
		return fmt.Sprintf("vec2(%s)", expr)
	case f == shader.Float && t == shader.Vec3:
		return fmt.Sprintf("vec3(%s)", expr)
	case f == shader.Float && t == shader.Vec4:
		return fmt.Sprintf("vec4(vec3(%s), 1.0)", expr)

	case f == shader.Vec2 && t == shader.Float:
		return fmt.Sprintf("(%s).x", expr)
	case f == shader.Vec2 && t == shader.Vec3:
		return fmt.Sprintf("vec3(%s, 0.0)", expr)
	case f == shader.Vec2 && t == shader.Vec4:
		return fmt.Sprintf("vec4(%s, 0.0, 1.0)", expr)

	case f == shader.Vec3 && t == shader.Float:
		return fmt.Sprintf("(%s).x", expr)
	case f == shader.Vec3 && t == shader.Vec2:
		return fmt.Sprintf("(%s).xy", expr)
	case f == shader.Vec3 && t == shader.Vec4:
		return fmt.Sprintf("vec4(%s, 1.0)", expr)

	case f == shader.Vec4 && t == shader.Float:
		return fmt.Sprintf("(%s).x", expr)
	case f == shader.Vec4 && t == shader.Vec2:
		return fmt.Sprintf("(%s).xy", expr)
	case f == shader.Vec4 && t == shader.Vec3:
		return fmt.Sprintf("(%s).xyz", expr)
	}
	return fmt.Sprintf("%s(%s)", to.Kind, expr)
}
