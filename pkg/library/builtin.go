package library

import "github.com/shaderflow/shaderflow/pkg/shader"

// Builtin returns the definitions shipped with the compiler. Together they
// exercise every language feature: overloads with directive metadata,
// bound values, staged chains with cross-stage references, feedback with
// pragmas, and array ports.
func Builtin() []Definition {
	return []Definition{
		{
			ID:       "constant",
			Label:    "Constant Color",
			Category: "source",
			Body: `void shade(vec2 uv, vec3 color, out vec3 result) {
    result = color;
}
`,
			Values: map[string]shader.Value{"color": shader.VecValue(1, 1, 1)},
			Tags:   []string{"source"},
		},
		{
			ID:       "gradient",
			Label:    "UV Gradient",
			Category: "source",
			Body: `void shade(vec2 uv, out vec3 color) {
    color = vec3(uv, 0.0);
}
`,
			Tags: []string{"source"},
		},
		{
			ID:       "mix",
			Label:    "Mix",
			Category: "blend",
			Body: `//@ label="Mix float" order=1
void shade(vec2 uv, float a, float b, float t, out float result) {
    result = mix(a, b, t);
}

//@ label="Mix vec3" order=0
void shade(vec2 uv, vec3 a, vec3 b, float t, out vec3 result) {
    result = mix(a, b, t);
}
`,
			Values: map[string]shader.Value{"t": shader.FloatValue(0.5)},
			Tags:   []string{"blend"},
		},
		{
			ID:       "add",
			Label:    "Add",
			Category: "math",
			Body: `//! Add 0
void shade(vec2 uv, vec3 a, vec3 b, out vec3 result) {
    result = a + b;
}

//! AddFloat 1
void shade(vec2 uv, float a, float b, out float result) {
    result = a + b;
}
`,
			Tags: []string{"math"},
		},
		{
			ID:       "threshold",
			Label:    "Threshold",
			Category: "filter",
			Body: `void shade(vec2 uv, vec3 color, float cutoff, out vec3 result) {
    float lum = dot(color, vec3(0.299, 0.587, 0.114));
    result = lum > cutoff ? color : vec3(0.0);
}
`,
			Values: map[string]shader.Value{"cutoff": shader.FloatValue(0.5)},
			Tags:   []string{"filter"},
		},
		{
			ID:       "palette",
			Label:    "Palette Pick",
			Category: "source",
			Body: `void shade(vec2 uv, vec3 colors[4], out vec3 colors_out[4], out vec3 first) {
    for (int i = 0; i < 4; i++) {
        colors_out[i] = colors[i];
    }
    first = colors[0];
}
`,
			Tags: []string{"source", "array"},
		},
		{
			ID:       "blur",
			Label:    "Two-Pass Blur",
			Category: "filter",
			Stages: []StageDef{
				{
					ID: "horizontal",
					Body: `void shade(vec2 uv, sampler2D source, float radius, out vec4 color) {
    vec4 sum = vec4(0.0);
    for (int i = -4; i <= 4; i++) {
        sum += texture(source, uv + vec2(float(i) * radius * 0.001, 0.0));
    }
    color = sum / 9.0;
}
`,
				},
				{
					ID: "vertical",
					Body: `void shade(vec2 uv, sampler2D prevPass, float radius, out vec4 color) {
    vec4 sum = vec4(0.0);
    for (int i = -4; i <= 4; i++) {
        sum += texture(prevPass, uv + vec2(0.0, float(i) * radius * 0.001));
    }
    color = sum / 9.0;
}
`,
				},
			},
			Values: map[string]shader.Value{"radius": shader.FloatValue(1)},
			Tags:   []string{"filter", "staged"},
		},
		{
			ID:       "trail",
			Label:    "Feedback Trail",
			Category: "feedback",
			Body: `#pragma persistent
#pragma clear(0.0, 0.0, 0.0, 1.0)
void shade(vec2 uv, vec4 input_color, sampler2D feedback, float decay, out vec4 result) {
    result = max(input_color, texture(feedback, uv) * decay);
}
`,
			Values: map[string]shader.Value{"decay": shader.FloatValue(0.95)},
			Tags:   []string{"feedback"},
		},
	}
}
