package compile

import (
	"strings"
	"testing"
)

func TestRenameBodyScopesDeclarations(t *testing.T) {
	body := `
const float PI = 3.14159;
float wave(float x) { return sin(x * PI); }
void shade(vec2 uv, float freq, out float r) {
    r = wave(uv.x * freq);
}
`
	out := renameBody(body, "osc", nil)

	for _, want := range []string{
		"float PI_osc = 3.14159",
		"float wave_osc(float x)",
		"sin(x * PI_osc)",
		"void shade_osc(vec2 uv, float freq, out float r)",
		"r = wave_osc(uv.x * freq)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renamed body missing %q:\n%s", want, out)
		}
	}
	// Parameters and locals keep their names.
	if strings.Contains(out, "freq_osc") || strings.Contains(out, "x_osc") {
		t.Errorf("parameter wrongly renamed:\n%s", out)
	}
}

func TestRenameBodyArrayCapacity(t *testing.T) {
	body := `void shade(vec2 uv, float weights[4], vec3 colors[], out float r) { r = weights[0]; }`
	out := renameBody(body, "n", map[string]int{"weights": 6, "colors": 3})

	if !strings.Contains(out, "float weights[6]") {
		t.Errorf("sized array not rewritten:\n%s", out)
	}
	if !strings.Contains(out, "vec3 colors[3]") {
		t.Errorf("unsized array not rewritten:\n%s", out)
	}
	// Body-side indexing is untouched.
	if !strings.Contains(out, "r = weights[0]") {
		t.Errorf("body indexing changed:\n%s", out)
	}
}

func TestRenameBodyDropsDirectives(t *testing.T) {
	body := `//@ label="Trail" order=1
#pragma persistent
#pragma clear(0.0, 0.0, 0.0)
void shade(vec2 uv, out vec4 c) { c = vec4(uv, 0.0, 1.0); }
`
	out := renameBody(body, "s", nil)
	for _, gone := range []string{"//@", "#pragma", "label="} {
		if strings.Contains(out, gone) {
			t.Errorf("directive %q leaked into generated source:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, "shade_s") {
		t.Errorf("entry not renamed:\n%s", out)
	}
}

func TestNamerUnique(t *testing.T) {
	nm := newNamer()
	if got := nm.Unique("blur"); got != "blur" {
		t.Errorf("first = %q, want blur", got)
	}
	if got := nm.Unique("blur"); got != "blur_2" {
		t.Errorf("second = %q, want blur_2", got)
	}
	if got := nm.Unique("blur"); got != "blur_3" {
		t.Errorf("third = %q, want blur_3", got)
	}
}

func TestSanitizeIdent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mix", "mix"},
		{"9lives", "_lives"},
		{"a-b.c", "a_b_c"},
		{"", "n"},
	}
	for _, tt := range tests {
		if got := sanitizeIdent(tt.in); got != tt.want {
			t.Errorf("sanitizeIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
