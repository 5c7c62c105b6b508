package shader

import "testing"

func TestScanPragmas(t *testing.T) {
	src := `#pragma persistent
#pragma clear(0.1, 0.2, 0.3, 1.0)
#pragma loop(6)
void shade(vec2 uv, sampler2D feedback, out vec4 c) { c = texture(feedback, uv); }`

	p := ScanPragmas(src)
	if !p.Persistent {
		t.Error("Persistent should be true")
	}
	if !p.HasClear {
		t.Fatal("HasClear should be true")
	}
	if p.Clear != [4]float64{0.1, 0.2, 0.3, 1.0} {
		t.Errorf("Clear = %v", p.Clear)
	}
	if p.Loop != 6 {
		t.Errorf("Loop = %d, want 6", p.Loop)
	}
}

func TestScanPragmasDefaults(t *testing.T) {
	p := ScanPragmas("void shade(vec2 uv, out vec4 c) { c = vec4(uv, 0.0, 1.0); }")
	if p.Persistent || p.HasClear || p.Loop != 0 {
		t.Errorf("unexpected pragmas: %+v", p)
	}
}

func TestScanPragmasMalformed(t *testing.T) {
	p := ScanPragmas("#pragma loop(abc)\n#pragma clear(1, 2, 3, 4, 5)")
	if p.Loop != 0 {
		t.Errorf("malformed loop should be ignored, got %d", p.Loop)
	}
	if p.HasClear {
		t.Error("clear with too many arguments should be ignored")
	}
}

func TestScanPragmasShortClear(t *testing.T) {
	p := ScanPragmas("#pragma clear(0.5)")
	if !p.HasClear {
		t.Fatal("HasClear should be true")
	}
	if p.Clear != [4]float64{0.5, 0, 0, 1} {
		t.Errorf("Clear = %v, want alpha defaulted to 1", p.Clear)
	}
}
