package shader

import (
	"strings"
	"testing"
)

func TestStripLineComments(t *testing.T) {
	src := "float x; // trailing prose\nfloat y;"
	got := StripComments(src)
	want := "float x; \nfloat y;"
	if got != want {
		t.Errorf("StripComments() = %q, want %q", got, want)
	}
}

func TestStripKeepsDirectives(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"tagged", "//@ label=Screen order=1\nvoid shade(vec2 uv) {}"},
		{"shorthand", "//! Screen 1\nvoid shade(vec2 uv) {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripComments(tt.src)
			if got != tt.src {
				t.Errorf("StripComments() = %q, want unchanged %q", got, tt.src)
			}
		})
	}
}

func TestStripBlockCommentKeepsLineNumbers(t *testing.T) {
	src := "float a;/* one\ntwo\nthree */float b;"
	got := StripComments(src)
	want := "float a;\n\nfloat b;"
	if got != want {
		t.Errorf("StripComments() = %q, want %q", got, want)
	}
	if strings.Count(got, "\n") != strings.Count(src, "\n") {
		t.Error("newline count changed")
	}
}

func TestStripUnterminatedBlock(t *testing.T) {
	src := "float a; /* open\nnever closed"
	got := StripComments(src)
	want := "float a; \n"
	if got != want {
		t.Errorf("StripComments() = %q, want %q", got, want)
	}
}

func TestStripKeepsPreprocessorLines(t *testing.T) {
	src := "#pragma loop(4)\nfloat x;"
	if got := StripComments(src); got != src {
		t.Errorf("StripComments() = %q, want unchanged", got)
	}
}

func TestOrdinaryCommentAboveEntryIsNotMetadata(t *testing.T) {
	src := "// blends two colors\nvoid shade(vec2 uv, float a, out float r) { r = a; }"
	stripped := StripComments(src)
	if strings.Contains(stripped, "blends") {
		t.Error("ordinary comment should be stripped")
	}

	sigs := ExtractSignatures(src)
	if len(sigs) != 1 {
		t.Fatalf("got %d signatures, want 1", len(sigs))
	}
	if sigs[0].Label != "" || sigs[0].Order != 0 {
		t.Errorf("ordinary comment mistaken for metadata: label=%q order=%d", sigs[0].Label, sigs[0].Order)
	}
}
