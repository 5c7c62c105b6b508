// Package shader implements the restricted shading sub-language that node
// bodies are written in: a comment stripper, a small lexer, the type and
// value model shared by inference and code generation, and the signature
// extractor that turns entry-function declarations into typed ports.
//
// # The language
//
// A node body is a GLSL-flavored fragment snippet declaring one or more
// overloads of the entry function:
//
//	void shade(vec2 uv, float a, float b, out float sum) {
//	    sum = a + b;
//	}
//
// The first parameter is always the reserved 2D coordinate and is never
// exposed as a port. Parameters with an out or inout qualifier are output
// ports; everything else is an input port. Recognized types are float, int,
// bool, vec2, vec3, vec4, mat4, sampler2D, and arrays of the scalar and
// vector types via a trailing [] or name[N] suffix.
//
// Two comment-embedded directive shapes carry overload metadata and survive
// comment stripping verbatim:
//
//	//@ label="Screen blend" order=1
//	//! Screen 1
//
// Three reserved parameter naming patterns request cross-pass textures and
// are resolved at compile time rather than exposed as ports: pass_<id>,
// firstPass, and prevPass. The name feedback is reserved for a pass's own
// previous frame.
//
// # Parsing approach
//
// The grammar is intentionally tiny (qualifiers + type + identifier +
// optional array suffix, repeated), so the package uses a hand-rolled
// single-pass lexer and a pattern scan over the token stream instead of a
// general parser. Tokens carry byte offsets into the source so the compiler
// can splice renamed identifiers back into the original text.
package shader
