package shader

import "strings"

// Directive comment markers. Line comments starting with one of these are
// metadata, not prose, and survive comment stripping verbatim.
const (
	markerTagged    = "//@"
	markerShorthand = "//!"
)

// StripComments removes // line comments and /* */ block comments from src.
//
// Two exceptions keep later passes working on the stripped text:
//   - a line comment matching either directive shape (//@ or //!) is kept
//     verbatim, including its marker, so overload metadata can be recovered;
//   - a block comment is replaced by its embedded newlines, so line numbers
//     in the stripped text match the original.
//
// Preprocessor lines (leading #) are not comments and pass through untouched.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	i := 0
	for i < len(src) {
		if src[i] == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '/':
				end := lineEnd(src, i)
				if isDirectiveComment(src[i:end]) {
					b.WriteString(src[i:end])
				}
				i = end
				continue
			case '*':
				j := strings.Index(src[i+2:], "*/")
				if j < 0 {
					// Unterminated block comment: drop the rest,
					// keeping its newlines.
					writeNewlines(&b, src[i:])
					i = len(src)
					continue
				}
				writeNewlines(&b, src[i:i+2+j+2])
				i += 2 + j + 2
				continue
			}
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String()
}

// isDirectiveComment reports whether a line comment is one of the two
// supported metadata shapes.
func isDirectiveComment(comment string) bool {
	return strings.HasPrefix(comment, markerTagged) || strings.HasPrefix(comment, markerShorthand)
}

// lineEnd returns the index just before the newline terminating the line
// starting at or containing position i.
func lineEnd(src string, i int) int {
	if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j
	}
	return len(src)
}

func writeNewlines(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			b.WriteByte('\n')
		}
	}
}
