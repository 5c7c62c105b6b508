package compile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shaderflow/shaderflow/pkg/shader"
)

// =============================================================================
// Scoped Naming
// =============================================================================

// namer hands out identifiers that are unique within one generated program.
// A taken base name gets a numeric suffix.
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool)}
}

func (nm *namer) Unique(base string) string {
	name := base
	for i := 2; nm.used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	nm.used[name] = true
	return name
}

// sanitizeIdent maps an arbitrary id to a valid identifier fragment. A
// leading digit and every character outside [A-Za-z0-9_] become underscores.
func sanitizeIdent(s string) string {
	if s == "" {
		return "n"
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			b.WriteByte(c)
		case c >= '0' && c <= '9' && i > 0:
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// =============================================================================
// Body Rewriting
// =============================================================================

// edit is one byte-range replacement against the stripped source.
type edit struct {
	start, end int
	text       string
}

// renameBody rewrites a node body for inclusion in a generated program:
//
//   - the entry function and every top-level declaration get a _<scope>
//     suffix, so bodies from different nodes never collide;
//   - array parameters of the entry function are re-declared at the
//     capacity the caller resolved for the port (caps maps port id to
//     capacity);
//   - metadata comments and pragma lines are removed.
//
// Rewriting splices replacement text at token byte offsets; everything the
// lexer does not recognize passes through untouched.
func renameBody(body, scope string, caps map[string]int) string {
	src := shader.StripComments(body)
	toks := shader.Tokenize(src)

	rename := map[string]string{
		shader.EntryName: shader.EntryName + "_" + scope,
	}
	for name := range topLevelDecls(toks) {
		rename[name] = name + "_" + scope
	}

	params := entryParamRanges(toks)

	var edits []edit
	for i, t := range toks {
		switch t.Kind {
		case shader.TokenDirective:
			if dropDirective(t.Text) {
				edits = append(edits, edit{t.Pos, t.End(), ""})
			}
		case shader.TokenIdent:
			if to, ok := rename[t.Text]; ok {
				edits = append(edits, edit{t.Pos, t.End(), to})
				continue
			}
			if cap, ok := caps[t.Text]; ok && inRanges(params, i) {
				if e, ok := capacityEdit(toks, i, cap); ok {
					edits = append(edits, e)
				}
			}
		}
	}
	return applyEdits(src, edits)
}

// topLevelDecls returns the names declared at the top level of the body:
// helper functions plus global variables and constants. The entry function
// itself is excluded; it is renamed separately.
func topLevelDecls(toks []shader.Token) map[string]bool {
	decls := make(map[string]bool)
	brace, paren := 0, 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == shader.TokenSymbol {
			switch t.Text {
			case "{":
				brace++
			case "}":
				if brace > 0 {
					brace--
				}
			case "(":
				paren++
			case ")":
				if paren > 0 {
					paren--
				}
			}
			continue
		}
		if brace != 0 || paren != 0 || t.Kind != shader.TokenIdent {
			continue
		}
		if !isDeclTypeWord(t.Text) {
			continue
		}
		j := i + 1
		if j >= len(toks) || toks[j].Kind != shader.TokenIdent {
			continue
		}
		name := toks[j].Text
		k := j + 1
		if k >= len(toks) || toks[k].Kind != shader.TokenSymbol {
			continue
		}
		switch toks[k].Text {
		case "(":
			if name != shader.EntryName {
				decls[name] = true
			}
		case "=", ";", "[":
			decls[name] = true
		}
	}
	return decls
}

func isDeclTypeWord(s string) bool {
	if s == shader.EntryKeyword {
		return true
	}
	_, ok := shader.ParseKind(s)
	return ok
}

// entryParamRanges returns the token index ranges covering the parameter
// lists of every entry-function declaration.
func entryParamRanges(toks []shader.Token) [][2]int {
	var ranges [][2]int
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].Kind != shader.TokenIdent || toks[i].Text != shader.EntryKeyword {
			continue
		}
		if toks[i+1].Kind != shader.TokenIdent || toks[i+1].Text != shader.EntryName {
			continue
		}
		if toks[i+2].Kind != shader.TokenSymbol || toks[i+2].Text != "(" {
			continue
		}
		depth := 1
		j := i + 3
		for ; j < len(toks) && depth > 0; j++ {
			if toks[j].Kind != shader.TokenSymbol {
				continue
			}
			switch toks[j].Text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}
		ranges = append(ranges, [2]int{i + 3, j})
	}
	return ranges
}

func inRanges(ranges [][2]int, i int) bool {
	for _, r := range ranges {
		if i >= r[0] && i < r[1] {
			return true
		}
	}
	return false
}

// capacityEdit rewrites the array suffix following the parameter name at
// token index i to the resolved capacity: "[]" gains the number, "[n]" has
// it replaced.
func capacityEdit(toks []shader.Token, i, cap int) (edit, bool) {
	if i+2 >= len(toks) || !symbolAt(toks, i+1, "[") {
		return edit{}, false
	}
	if symbolAt(toks, i+2, "]") {
		pos := toks[i+2].Pos
		return edit{pos, pos, strconv.Itoa(cap)}, true
	}
	if toks[i+2].Kind == shader.TokenNumber && symbolAt(toks, i+3, "]") {
		return edit{toks[i+2].Pos, toks[i+2].End(), strconv.Itoa(cap)}, true
	}
	return edit{}, false
}

func symbolAt(toks []shader.Token, i int, text string) bool {
	return i < len(toks) && toks[i].Kind == shader.TokenSymbol && toks[i].Text == text
}

// dropDirective reports whether a directive line is compiler metadata that
// must not reach the generated program. Other preprocessor lines pass
// through.
func dropDirective(text string) bool {
	return strings.HasPrefix(text, "//@") ||
		strings.HasPrefix(text, "//!") ||
		strings.HasPrefix(text, "#pragma")
}

func applyEdits(src string, edits []edit) string {
	if len(edits) == 0 {
		return src
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		b.WriteString(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(src[pos:])
	return b.String()
}
