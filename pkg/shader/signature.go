package shader

import (
	"sort"
	"strconv"
	"strings"
)

// Reserved names of the restricted language.
const (
	// EntryName is the one recognized entry-function name per body.
	EntryName = "shade"

	// EntryKeyword is the return keyword opening an entry declaration.
	EntryKeyword = "void"

	// CoordName is the implicit 2D coordinate parameter. It is always
	// dropped from the port list.
	CoordName = "uv"

	// FeedbackName is the reserved parameter name for a pass's own
	// previous frame.
	FeedbackName = "feedback"

	// PrevPassName references the previous stage of a multi-stage chain,
	// or the pass's own previous frame for single-body nodes.
	PrevPassName = "prevPass"

	// FirstPassName references the first stage of a multi-stage chain.
	FirstPassName = "firstPass"

	// PassRefPrefix starts a named-pass reference: pass_<stage id>.
	PassRefPrefix = "pass_"
)

// qualifiers stripped during parameter parsing. out and inout additionally
// mark the parameter as an output port.
var qualifiers = map[string]bool{
	"in": true, "out": true, "inout": true, "const": true,
	"lowp": true, "mediump": true, "highp": true,
}

// Port is one typed input or output of a node. The id is the parameter name
// from the source and is the port's identity; the type is mutable under
// inference.
type Port struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Type Type   `json:"type"`
}

// Param is one parameter of an entry-function signature, in declaration
// order. Out marks out/inout parameters.
type Param struct {
	Port
	Out bool
}

// Signature is one parsed entry-function overload.
type Signature struct {
	Params        []Param
	Label         string
	Order         int
	OriginalIndex int // position among signatures found in the body
	Coord         bool // first parameter was the reserved coordinate
}

// Inputs returns the signature's input ports in declaration order.
func (s *Signature) Inputs() []Port {
	var ports []Port
	for _, p := range s.Params {
		if !p.Out {
			ports = append(ports, p.Port)
		}
	}
	return ports
}

// Outputs returns the signature's output ports in declaration order.
func (s *Signature) Outputs() []Port {
	var ports []Port
	for _, p := range s.Params {
		if p.Out {
			ports = append(ports, p.Port)
		}
	}
	return ports
}

// DepKind classifies a cross-pass dependency reference.
type DepKind int

// Dependency reference kinds.
const (
	// DepNamed is a pass_<id> reference to a named stage.
	DepNamed DepKind = iota

	// DepFirst is a firstPass reference.
	DepFirst

	// DepPrev is a prevPass reference.
	DepPrev
)

// PassDependency is one cross-pass texture reference discovered in a body.
// Name is the identifier as written; StageID is the referenced stage id for
// named references.
type PassDependency struct {
	Name    string
	Kind    DepKind
	StageID string
}

// IO is the port interface of a node body: the default signature's ports
// minus any ports resolved as cross-pass textures at compile time.
type IO struct {
	Inputs           []Port
	Outputs          []Port
	Overloaded       bool
	Valid            bool
	PassDependencies []PassDependency
}

// ExtractSignatures parses every entry-function declaration in src into a
// signature. Unparsable parameter groups are skipped without aborting the
// scan; a body with no parsable entry function yields an empty slice.
func ExtractSignatures(src string) []Signature {
	toks := Tokenize(StripComments(src))

	var sigs []Signature
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].Kind != TokenIdent || toks[i].Text != EntryKeyword {
			continue
		}
		if toks[i+1].Kind != TokenIdent || toks[i+1].Text != EntryName {
			continue
		}
		if toks[i+2].Kind != TokenSymbol || toks[i+2].Text != "(" {
			continue
		}

		sig := Signature{OriginalIndex: len(sigs)}
		if label, order, ok := nearestDirectiveMeta(toks, i); ok {
			sig.Label = label
			sig.Order = order
		}
		parseParams(toks, i+3, &sig)
		sigs = append(sigs, sig)
	}
	return sigs
}

// nearestDirectiveMeta looks backward from token index i for the nearest
// directive token and parses it when it matches a metadata shape.
func nearestDirectiveMeta(toks []Token, i int) (string, int, bool) {
	for j := i - 1; j >= 0; j-- {
		if toks[j].Kind == TokenDirective {
			return parseDirectiveMeta(toks[j].Text)
		}
	}
	return "", 0, false
}

// parseDirectiveMeta parses the two supported metadata shapes:
//
//	//@ label="Screen blend" order=1
//	//! Screen 1
//
// Any other directive text (including preprocessor lines) is not metadata.
func parseDirectiveMeta(text string) (label string, order int, ok bool) {
	switch {
	case strings.HasPrefix(text, markerTagged):
		for _, field := range splitQuoted(strings.TrimSpace(text[len(markerTagged):])) {
			key, val, found := strings.Cut(field, "=")
			if !found {
				continue
			}
			val = strings.Trim(val, `"`)
			switch key {
			case "label":
				label = val
			case "order":
				if n, err := strconv.Atoi(val); err == nil {
					order = n
				}
			}
		}
		return label, order, true

	case strings.HasPrefix(text, markerShorthand):
		fields := strings.Fields(text[len(markerShorthand):])
		if len(fields) == 0 {
			return "", 0, false
		}
		label = fields[0]
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				order = n
			}
		}
		return label, order, true
	}
	return "", 0, false
}

// splitQuoted splits on spaces while keeping double-quoted spans intact.
func splitQuoted(s string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ' ' && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

// parseParams consumes comma-separated parameter groups starting at token
// index start (just past the open paren) up to the matching close paren.
func parseParams(toks []Token, start int, sig *Signature) {
	depth := 1
	var group []Token
	groupIndex := 0

	flush := func() {
		defer func() { group = group[:0]; groupIndex++ }()
		param, ok := parseParamGroup(group)
		if !ok {
			return
		}
		if param.ID == CoordName {
			if groupIndex == 0 {
				sig.Coord = true
			}
			return
		}
		sig.Params = append(sig.Params, param)
	}

	for i := start; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == TokenSymbol {
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
				if depth == 0 {
					flush()
					return
				}
			case ",":
				if depth == 1 {
					flush()
					continue
				}
			}
		}
		group = append(group, t)
	}
}

// parseParamGroup parses one parameter group: qualifiers, a recognized type
// name, the parameter id, and an optional array suffix. Returns false for
// groups that do not match this shape.
func parseParamGroup(toks []Token) (Param, bool) {
	var param Param
	var typeSeen bool
	var arraySuffix bool
	var arrayCap int
	inBracket := false

	for _, t := range toks {
		switch t.Kind {
		case TokenSymbol:
			switch t.Text {
			case "[":
				inBracket = true
				arraySuffix = true
			case "]":
				inBracket = false
			}
		case TokenNumber:
			if inBracket {
				if n, err := strconv.Atoi(t.Text); err == nil {
					arrayCap = n
				}
			}
		case TokenIdent:
			if inBracket {
				continue
			}
			if qualifiers[t.Text] {
				if t.Text == "out" || t.Text == "inout" {
					param.Out = true
				}
				continue
			}
			if !typeSeen {
				if k, ok := ParseKind(t.Text); ok {
					param.Type = Type{Kind: k}
					typeSeen = true
					continue
				}
				// Unknown word before the type: tolerate and move on.
				continue
			}
			param.ID = t.Text
		}
	}

	if !typeSeen || param.ID == "" {
		return Param{}, false
	}
	if arraySuffix {
		// Arrays are limited to scalar and vector element types.
		switch param.Type.Kind {
		case Float, Int, Vec2, Vec3, Vec4:
			param.Type = ArrayOf(param.Type.Kind, arrayCap)
		default:
			return Param{}, false
		}
	}
	param.Name = param.ID
	return param, true
}

// DefaultSignature selects the overload used when no connection-driven
// choice applies: the signature with the lowest (order, original index).
// Returns false when sigs is empty.
func DefaultSignature(sigs []Signature) (Signature, bool) {
	if len(sigs) == 0 {
		return Signature{}, false
	}
	sorted := make([]Signature, len(sigs))
	copy(sorted, sigs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].OriginalIndex < sorted[j].OriginalIndex
	})
	return sorted[0], true
}

// ScanPassDependencies scans the whole body for the three cross-pass
// reference patterns. Duplicate references are reported once.
func ScanPassDependencies(src string) []PassDependency {
	var deps []PassDependency
	seen := make(map[string]bool)
	for _, t := range Tokenize(StripComments(src)) {
		if t.Kind != TokenIdent || seen[t.Text] {
			continue
		}
		switch {
		case t.Text == PrevPassName:
			deps = append(deps, PassDependency{Name: t.Text, Kind: DepPrev})
		case t.Text == FirstPassName:
			deps = append(deps, PassDependency{Name: t.Text, Kind: DepFirst})
		case strings.HasPrefix(t.Text, PassRefPrefix) && len(t.Text) > len(PassRefPrefix):
			deps = append(deps, PassDependency{
				Name:    t.Text,
				Kind:    DepNamed,
				StageID: t.Text[len(PassRefPrefix):],
			})
		default:
			continue
		}
		seen[t.Text] = true
	}
	return deps
}

// ExtractIO returns the port interface of a body: the default signature's
// ports with dependency-named and reserved-feedback ports removed, plus the
// discovered pass dependencies.
//
// When no entry function parses, the result is the documented fallback
// shape: no inputs, one vec4 output named "result", Valid false.
func ExtractIO(src string) IO {
	sigs := ExtractSignatures(src)
	deps := ScanPassDependencies(src)

	def, ok := DefaultSignature(sigs)
	if !ok {
		return IO{
			Outputs:          []Port{{ID: "result", Name: "result", Type: TVec4}},
			PassDependencies: deps,
		}
	}

	depNames := map[string]bool{FeedbackName: true}
	for _, d := range deps {
		depNames[d.Name] = true
	}

	io := IO{
		Valid:            true,
		Overloaded:       len(sigs) > 1,
		PassDependencies: deps,
	}
	for _, p := range def.Inputs() {
		if depNames[p.ID] {
			continue
		}
		io.Inputs = append(io.Inputs, p)
	}
	io.Outputs = def.Outputs()
	return io
}
