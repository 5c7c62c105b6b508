package shader

import "testing"

func TestTokenizeSymbols(t *testing.T) {
	toks := Tokenize("shade(a, b[2]); { }")

	var symbols []string
	for _, tok := range toks {
		if tok.Kind == TokenSymbol {
			symbols = append(symbols, tok.Text)
		}
	}
	want := []string{"(", ",", "[", "]", ")", ";", "{", "}"}
	if len(symbols) != len(want) {
		t.Fatalf("got symbols %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbol[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestTokenizeAssignmentIsSymbol(t *testing.T) {
	// Initialized declarations must expose the = so the renamer can spot
	// top-level constants like "const float K = 1.0;".
	toks := Tokenize("const float K = 1.0;")

	var kinds []TokenKind
	var texts []string
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
	}
	wantKinds := []TokenKind{TokenIdent, TokenIdent, TokenIdent, TokenSymbol, TokenNumber, TokenSymbol}
	wantTexts := []string{"const", "float", "K", "=", "1.0", ";"}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got tokens %v, want %v", texts, wantTexts)
	}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] || texts[i] != wantTexts[i] {
			t.Errorf("token[%d] = (%d, %q), want (%d, %q)", i, kinds[i], texts[i], wantKinds[i], wantTexts[i])
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	src := "x = y;"
	toks := Tokenize(src)
	for _, tok := range toks {
		if src[tok.Pos:tok.End()] != tok.Text {
			t.Errorf("token %q does not match source range [%d:%d]", tok.Text, tok.Pos, tok.End())
		}
	}
}
