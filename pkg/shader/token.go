package shader

// TokenKind classifies a lexed token.
type TokenKind int

// Token kinds emitted by Tokenize.
const (
	// TokenIdent is an identifier or keyword.
	TokenIdent TokenKind = iota

	// TokenNumber is a numeric literal.
	TokenNumber

	// TokenSymbol is a single-character symbol: ( ) , ; { } [ ] =.
	TokenSymbol

	// TokenDirective is an entire preserved metadata or preprocessor line
	// lexed as one token.
	TokenDirective
)

// Token is one lexed token. Pos is the byte offset of the token's first
// character in the source passed to Tokenize, so callers can splice
// replacement text back into the original.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// End returns the byte offset just past the token's last character.
func (t Token) End() int { return t.Pos + len(t.Text) }

// Tokenize lexes src into identifier, number, symbol, and directive tokens.
// Whitespace, operators, and ordinary comments are discarded; a metadata
// comment or preprocessor line becomes a single directive token. Tokenize
// accepts raw or pre-stripped source.
func Tokenize(src string) []Token {
	toks := make([]Token, 0, len(src)/6+8)

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := lineEnd(src, i)
			if isDirectiveComment(src[i:end]) {
				toks = append(toks, Token{Kind: TokenDirective, Text: src[i:end], Pos: i})
			}
			i = end

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2

		case c == '#':
			end := lineEnd(src, i)
			toks = append(toks, Token{Kind: TokenDirective, Text: src[i:end], Pos: i})
			i = end

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, Token{Kind: TokenIdent, Text: src[start:i], Pos: start})

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, Token{Kind: TokenNumber, Text: src[start:i], Pos: start})

		case isSymbol(c):
			toks = append(toks, Token{Kind: TokenSymbol, Text: string(c), Pos: i})
			i++

		default:
			// Operators and anything else are irrelevant to signature
			// scanning and renaming.
			i++
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSymbol(c byte) bool {
	switch c {
	case '(', ')', ',', ';', '{', '}', '[', ']', '=':
		return true
	}
	return false
}
