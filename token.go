package xpath2

import (
	"strings"
	"unicode"
)

// TokenKind classifies a lexical token. Grounded on the teacher's
// XPathTokenType (xpath_parser.go) and extended per spec.md section 4.A.
type TokenKind int

const (
	TokName TokenKind = iota
	TokVariable
	TokString
	TokNumber
	TokSymbol
	TokComment
	TokEOF
)

// Token is one lexical unit. Sym is populated for TokSymbol tokens once
// the tokenizer has resolved the matched spelling against the registry.
// For TokComment, Text carries the comment's inner text (see
// scanComment); the parser is responsible for attaching it to the
// preceding expression node (exprParser.advance, ExprNode.Comment).
type Token struct {
	Kind TokenKind
	Sym  *Symbol
	Text string
	Pos  int
}

// Tokenizer produces a token stream from source text, built once from a
// Registry (spec.md section 4.A: "assembling a single ordered
// alternation of each symbol's recognition pattern"). Disambiguating
// right-context lookahead (constructors/axes requiring a following '('
// or '::') is implemented directly rather than via a single compiled
// mega-regex, since XPath keywords overlap freely with element names and
// a hand-checked lookahead is both simpler and easier to keep correct
// than threading named capture groups through a rebuilt alternation; see
// DESIGN.md.
type Tokenizer struct {
	src []rune
	pos int
	reg *Registry
}

// NewTokenizer builds a tokenizer for src using reg for symbol
// resolution. Schema-driven constructor registration rebuilds the
// registry (see types.go) and a fresh Tokenizer must be constructed
// against the updated registry, per spec.md section 4.G.
func NewTokenizer(src string, reg *Registry) *Tokenizer {
	return &Tokenizer{src: []rune(src), reg: reg}
}

func (t *Tokenizer) eof() bool { return t.pos >= len(t.src) }

func (t *Tokenizer) peekRune() rune {
	if t.eof() {
		return 0
	}
	return t.src[t.pos]
}

func (t *Tokenizer) peekAt(offset int) rune {
	if t.pos+offset >= len(t.src) {
		return 0
	}
	return t.src[t.pos+offset]
}

func (t *Tokenizer) skipSpaces() {
	for !t.eof() && unicode.IsSpace(t.peekRune()) {
		t.pos++
	}
}

// peekNonSpaceFrom returns the first non-whitespace rune at or after
// index from, without consuming input. Used for the constructor/axis
// disambiguating lookahead of spec.md section 4.A.
func (t *Tokenizer) peekNonSpaceFrom(from int) rune {
	i := from
	for i < len(t.src) && unicode.IsSpace(t.src[i]) {
		i++
	}
	if i >= len(t.src) {
		return 0
	}
	return t.src[i]
}

// followedByDoubleColon reports whether, skipping whitespace from index
// from, the next two characters are "::".
func (t *Tokenizer) followedByDoubleColon(from int) bool {
	i := from
	for i < len(t.src) && unicode.IsSpace(t.src[i]) {
		i++
	}
	return i+1 < len(t.src) && t.src[i] == ':' && t.src[i+1] == ':'
}

// consumeThroughDoubleColon skips whitespace then the "::" delimiter,
// assuming followedByDoubleColon(t.pos) was already true.
func (t *Tokenizer) consumeThroughDoubleColon() {
	t.skipSpaces()
	t.pos += 2
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}

// Next returns the next token, skipping whitespace and folding balanced
// (possibly nested) comments into a single TokComment token whose Text
// is the span between the outermost '(:' and ':)' delimiters, with
// leading and trailing whitespace trimmed.
func (t *Tokenizer) Next() (Token, error) {
	t.skipSpaces()
	if t.eof() {
		return Token{Kind: TokEOF, Pos: t.pos}, nil
	}
	start := t.pos
	r := t.peekRune()

	if r == '(' && t.peekAt(1) == ':' {
		return t.scanComment(start)
	}

	switch r {
	case '"', '\'':
		return t.scanString(start)
	}
	if unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(t.peekAt(1))) {
		return t.scanNumber(start)
	}
	if r == '$' {
		t.pos++
		t.skipSpaces()
		nstart := t.pos
		if !t.eof() && isNameStart(t.peekRune()) {
			for !t.eof() && isNameChar(t.peekRune()) {
				t.pos++
			}
		}
		name := string(t.src[nstart:t.pos])
		// allow a prefixed QName after '$'
		if !t.eof() && t.peekRune() == ':' && t.peekAt(1) != ':' {
			t.pos++
			local := t.pos
			for !t.eof() && isNameChar(t.peekRune()) {
				t.pos++
			}
			name = name + ":" + string(t.src[local:t.pos])
		}
		return Token{Kind: TokVariable, Text: name, Pos: start}, nil
	}
	if isNameStart(r) {
		return t.scanName(start)
	}
	return t.scanPunctuation(start)
}

// scanComment consumes a (possibly nested) '(:' ... ':)' comment and
// returns its inner text as a single token, per spec.md section 4.A.
func (t *Tokenizer) scanComment(start int) (Token, error) {
	t.pos += 2 // consume '(:'
	depth := 1
	inner := t.pos
	for depth > 0 {
		if t.eof() {
			return Token{}, newError(ErrXPST0003, start, "unterminated comment")
		}
		if t.peekRune() == '(' && t.peekAt(1) == ':' {
			depth++
			t.pos += 2
			continue
		}
		if t.peekRune() == ':' && t.peekAt(1) == ')' {
			depth--
			if depth == 0 {
				text := string(t.src[inner:t.pos])
				t.pos += 2
				return Token{Kind: TokComment, Text: strings.TrimSpace(text), Pos: start}, nil
			}
			t.pos += 2
			continue
		}
		t.pos++
	}
	return Token{}, newError(ErrXPST0003, start, "unterminated comment")
}

func (t *Tokenizer) scanString(start int) (Token, error) {
	quote := t.peekRune()
	t.pos++
	var sb strings.Builder
	for {
		if t.eof() {
			return Token{}, newError(ErrXPST0003, start, "unterminated string literal")
		}
		r := t.peekRune()
		if r == quote {
			t.pos++
			// doubled quote is an escaped literal quote character
			if !t.eof() && t.peekRune() == quote {
				sb.WriteRune(quote)
				t.pos++
				continue
			}
			return Token{Kind: TokString, Text: sb.String(), Pos: start}, nil
		}
		sb.WriteRune(r)
		t.pos++
	}
}

func (t *Tokenizer) scanNumber(start int) (Token, error) {
	for !t.eof() && unicode.IsDigit(t.peekRune()) {
		t.pos++
	}
	if !t.eof() && t.peekRune() == '.' && unicode.IsDigit(t.peekAt(1)) {
		t.pos++
		for !t.eof() && unicode.IsDigit(t.peekRune()) {
			t.pos++
		}
	} else if !t.eof() && t.peekRune() == '.' {
		t.pos++
	}
	if !t.eof() && (t.peekRune() == 'e' || t.peekRune() == 'E') {
		save := t.pos
		t.pos++
		if !t.eof() && (t.peekRune() == '+' || t.peekRune() == '-') {
			t.pos++
		}
		if !t.eof() && unicode.IsDigit(t.peekRune()) {
			for !t.eof() && unicode.IsDigit(t.peekRune()) {
				t.pos++
			}
		} else {
			t.pos = save
		}
	}
	return Token{Kind: TokNumber, Text: string(t.src[start:t.pos]), Pos: start}, nil
}

// axisNames lists the XPath axis spellings recognized when followed by
// '::', mirrored from the teacher's isAxis (xpath_parser.go).
var axisNames = map[string]bool{
	"child": true, "descendant": true, "parent": true, "ancestor": true,
	"following-sibling": true, "preceding-sibling": true, "following": true,
	"preceding": true, "namespace": true, "self": true,
	"descendant-or-self": true, "ancestor-or-self": true,
	"attribute": true, // multi-role: axis when followed by '::', else the attribute() kind test
}

func (t *Tokenizer) scanName(start int) (Token, error) {
	for !t.eof() && isNameChar(t.peekRune()) {
		t.pos++
	}
	name := string(t.src[start:t.pos])

	if axisNames[name] && t.followedByDoubleColon(t.pos) {
		t.consumeThroughDoubleColon()
		sym, _ := t.reg.Lookup("axis::" + name)
		return Token{Kind: TokSymbol, Sym: sym, Text: name, Pos: start}, nil
	}

	if sym, ok := t.reg.Lookup(name); ok {
		if sym.IsWord {
			return Token{Kind: TokSymbol, Sym: sym, Text: name, Pos: start}, nil
		}
		if sym.HasLabel(LabelFunction) || sym.HasLabel(LabelConstructor) || sym.HasLabel(LabelKindTest) {
			if t.peekNonSpaceFrom(t.pos) == '(' {
				return Token{Kind: TokSymbol, Sym: sym, Text: name, Pos: start}, nil
			}
		}
	}
	return Token{Kind: TokName, Text: name, Pos: start}, nil
}

// punctLiterals lists multi-character punctuation tried before their
// single-character prefixes, mirroring the teacher's explicit
// lexSlash/lexDot/lexColon/lexLessEquals-style branches extended with
// the XPath 2.0 additions ('<<', '>>', '::').
var punctLiterals = []string{
	"<<", ">>", "::", "!=", "<=", ">=", "//", "..",
	"(", ")", "[", "]", ",", "@", "|", "+", "-", "*", "=", "<", ">",
	"/", ".", ":", "?",
}

func (t *Tokenizer) scanPunctuation(start int) (Token, error) {
	for _, lit := range punctLiterals {
		n := len([]rune(lit))
		if start+n > len(t.src) {
			continue
		}
		if string(t.src[start:start+n]) == lit {
			t.pos = start + n
			sym, _ := t.reg.Lookup(lit)
			return Token{Kind: TokSymbol, Sym: sym, Text: lit, Pos: start}, nil
		}
	}
	return Token{}, newError(ErrXPST0003, start, "unexpected character %q", string(t.peekRune()))
}
