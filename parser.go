package xpath2

import "strconv"

// Binding powers, ordered low-to-high to match the XPath 2.0 grammar's
// precedence cascade (Expr > OrExpr > AndExpr > ComparisonExpr >
// RangeExpr > AdditiveExpr > MultiplicativeExpr > UnionExpr >
// IntersectExceptExpr > InstanceofExpr > TreatExpr > CastableExpr >
// CastExpr > UnaryExpr > PathExpr), per spec.md section 4.C.
const (
	bpComma      = 5
	bpOr         = 10
	bpAnd        = 15
	bpComparison = 20
	bpTo         = 25
	bpAdditive   = 30
	bpMultiplicative = 35
	bpUnion      = 40
	bpIntersect  = 45
	bpInstanceOf = 50
	bpTreatAs    = 55
	bpCastableAs = 60
	bpCastAs     = 65
	bpUnary      = 70
	bpPath       = 75
	bpPredicate  = 80
)

// exprParser drives the Pratt (nud/led) expression parser over a token
// stream, dispatching through the symbol Registry it was built with.
// Grounded on spec.md section 4.C and the teacher's recursive-descent
// xpathParser (xpath_parser.go), reworked into a table-driven
// top-down-operator-precedence parser as the spec requires.
type exprParser struct {
	tok    *Tokenizer
	cur    Token
	reg    *Registry
	Static *StaticContext

	// pendingComment holds the text of a TokComment consumed by the most
	// recent advance() call, i.e. the comment text found between the
	// token just left behind and the new p.cur. expression() attaches
	// it to the node built from the token it trails, per spec.md
	// section 3's "optional attached comment".
	pendingComment string
}

// Parse compiles src into an expression tree using reg for symbol
// resolution and static for namespace/variable/schema lookups, per
// spec.md section 4.C's top-level entry point.
func Parse(src string, reg *Registry, static *StaticContext) (*ExprNode, error) {
	p := &exprParser{tok: NewTokenizer(src, reg), reg: reg, Static: static}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != TokEOF {
		return nil, newError(ErrXPST0003, p.cur.Pos, "unexpected trailing token %q", p.cur.Text)
	}
	return expr, nil
}

func (p *exprParser) advance() error {
	p.pendingComment = ""
	for {
		tok, err := p.tok.Next()
		if err != nil {
			return err
		}
		if tok.Kind == TokComment {
			p.pendingComment = tok.Text
			continue
		}
		p.cur = tok
		return nil
	}
}

// takePendingComment returns and clears the comment text accumulated by
// the most recent advance() call.
func (p *exprParser) takePendingComment() string {
	c := p.pendingComment
	p.pendingComment = ""
	return c
}

// expression is the core Pratt loop: parse one nud, then keep extending
// it with leds whose binding power exceeds rbp.
func (p *exprParser) expression(rbp int) (*ExprNode, error) {
	t := p.cur
	if t.Kind == TokEOF {
		return nil, newError(ErrXPST0003, t.Pos, "unexpected end of expression")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	comment := p.takePendingComment()
	left, err := p.dispatchNud(t)
	if err != nil {
		return nil, err
	}
	left.Comment = comment
	for rbp < p.lbp(p.cur) {
		t2 := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		comment2 := p.takePendingComment()
		left, err = p.dispatchLed(t2, left)
		if err != nil {
			return nil, err
		}
		left.Comment = comment2
	}
	return left, nil
}

func (p *exprParser) lbp(tok Token) int {
	if tok.Kind != TokSymbol || tok.Sym == nil {
		return 0
	}
	return tok.Sym.Lbp
}

func (p *exprParser) dispatchNud(t Token) (*ExprNode, error) {
	switch t.Kind {
	case TokString:
		return &ExprNode{Op: "literal", Pos: t.Pos, Lit: NewString(t.Text)}, nil
	case TokNumber:
		return nudNumberLiteral(t)
	case TokVariable:
		return p.nudVariableRef(t)
	case TokName:
		return p.nudNameStep(t)
	case TokSymbol:
		if t.Sym == nil || t.Sym.Nud == nil {
			// XPath keywords are not reserved words: 'div', 'union', 'to'
			// and friends are legal element names when they open a step.
			if isNameLikeToken(t) {
				return p.nudNameStep(t)
			}
			return nil, newError(ErrXPST0003, t.Pos, "unexpected token %q", t.Text)
		}
		return t.Sym.Nud(p)
	default:
		return nil, newError(ErrXPST0003, t.Pos, "unexpected end of expression")
	}
}

func (p *exprParser) dispatchLed(t Token, left *ExprNode) (*ExprNode, error) {
	if t.Kind != TokSymbol || t.Sym == nil || t.Sym.Led == nil {
		return nil, newError(ErrXPST0003, t.Pos, "unexpected token %q", t.Text)
	}
	return t.Sym.Led(p, left)
}

// expect consumes the current token if it is the symbol literal lit,
// otherwise reports a static syntax error.
func (p *exprParser) expect(lit string) error {
	if p.cur.Kind != TokSymbol || p.cur.Text != lit {
		return newError(ErrXPST0003, p.cur.Pos, "expected %q, found %q", lit, p.cur.Text)
	}
	return p.advance()
}

func (p *exprParser) curIs(lit string) bool {
	return p.cur.Kind == TokSymbol && p.cur.Text == lit
}

// isNameLikeToken reports whether t can serve as the local part of a
// QName. A registered keyword/function name ("string", "QName", "if")
// tokenizes as TokSymbol when its lookahead fires, but after a "prefix:"
// it is still just a local name — "xs:string(...)" must parse as a
// constructor call, not fail on an unexpected symbol.
func isNameLikeToken(t Token) bool {
	if t.Kind == TokName {
		return true
	}
	if t.Kind != TokSymbol || t.Text == "" {
		return false
	}
	return isNameStart(rune(t.Text[0]))
}

func nudNumberLiteral(t Token) (*ExprNode, error) {
	text := t.Text
	isDouble := false
	isDecimal := false
	for _, r := range text {
		switch r {
		case 'e', 'E':
			isDouble = true
		case '.':
			isDecimal = true
		}
	}
	switch {
	case isDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, newError(ErrXPST0003, t.Pos, "invalid numeric literal %q", text)
		}
		return &ExprNode{Op: "literal", Pos: t.Pos, Lit: Atomic{Type: TypeDouble, Num: f}}, nil
	case isDecimal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, newError(ErrXPST0003, t.Pos, "invalid numeric literal %q", text)
		}
		return &ExprNode{Op: "literal", Pos: t.Pos, Lit: Atomic{Type: TypeDecimal, Num: f}}, nil
	default:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, newError(ErrXPST0003, t.Pos, "invalid numeric literal %q", text)
		}
		return &ExprNode{Op: "literal", Pos: t.Pos, Lit: Atomic{Type: TypeInteger, Int: i}}, nil
	}
}

func (p *exprParser) nudVariableRef(t Token) (*ExprNode, error) {
	qn, err := p.Static.ResolveQName(t.Text)
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "variable", Pos: t.Pos, VarName: qn}, nil
}

// parseNodeNameOrWildcard builds a NameTest from the NCName/QName/
// wildcard grammar (NCName | NCName ":" NCName | NCName ":" "*" |
// "*" ":" NCName | "*"), per spec.md section 4.C's NodeTest production.
func (p *exprParser) parseNodeNameOrWildcard(firstText string, firstIsStar bool) (*NameTest, error) {
	if firstIsStar {
		if p.curIs(":") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Kind != TokName {
				return nil, newError(ErrXPST0003, p.cur.Pos, "expected a local name after '*:'")
			}
			local := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &NameTest{AnyURI: true, Local: local}, nil
		}
		return &NameTest{AnyURI: true, AnyLocal: true}, nil
	}
	if p.curIs(":") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == TokSymbol && p.cur.Text == "*" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			uri, err := p.Static.ResolveNamespace(firstText)
			if err != nil {
				return nil, err
			}
			return &NameTest{URI: uri, AnyLocal: true, RawPrefix: firstText}, nil
		}
		if !isNameLikeToken(p.cur) {
			return nil, newError(ErrXPST0003, p.cur.Pos, "expected a local name after '%s:'", firstText)
		}
		local := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		uri, err := p.Static.ResolveNamespace(firstText)
		if err != nil {
			return nil, err
		}
		return &NameTest{URI: uri, Local: local, RawPrefix: firstText}, nil
	}
	return &NameTest{Local: firstText}, nil
}

// parseNodeTest parses the NodeTest that follows an axis (or the
// default child axis), reusing a node-test or kind-test symbol's own
// Nud when the test is a kind test.
func (p *exprParser) parseNodeTest() (*ExprNode, error) {
	t := p.cur
	switch {
	case t.Kind == TokName:
		if err := p.advance(); err != nil {
			return nil, err
		}
		nt, err := p.parseNodeNameOrWildcard(t.Text, false)
		if err != nil {
			return nil, err
		}
		return &ExprNode{Op: "name-test", Pos: t.Pos, NT: nt}, nil
	case t.Kind == TokSymbol && t.Text == "*":
		if err := p.advance(); err != nil {
			return nil, err
		}
		nt, err := p.parseNodeNameOrWildcard("*", true)
		if err != nil {
			return nil, err
		}
		return &ExprNode{Op: "name-test", Pos: t.Pos, NT: nt}, nil
	case t.Kind == TokSymbol && t.Sym != nil && (t.Sym.HasLabel(LabelKindTest) || t.Sym.HasLabel(LabelFunction)) && t.Sym.Nud != nil:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return t.Sym.Nud(p)
	case t.Kind == TokSymbol && t.Sym != nil && t.Sym.Nud == nil && isNameLikeToken(t):
		// keyword spelling used as an element name, e.g. child::union
		if err := p.advance(); err != nil {
			return nil, err
		}
		nt, err := p.parseNodeNameOrWildcard(t.Text, false)
		if err != nil {
			return nil, err
		}
		return &ExprNode{Op: "name-test", Pos: t.Pos, NT: nt}, nil
	}
	return nil, newError(ErrXPST0003, t.Pos, "expected a node test, found %q", t.Text)
}

// nudNameStep parses a bare or qualified name starting an expression. Per
// XPath 2.0's function-call disambiguation rule, a QName immediately
// followed by '(' is a function call (covers both prefixed constructor
// calls like xs:integer(...) and plain function calls whose name was not
// pre-registered as a symbol), never a NameTest.
func (p *exprParser) nudNameStep(t Token) (*ExprNode, error) {
	nt, err := p.parseNodeNameOrWildcard(t.Text, false)
	if err != nil {
		return nil, err
	}
	if !nt.AnyLocal && !nt.AnyURI && p.curIs("(") {
		qn := QName{URI: nt.URI, Local: nt.Local, Prefix: nt.RawPrefix}
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		return p.foldConstructor(&ExprNode{Op: "call", Pos: t.Pos, FuncName: qn.String(), TypeName: qn, Children: args})
	}
	return &ExprNode{Op: "step", Pos: t.Pos, Axis: "child", Children: []*ExprNode{{Op: "name-test", Pos: t.Pos, NT: nt}}}, nil
}

func nudWildcardStep(p *exprParser) (*ExprNode, error) {
	nt, err := p.parseNodeNameOrWildcard("*", true)
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "step", Axis: "child", Children: []*ExprNode{{Op: "name-test", NT: nt}}}, nil
}

func ledMultiplyOrWildcard(op string) LedFunc {
	return func(p *exprParser, left *ExprNode) (*ExprNode, error) {
		right, err := p.expression(bpMultiplicative)
		if err != nil {
			return nil, err
		}
		return newNode(op, left.Pos, left, right), nil
	}
}

// nudAxis builds the Nud for an explicit "axis::" token.
func nudAxis(axisName string) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		test, err := p.parseNodeTest()
		if err != nil {
			return nil, err
		}
		return &ExprNode{Op: "step", Axis: axisName, Children: []*ExprNode{test}}, nil
	}
}

// nudAttributeShorthand implements the '@' abbreviation for attribute::.
func nudAttributeShorthand(p *exprParser) (*ExprNode, error) {
	test, err := p.parseNodeTest()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "step", Axis: "attribute", Children: []*ExprNode{test}}, nil
}

func nudKindTest(kind NodeKind, op string) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		pos := p.cur.Pos
		if err := p.expect("("); err != nil {
			return nil, err
		}
		var args []*ExprNode
		for !p.curIs(")") {
			if len(args) > 0 {
				if err := p.expect(","); err != nil {
					return nil, err
				}
			}
			if p.cur.Kind == TokString {
				// processing-instruction('target')
				args = append(args, &ExprNode{Op: "literal", Pos: p.cur.Pos, Lit: NewString(p.cur.Text)})
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			if p.cur.Kind == TokSymbol && p.cur.Sym != nil && p.cur.Sym.HasLabel(LabelKindTest) && p.cur.Sym.Nud != nil {
				// document-node(element(...))
				inner := p.cur
				if err := p.advance(); err != nil {
					return nil, err
				}
				nested, err := inner.Sym.Nud(p)
				if err != nil {
					return nil, err
				}
				args = append(args, nested)
				continue
			}
			if p.cur.Kind == TokName || (p.cur.Kind == TokSymbol && p.cur.Sym != nil && p.cur.Sym.Nud == nil && isNameLikeToken(p.cur)) {
				lexical := p.cur.Text
				argPos := p.cur.Pos
				if err := p.advance(); err != nil {
					return nil, err
				}
				if p.curIs(":") {
					if err := p.advance(); err != nil {
						return nil, err
					}
					if !isNameLikeToken(p.cur) {
						return nil, newError(ErrXPST0003, p.cur.Pos, "expected a local name after '%s:'", lexical)
					}
					lexical = lexical + ":" + p.cur.Text
					if err := p.advance(); err != nil {
						return nil, err
					}
				}
				qn, err := p.Static.ResolveQName(lexical)
				if err != nil {
					return nil, err
				}
				args = append(args, &ExprNode{Op: "type-name", TypeName: qn, Pos: argPos})
				continue
			}
			if p.curIs("*") {
				args = append(args, &ExprNode{Op: "wildcard-arg", Pos: p.cur.Pos})
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			return nil, newError(ErrXPST0003, p.cur.Pos, "unexpected argument in kind test")
		}
		if err := p.advance(); err != nil { // consume ')'
			return nil, err
		}
		return &ExprNode{Op: op, Pos: pos, KT: kind, HasKT: true, Children: args}, nil
	}
}

func nudItemType(p *exprParser) (*ExprNode, error) {
	pos := p.cur.Pos
	if err := p.expect("("); err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return &ExprNode{Op: "item-type", Pos: pos}, nil
}

func nudEmptySequenceType(p *exprParser) (*ExprNode, error) {
	pos := p.cur.Pos
	if err := p.expect("("); err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return &ExprNode{Op: "empty-sequence-type", Pos: pos}, nil
}

// ledPredicate attaches a "[" Expr "]" predicate to the preceding
// primary, implementing the postfix production of spec.md section 4.C.
func ledPredicate(p *exprParser, left *ExprNode) (*ExprNode, error) {
	pred, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	left.Predicates = append(left.Predicates, pred)
	return left, nil
}

// ledPath implements '/' and '//' step continuation. '//' desugars to
// '/' preceded by a synthetic descendant-or-self::node() step, per
// spec.md's abbreviated syntax rule.
func ledPath(abbreviated bool) LedFunc {
	return func(p *exprParser, left *ExprNode) (*ExprNode, error) {
		if abbreviated {
			sep := &ExprNode{Op: "step", Axis: "descendant-or-self", Children: []*ExprNode{{Op: "any-kind-test"}}}
			left = newNode("path", left.Pos, left, sep)
		}
		right, err := p.expression(bpPath)
		if err != nil {
			return nil, err
		}
		return newNode("path", left.Pos, left, right), nil
	}
}

// nudPath implements a leading '/' or '//' (absolute path).
func nudPath(abbreviated bool) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		root := &ExprNode{Op: "root"}
		if !startsStep(p.cur) {
			return root, nil
		}
		if abbreviated {
			sep := &ExprNode{Op: "step", Axis: "descendant-or-self", Children: []*ExprNode{{Op: "any-kind-test"}}}
			root = newNode("path", 0, root, sep)
		}
		right, err := p.expression(bpPath)
		if err != nil {
			return nil, err
		}
		return newNode("path", 0, root, right), nil
	}
}

func startsStep(t Token) bool {
	switch t.Kind {
	case TokName, TokSymbol:
		if t.Kind == TokSymbol && t.Sym != nil {
			return t.Text == "*" || t.Text == "@" || t.Text == "." || t.Text == ".." || t.Text == "(" ||
				t.Sym.IsWord ||
				t.Sym.HasLabel(LabelAxis) || t.Sym.HasLabel(LabelKindTest) || t.Sym.HasLabel(LabelFunction) || t.Sym.HasLabel(LabelConstructor)
		}
		return t.Kind == TokName
	case TokVariable, TokString, TokNumber:
		return true
	}
	return false
}

func nudContextItem(p *exprParser) (*ExprNode, error) {
	return &ExprNode{Op: "context-item"}, nil
}

func nudParentShorthand(p *exprParser) (*ExprNode, error) {
	return &ExprNode{Op: "step", Axis: "parent", Children: []*ExprNode{{Op: "any-kind-test"}}}, nil
}

// nudGrouping implements '(' Expr? ')', including the parenthesized
// empty sequence '()', per spec.md's "parenthesized empty sequence"
// extension.
func nudGrouping(p *exprParser) (*ExprNode, error) {
	if p.curIs(")") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ExprNode{Op: "empty-sequence"}, nil
	}
	inner, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return newNode("paren", inner.Pos, inner), nil
}

// ledComma flattens nested comma nodes eagerly, per spec.md section 3's
// "nesting is forbidden (flatten-on-construct)" invariant.
func ledComma(p *exprParser, left *ExprNode) (*ExprNode, error) {
	right, err := p.expression(bpComma)
	if err != nil {
		return nil, err
	}
	children := flattenComma(left)
	children = append(children, flattenComma(right)...)
	return &ExprNode{Op: "comma", Pos: left.Pos, Children: children}, nil
}

func flattenComma(n *ExprNode) []*ExprNode {
	if n.Op == "comma" {
		return n.Children
	}
	return []*ExprNode{n}
}

func ledBinary(op string, rbp int) LedFunc {
	return func(p *exprParser, left *ExprNode) (*ExprNode, error) {
		right, err := p.expression(rbp)
		if err != nil {
			return nil, err
		}
		return newNode(op, left.Pos, left, right), nil
	}
}

func nudUnary(op string) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		operand, err := p.expression(bpUnary)
		if err != nil {
			return nil, err
		}
		return newNode(op, operand.Pos, operand), nil
	}
}

// parseArgList parses a "(" arg ("," arg)* ")" argument list, keeping
// each argument separate (function-call commas are argument separators,
// not the sequence-construction comma operator).
func (p *exprParser) parseArgList() ([]*ExprNode, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []*ExprNode
	for !p.curIs(")") {
		if len(args) > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		arg, err := p.expression(bpComma + 1)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, p.advance()
}

// nudCall builds the Nud for a function or constructor symbol whose
// lookahead already confirmed a following '('.
func nudCall(name string) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		pos := p.cur.Pos
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		qn := QName{URI: FunctionsNamespace, Local: name}
		return &ExprNode{Op: "call", Pos: pos, FuncName: name, TypeName: qn, Children: args}, nil
	}
}

// nudSchemaConstructorCall builds the Nud for a constructor symbol
// dynamically registered for a schema-advertised atomic type (see
// registerSchemaAtomicTypes in types.go), per spec.md section 4.G's
// "Schema-driven type registration". Unlike nudCall it stamps the
// type's own (non-builtin) QName rather than the fn: functions
// namespace, so evalCall (builtins.go) routes the call to the schema
// proxy instead of the fn: table.
func nudSchemaConstructorCall(qn QName) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		pos := p.cur.Pos
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		return p.foldConstructor(&ExprNode{Op: "call", Pos: pos, FuncName: qn.String(), TypeName: qn, Children: args})
	}
}

// foldConstructor implements spec.md section 4.C's static pre-evaluation:
// a constructor call whose arguments are all literals is evaluated
// immediately against a context-free dynamic frame. XPDY0002 (the call
// turned out to need a dynamic context) silently defers evaluation to
// runtime; any other failure is a static error, and success replaces the
// call node with its computed value, per spec.md section 7's propagation
// policy. Function calls (fn: namespace) are never folded — only xs: and
// schema-registered constructors.
func (p *exprParser) foldConstructor(n *ExprNode) (*ExprNode, error) {
	isConstructor := n.TypeName.URI == XSDNamespace ||
		(p.Static.Schema != nil && n.TypeName.URI != FunctionsNamespace && isSchemaAtomicType(p.Static.Schema, n.TypeName))
	if !isConstructor {
		return n, nil
	}
	for _, c := range n.Children {
		if c.Op != "literal" && c.Op != "empty-sequence" {
			return n, nil
		}
	}
	ctx := NewDynamicContext(p.Static, nil, nil, 0)
	v, err := n.Evaluate(ctx)
	if err != nil {
		if IsCode(err, ErrXPDY0002) {
			return n, nil
		}
		return nil, err
	}
	switch r := v.(type) {
	case nil:
		return &ExprNode{Op: "empty-sequence", Pos: n.Pos}, nil
	case Atomic:
		return &ExprNode{Op: "literal", Pos: n.Pos, Lit: r}, nil
	}
	return n, nil
}

// parseOccurrence consumes an optional '?', '*' or '+' occurrence
// indicator, per spec.md's SequenceType grammar.
func (p *exprParser) parseOccurrence() (byte, error) {
	if p.cur.Kind == TokSymbol {
		switch p.cur.Text {
		case "?", "*", "+":
			ch := p.cur.Text[0]
			return ch, p.advance()
		}
	}
	return 0, nil
}

// parseSequenceType parses SequenceType ::= ("empty-sequence" "(" ")")
// | (ItemType OccurrenceIndicator?), used by 'instance of'/'treat as'.
// A kind test / item() / empty-sequence() dispatches through its own
// symbol Nud; anything else must be an atomic type name. No occurrence
// indicator is permitted after empty-sequence(), per spec.md section
// 4.C.
func (p *exprParser) parseSequenceType() (*ExprNode, error) {
	t := p.cur
	if t.Kind == TokSymbol && t.Sym != nil && t.Sym.HasLabel(LabelKindTest) && t.Sym.Nud != nil {
		if err := p.advance(); err != nil {
			return nil, err
		}
		item, err := t.Sym.Nud(p)
		if err != nil {
			return nil, err
		}
		if item.Op == "empty-sequence-type" {
			return item, nil
		}
		occ, err := p.parseOccurrence()
		if err != nil {
			return nil, err
		}
		item.Occurrence = occ
		return item, nil
	}
	return p.parseSingleType()
}

// parseSingleType parses an atomic type name followed by an optional
// occurrence indicator ('?', '*' or '+'). parseSequenceType uses it for
// atomic types; parseCastTargetType uses it for 'cast as'/'castable as'
// and rejects '*' and '+' itself.
func (p *exprParser) parseSingleType() (*ExprNode, error) {
	if p.cur.Kind != TokName {
		return nil, newError(ErrXPST0003, p.cur.Pos, "expected an atomic type name")
	}
	lexical := p.cur.Text
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.curIs(":") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !isNameLikeToken(p.cur) {
			return nil, newError(ErrXPST0003, p.cur.Pos, "expected a local name after '%s:'", lexical)
		}
		lexical = lexical + ":" + p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	qn, err := p.Static.ResolveQName(lexical)
	if err != nil {
		return nil, err
	}
	n := &ExprNode{Op: "type-name", TypeName: qn, Pos: pos}
	occ, err := p.parseOccurrence()
	if err != nil {
		return nil, err
	}
	n.Occurrence = occ
	return n, nil
}

func ledInstanceOf(p *exprParser, left *ExprNode) (*ExprNode, error) {
	if err := p.expect("of"); err != nil {
		return nil, err
	}
	st, err := p.parseSequenceType()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "instance-of", Pos: left.Pos, Children: []*ExprNode{left, st}}, nil
}

func ledTreatAs(p *exprParser, left *ExprNode) (*ExprNode, error) {
	if err := p.expect("as"); err != nil {
		return nil, err
	}
	st, err := p.parseSequenceType()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "treat-as", Pos: left.Pos, Children: []*ExprNode{left, st}}, nil
}

func ledCastableAs(p *exprParser, left *ExprNode) (*ExprNode, error) {
	if err := p.expect("as"); err != nil {
		return nil, err
	}
	st, err := p.parseCastTargetType()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "castable-as", Pos: left.Pos, Children: []*ExprNode{left, st}}, nil
}

func ledCastAs(p *exprParser, left *ExprNode) (*ExprNode, error) {
	if err := p.expect("as"); err != nil {
		return nil, err
	}
	st, err := p.parseCastTargetType()
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "cast-as", Pos: left.Pos, Children: []*ExprNode{left, st}}, nil
}

// parseCastTargetType narrows parseSingleType to the SingleType grammar of
// 'cast as'/'castable as': only '?' may trail the target type name.
func (p *exprParser) parseCastTargetType() (*ExprNode, error) {
	st, err := p.parseSingleType()
	if err != nil {
		return nil, err
	}
	if st.Occurrence == '*' || st.Occurrence == '+' {
		return nil, newError(ErrXPST0003, st.Pos, "only '?' may follow a cast target type")
	}
	return st, nil
}

// nudIf implements "if" "(" Expr ")" "then" ExprSingle "else" ExprSingle.
func nudIf(p *exprParser) (*ExprNode, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if err := p.expect("then"); err != nil {
		return nil, err
	}
	then, err := p.expression(bpComma + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expect("else"); err != nil {
		return nil, err
	}
	els, err := p.expression(bpComma + 1)
	if err != nil {
		return nil, err
	}
	return &ExprNode{Op: "if", Children: []*ExprNode{cond, then, els}}, nil
}

// bindingClause is one "$var in Expr" clause of a for/some/every
// expression.
type bindingClause struct {
	varName QName
	source  *ExprNode
}

func (p *exprParser) parseBindingClauses() ([]bindingClause, error) {
	var clauses []bindingClause
	for {
		if p.cur.Kind != TokVariable {
			return nil, newError(ErrXPST0003, p.cur.Pos, "expected a variable binding")
		}
		qn, err := p.Static.ResolveQName(p.cur.Text)
		if err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect("in"); err != nil {
			return nil, err
		}
		src, err := p.expression(bpComma + 1)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, bindingClause{varName: qn, source: src})
		if p.curIs(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return clauses, nil
	}
}

// clausesToNodes packs binding clauses into a flat children slice of
// (variable, source) pairs for storage on an ExprNode.
func clausesToNodes(clauses []bindingClause) []*ExprNode {
	out := make([]*ExprNode, 0, len(clauses)*2)
	for _, c := range clauses {
		out = append(out, &ExprNode{Op: "variable", VarName: c.varName}, c.source)
	}
	return out
}

// nudFor implements "for" "$" Var "in" Expr ("," "$" Var "in" Expr)*
// "return" ExprSingle.
func nudFor(p *exprParser) (*ExprNode, error) {
	clauses, err := p.parseBindingClauses()
	if err != nil {
		return nil, err
	}
	if err := p.expect("return"); err != nil {
		return nil, err
	}
	body, err := p.expression(bpComma + 1)
	if err != nil {
		return nil, err
	}
	children := clausesToNodes(clauses)
	children = append(children, body)
	return &ExprNode{Op: "for", Children: children}, nil
}

func nudQuantified(keyword string) NudFunc {
	return func(p *exprParser) (*ExprNode, error) {
		clauses, err := p.parseBindingClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expect("satisfies"); err != nil {
			return nil, err
		}
		body, err := p.expression(bpComma + 1)
		if err != nil {
			return nil, err
		}
		children := clausesToNodes(clauses)
		children = append(children, body)
		return &ExprNode{Op: keyword, Children: children}, nil
	}
}
