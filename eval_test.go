package xpath2

import (
	"math"
	"testing"
)

// fakeNode is a minimal in-memory tree implementing Node, used to drive
// the evaluator in white-box tests without a real XML document, in the
// spirit of the teacher's xpath_parser_test.go table-driven style (no
// assertion library, plain t.Fatalf).
type fakeNode struct {
	kind     NodeKind
	name     QName
	text     string
	parent   *fakeNode
	children []*fakeNode
	attrs    []*fakeNode
}

func (n *fakeNode) Kind() NodeKind { return n.kind }
func (n *fakeNode) Name() QName    { return n.name }

func (n *fakeNode) StringValue() string {
	if n.kind == TextNode || n.kind == AttributeNode {
		return n.text
	}
	var sb []byte
	var walk func(*fakeNode)
	walk = func(x *fakeNode) {
		if x.kind == TextNode {
			sb = append(sb, x.text...)
			return
		}
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(n)
	return string(sb)
}

func (n *fakeNode) TypedValue() []Atomic { return []Atomic{NewUntypedAtomic(n.StringValue())} }
func (n *fakeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}
func (n *fakeNode) DocumentOrder() int  { return 0 }
func (n *fakeNode) BaseURI() string     { return "" }
func (n *fakeNode) DocumentURI() string { return "" }
func (n *fakeNode) Nilled() bool        { return false }
func (n *fakeNode) Attributes() []Node {
	out := make([]Node, len(n.attrs))
	for i, a := range n.attrs {
		out[i] = a
	}
	return out
}
func (n *fakeNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func elem(local string, attrs []*fakeNode, children ...*fakeNode) *fakeNode {
	n := &fakeNode{kind: ElementNode, name: QName{Local: local}, attrs: attrs, children: children}
	for _, c := range children {
		c.parent = n
	}
	for _, a := range attrs {
		a.parent = n
	}
	return n
}

func attr(local, value string) *fakeNode {
	return &fakeNode{kind: AttributeNode, name: QName{Local: local}, text: value}
}

func text(s string) *fakeNode {
	return &fakeNode{kind: TextNode, text: s}
}

func doc(root *fakeNode) *fakeNode {
	d := &fakeNode{kind: DocumentNode, children: []*fakeNode{root}}
	root.parent = d
	return d
}

// fakeSchema is a minimal SchemaProxy advertising one custom atomic
// type, used to drive the schema-driven constructor registration tests
// (spec.md section 4.G) without a real schema-aware DOM.
type fakeSchema struct {
	atomicTypes []QName
}

func (s *fakeSchema) IterAtomicTypes() []QName { return s.atomicTypes }

func (s *fakeSchema) IsInstance(item any, qname QName) (bool, error) {
	a, ok := item.(Atomic)
	return ok && a.Type == TypeString, nil
}

func (s *fakeSchema) CastAs(value Atomic, qname QName) (Atomic, error) {
	return Atomic{Type: TypeString, Str: "custom:" + value.String()}, nil
}

func (s *fakeSchema) GetAttribute(qname QName) (Node, bool)         { return nil, false }
func (s *fakeSchema) GetElement(qname QName) (Node, bool)           { return nil, false }
func (s *fakeSchema) GetSubstitutionGroup(qname QName) (Node, bool) { return nil, false }

func newTestCtx(root Node) *DynamicContext {
	static := NewStaticContext()
	static.DefaultFunctionNS = FunctionsNamespace
	now := &Temporal{Year: 2026, Month: 7, Day: 31, HasTimezone: true}
	return NewDynamicContext(static, root, now, 0)
}

func evalExpr(t *testing.T, expr string, ctxItem Node) any {
	t.Helper()
	reg := DefaultRegistry()
	static := NewStaticContext()
	static.DefaultFunctionNS = FunctionsNamespace
	node, err := Parse(expr, reg, static)
	if err != nil {
		t.Fatalf("Parse(%q): %v", expr, err)
	}
	ctx := newTestCtx(ctxItem)
	if ctxItem != nil {
		ctx = ctx.WithFocus(ctxItem, 1, 1)
	}
	v, err := node.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", expr, err)
	}
	return v
}

func TestArithmeticMixedIntegerDecimal(t *testing.T) {
	v := evalExpr(t, "1 + 2.5", nil)
	a, ok := v.(Atomic)
	if !ok || a.Type != TypeDecimal {
		t.Fatalf("expected decimal, got %#v", v)
	}
	if a.Num != 3.5 {
		t.Fatalf("expected 3.5, got %v", a.Num)
	}
}

func TestIntegerDivAndMod(t *testing.T) {
	v := evalExpr(t, "7 idiv 2", nil)
	a := v.(Atomic)
	if a.Int != 3 {
		t.Fatalf("7 idiv 2 = %d, want 3", a.Int)
	}
	v = evalExpr(t, "7 mod 2", nil)
	a = v.(Atomic)
	if a.Int != 1 {
		t.Fatalf("7 mod 2 = %d, want 1", a.Int)
	}
}

func TestRangeExpression(t *testing.T) {
	v := evalExpr(t, "1 to 5", nil)
	seq, ok := v.([]any)
	if !ok || len(seq) != 5 {
		t.Fatalf("expected 5-element sequence, got %#v", v)
	}
	if seq[0].(Atomic).Int != 1 || seq[4].(Atomic).Int != 5 {
		t.Fatalf("unexpected range bounds: %#v", seq)
	}
}

func TestPredicateOnParenthesizedSequence(t *testing.T) {
	v := evalExpr(t, "(1 to 5)[. mod 2 = 0]", nil)
	seq, ok := v.([]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("expected (2, 4), got %#v", v)
	}
	if seq[0].(Atomic).Int != 2 || seq[1].(Atomic).Int != 4 {
		t.Fatalf("expected (2, 4), got %#v", seq)
	}
}

func TestPositionalPredicateOnSequence(t *testing.T) {
	v := evalExpr(t, "(10, 20, 30)[2]", nil)
	a, ok := v.([]any)
	if !ok || len(a) != 1 || a[0].(Atomic).Int != 20 {
		t.Fatalf("expected 20, got %#v", v)
	}
}

func TestIfThenElse(t *testing.T) {
	v := evalExpr(t, "if (1 < 2) then 'yes' else 'no'", nil)
	a := v.(Atomic)
	if a.Str != "yes" {
		t.Fatalf("expected yes, got %q", a.Str)
	}
}

func TestForExpression(t *testing.T) {
	v := evalExpr(t, "for $x in (1, 2, 3) return $x * 2", nil)
	seq := v.([]any)
	if len(seq) != 3 || seq[1].(Atomic).Int != 4 {
		t.Fatalf("unexpected for result: %#v", seq)
	}
}

func TestQuantifiedSomeAndEvery(t *testing.T) {
	v := evalExpr(t, "some $x in (1, 2, 3) satisfies $x = 2", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected some to be true")
	}
	v = evalExpr(t, "every $x in (1, 2, 3) satisfies $x > 0", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected every to be true")
	}
	v = evalExpr(t, "every $x in (1, 2, 3) satisfies $x > 1", nil)
	if v.(Atomic).Bool {
		t.Fatalf("expected every to be false")
	}
}

func TestInstanceOfCardinality(t *testing.T) {
	v := evalExpr(t, "1 instance of xs:integer", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected 1 instance of xs:integer")
	}
	v = evalExpr(t, "(1, 2) instance of xs:integer", nil)
	if v.(Atomic).Bool {
		t.Fatalf("expected (1,2) not to be a singleton integer")
	}
	v = evalExpr(t, "(1, 2) instance of xs:integer+", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected (1,2) instance of xs:integer+")
	}
}

func TestTreatAsPassesOrRaises(t *testing.T) {
	v := evalExpr(t, "(1, 2) treat as xs:integer+", nil)
	seq, ok := v.([]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("expected the sequence to pass through treat as, got %#v", v)
	}
	reg := DefaultRegistry()
	static := NewStaticContext()
	node, err := Parse("(1, 2) treat as xs:integer", reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := node.Evaluate(newTestCtx(nil)); !IsCode(err, ErrXPDY0050) {
		t.Fatalf("expected XPDY0050 for a cardinality mismatch, got %v", err)
	}
}

func TestInstanceOfEmptySequenceTypes(t *testing.T) {
	v := evalExpr(t, "() instance of empty-sequence()", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected () instance of empty-sequence() to be true")
	}
	v = evalExpr(t, "() instance of xs:integer?", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected () instance of xs:integer? to be true")
	}
	v = evalExpr(t, "() instance of xs:integer+", nil)
	if v.(Atomic).Bool {
		t.Fatalf("expected () instance of xs:integer+ to be false")
	}
	v = evalExpr(t, "1 instance of item()", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected 1 instance of item() to be true")
	}
}

func TestCastAsConstructorAndBoundedInteger(t *testing.T) {
	v := evalExpr(t, "xs:integer('42') + 1", nil)
	if v.(Atomic).Int != 43 {
		t.Fatalf("expected 43, got %#v", v)
	}
}

// TestConstructorStaticPreEvaluation exercises spec.md section 4.C's
// static pre-evaluation: a constructor over literal arguments folds to its
// value at parse time, and a constructor whose literal argument violates
// the type's range is already a parse-time failure.
func TestConstructorStaticPreEvaluation(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	node, err := Parse(`xs:integer("42")`, reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Op != "literal" || node.Lit.Int != 42 {
		t.Fatalf("expected a pre-evaluated literal 42, got %#v", node)
	}
	_, err = Parse(`xs:byte("200")`, reg, static)
	if !IsCode(err, ErrFORG0001) {
		t.Fatalf("expected parse-time FORG0001 for xs:byte(\"200\"), got %v", err)
	}
	// A non-literal argument defers evaluation to runtime.
	node, err = Parse(`xs:integer(string(1 + 1))`, reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Op != "call" {
		t.Fatalf("expected a runtime call node for a non-literal argument, got %#v", node)
	}
}

func TestCastAsOutOfRangeByte(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	node, err := Parse("200 cast as xs:byte", reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := newTestCtx(nil)
	_, err = node.Evaluate(ctx)
	if !IsCode(err, ErrFORG0001) {
		t.Fatalf("expected FORG0001 out-of-range error, got %v", err)
	}
}

func TestCastAsLongAtInt64Ceiling(t *testing.T) {
	v := evalExpr(t, "9223372036854775807 cast as xs:long", nil)
	if v.(Atomic).Int != math.MaxInt64 {
		t.Fatalf("expected max int64 to survive an xs:long cast, got %#v", v)
	}
}

// TestCastAsIntUsesSpecLiteralRange reproduces spec.md section 4.G's
// int[-2^63,2^63) range: a value past the conventional 32-bit int
// range must still succeed.
func TestCastAsIntUsesSpecLiteralRange(t *testing.T) {
	v := evalExpr(t, "xs:int('3000000000')", nil)
	if v.(Atomic).Int != 3000000000 {
		t.Fatalf("expected 3000000000 to survive an xs:int cast, got %#v", v)
	}
}

func TestCastAsUnsignedLongRejectsNegative(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	node, err := Parse("-5 cast as xs:unsignedLong", reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := newTestCtx(nil)
	_, err = node.Evaluate(ctx)
	if !IsCode(err, ErrFORG0001) {
		t.Fatalf("expected FORG0001 for a negative xs:unsignedLong, got %v", err)
	}
}

// TestCommentAttachment reproduces spec.md section 4.A/8's worked
// example: a comment between two operands attaches to the node built
// from the token it trails, and evaluation is unaffected by its
// presence.
func TestCommentAttachment(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	node, err := Parse("1 (: outer (: inner :) :) + 2", reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Op != "add" || len(node.Children) != 2 {
		t.Fatalf("expected a binary add node, got %#v", node)
	}
	left := node.Children[0]
	if left.Comment != "outer (: inner :)" {
		t.Fatalf("expected comment %q attached to left operand, got %q", "outer (: inner :)", left.Comment)
	}
	if node.Comment != "" {
		t.Fatalf("expected no comment on the add node itself, got %q", node.Comment)
	}
	ctx := newTestCtx(nil)
	v, err := node.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a, ok := v.(Atomic)
	if !ok || a.Int != 3 {
		t.Fatalf("expected 1 + 2 == 3, got %#v", v)
	}
}

// TestSchemaConstructorCall reproduces spec.md section 4.G's
// schema-driven type registration: an unprefixed name a SchemaProxy
// advertises via IterAtomicTypes, immediately followed by "(", must
// parse as a constructor call and dispatch through CastAs, the same
// way a bare xs: constructor dispatches through constructAtomic.
func TestSchemaConstructorCall(t *testing.T) {
	schema := &fakeSchema{atomicTypes: []QName{{URI: "http://example.com/ns", Local: "widgetId"}}}
	p := NewParser(WithNamespace("ex", "http://example.com/ns"), WithSchema(schema))
	expr, err := p.Parse(`widgetId("7")`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := expr.Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a, ok := v.(Atomic)
	if !ok || a.Str != "custom:7" {
		t.Fatalf("expected schema constructor to yield %q, got %#v", "custom:7", v)
	}
}

// TestSchemaPrefixedConstructorCallWithoutRegistration confirms a
// prefixed schema constructor call dispatches through CastAs even
// though nothing registered "ex:widgetId" as a symbol — nudNameStep
// resolves any qualified name followed by "(" into a call node
// generically (parser.go), and evalCall (builtins.go) routes it to the
// schema once isSchemaAtomicType confirms the QName.
func TestSchemaPrefixedConstructorCallWithoutRegistration(t *testing.T) {
	schema := &fakeSchema{atomicTypes: []QName{{URI: "http://example.com/ns", Local: "widgetId"}}}
	p := NewParser(WithNamespace("ex", "http://example.com/ns"), WithSchema(schema))
	expr, err := p.Parse(`ex:widgetId("9")`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := expr.Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a, ok := v.(Atomic)
	if !ok || a.Str != "custom:9" {
		t.Fatalf("expected schema constructor to yield %q, got %#v", "custom:9", v)
	}
}

// TestPrefixedCallWithRegisteredLocalName guards the tokenizer/parser
// interaction for a prefixed call whose local name is also a registered
// function symbol: "string" followed by "(" tokenizes as the fn:string
// symbol, but after "xs:" it must still read as a constructor name.
func TestPrefixedCallWithRegisteredLocalName(t *testing.T) {
	v := evalExpr(t, "xs:string(3)", nil)
	a, ok := v.(Atomic)
	if !ok || a.Type != TypeString || a.Str != "3" {
		t.Fatalf("expected string \"3\", got %#v", v)
	}
	v = evalExpr(t, "xs:boolean('1')", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected xs:boolean('1') to be true, got %#v", v)
	}
}

func TestQNameConstructorNamespaceBinding(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	static.Namespaces["p"] = "http://x"
	node, err := Parse(`xs:QName("http://x", "p:q")`, reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := node.Evaluate(newTestCtx(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a := v.(Atomic)
	if a.Type != TypeQName || a.QName.URI != "http://x" || a.QName.Local != "q" {
		t.Fatalf("unexpected QName result: %#v", a)
	}

	conflicting := NewStaticContext()
	conflicting.Namespaces["p"] = "http://other"
	// The literal-argument call pre-evaluates at parse time, so the
	// binding conflict is already a parse failure.
	_, err = Parse(`xs:QName("http://x", "p:q")`, reg, conflicting)
	if !IsCode(err, ErrFOCA0002) {
		t.Fatalf("expected FOCA0002 for a conflicting prefix binding, got %v", err)
	}
}

func TestCastToQNameResolvesPrefix(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	static.Namespaces["p"] = "http://x"
	node, err := Parse(`"p:q" cast as xs:QName`, reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := NewDynamicContext(static, nil, nil, 0)
	v, err := node.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a := v.(Atomic)
	if a.QName.URI != "http://x" || a.QName.Local != "q" || a.QName.Prefix != "p" {
		t.Fatalf("unexpected QName: %#v", a.QName)
	}
	node, err = Parse(`"unbound:q" cast as xs:QName`, reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := node.Evaluate(ctx); !IsCode(err, ErrFONS0004) {
		t.Fatalf("expected FONS0004 for an unbound prefix, got %v", err)
	}
}

func TestCastAsLexicalMismatchIsTypeError(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	node, err := Parse(`"abc" cast as xs:integer`, reg, static)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := node.Evaluate(newTestCtx(nil)); !IsCode(err, ErrXPTY0004) {
		t.Fatalf("expected XPTY0004 for a lexical mismatch on cast, got %v", err)
	}
	// The constructor form keeps the lexical error code.
	if _, err := Parse(`xs:integer("abc")`, reg, static); !IsCode(err, ErrFOCA0002) {
		t.Fatalf("expected FOCA0002 from the constructor form, got %v", err)
	}
}

func TestCastableAs(t *testing.T) {
	v := evalExpr(t, "'abc' castable as xs:integer", nil)
	if v.(Atomic).Bool {
		t.Fatalf("expected 'abc' not castable to xs:integer")
	}
	v = evalExpr(t, "'42' castable as xs:integer", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected '42' castable to xs:integer")
	}
}

func TestValueAndGeneralComparison(t *testing.T) {
	v := evalExpr(t, "(1, 2, 3) = 2", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected general comparison to find a match")
	}
	v = evalExpr(t, "1 eq 1", nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected 1 eq 1")
	}
}

func TestPathAndPredicateOverFakeTree(t *testing.T) {
	root := doc(elem("catalog", nil,
		elem("book", []*fakeNode{attr("id", "1")}, elem("title", nil, text("Go")), elem("price", nil, text("9.99"))),
		elem("book", []*fakeNode{attr("id", "2")}, elem("title", nil, text("Rust")), elem("price", nil, text("19.99"))),
	))
	v := evalExpr(t, "/catalog/book", root)
	seq := v.([]any)
	if len(seq) != 2 {
		t.Fatalf("expected 2 books, got %d", len(seq))
	}
	v = evalExpr(t, "/catalog/book[@id = '2']/title", root)
	seq = v.([]any)
	if len(seq) != 1 {
		t.Fatalf("expected 1 title, got %d", len(seq))
	}
	if StringValue(seq[0]) != "Rust" {
		t.Fatalf("expected Rust, got %q", StringValue(seq[0]))
	}
}

func TestSetOperatorsDocumentOrderAndDedup(t *testing.T) {
	root := doc(elem("r", nil,
		elem("a", nil), elem("b", nil), elem("c", nil),
	))
	v := evalExpr(t, "(/r/c | /r/a) union /r/a", root)
	seq := v.([]any)
	if len(seq) != 2 {
		t.Fatalf("expected union to dedup to 2 nodes, got %d", len(seq))
	}
	if NodeName(seq[0]).Local != "a" || NodeName(seq[1]).Local != "c" {
		t.Fatalf("expected document order (a, c), got (%s, %s)", NodeName(seq[0]).Local, NodeName(seq[1]).Local)
	}
	v = evalExpr(t, "/r/* intersect /r/b", root)
	seq = v.([]any)
	if len(seq) != 1 || NodeName(seq[0]).Local != "b" {
		t.Fatalf("unexpected intersect result: %#v", seq)
	}
	v = evalExpr(t, "/r/* except /r/b", root)
	seq = v.([]any)
	if len(seq) != 2 || NodeName(seq[0]).Local != "a" || NodeName(seq[1]).Local != "c" {
		t.Fatalf("unexpected except result: %#v", seq)
	}
}

func TestNodeIdentityAndDocumentOrderComparisons(t *testing.T) {
	root := doc(elem("r", nil, elem("a", nil), elem("b", nil)))
	v := evalExpr(t, "/r/a is /r/a", root)
	if !v.(Atomic).Bool {
		t.Fatalf("expected a node to be identical to itself")
	}
	v = evalExpr(t, "/r/a is /r/b", root)
	if v.(Atomic).Bool {
		t.Fatalf("expected distinct nodes not to be identical")
	}
	v = evalExpr(t, "/r/a << /r/b", root)
	if !v.(Atomic).Bool {
		t.Fatalf("expected a to precede b")
	}
	v = evalExpr(t, "/r/a >> /r/b", root)
	if v.(Atomic).Bool {
		t.Fatalf("expected a not to follow b")
	}
	v = evalExpr(t, "/r/a << /r/a", root)
	if v.(Atomic).Bool {
		t.Fatalf("expected a node not to precede itself")
	}
}

func TestRoundHalfToEven(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	for _, tc := range []struct {
		expr string
		want float64
	}{
		{"round-half-to-even(0.5)", 0},
		{"round-half-to-even(1.5)", 2},
		{"round-half-to-even(2.5)", 2},
	} {
		node, err := Parse(tc.expr, reg, static)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.expr, err)
		}
		v, err := node.Evaluate(newTestCtx(nil))
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.expr, err)
		}
		if got := v.(Atomic).Num; got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestDaysFromCivilOrdersAfterEpoch(t *testing.T) {
	days := daysFromCivil(2026, 7, 31)
	backDays := daysFromCivil(1970, 1, 1)
	if days <= backDays {
		t.Fatalf("expected 2026-07-31 to be after the epoch, got day counts %d vs %d", days, backDays)
	}
}

func TestEffectiveBooleanValueRules(t *testing.T) {
	ok, err := EffectiveBooleanValue(nil)
	if err != nil || ok {
		t.Fatalf("empty sequence should be false, got %v err=%v", ok, err)
	}
	ok, err = EffectiveBooleanValue([]any{NewString("x")})
	if err != nil || !ok {
		t.Fatalf("non-empty string should be true, got %v err=%v", ok, err)
	}
	ok, err = EffectiveBooleanValue([]any{NewDouble(math.NaN())})
	if err != nil || ok {
		t.Fatalf("NaN should be false, got %v err=%v", ok, err)
	}
}

func TestDistinctValuesNumericEquality(t *testing.T) {
	v := evalExpr(t, "distinct-values((1, 1.0, 2))", nil)
	seq := v.([]any)
	if len(seq) != 2 {
		t.Fatalf("expected 2 distinct values (1 and 1.0 compare eq), got %d: %#v", len(seq), seq)
	}
}

// TestCodepointCollationDoesNotNormalize checks that compare and
// codepoint-equal see raw code-point sequences: NFC-equivalent but
// distinct sequences (precomposed vs combining-mark é) are unequal.
func TestCodepointCollationDoesNotNormalize(t *testing.T) {
	v := evalExpr(t, `codepoint-equal("caf`+"é"+`", "cafe`+"́"+`")`, nil)
	if v.(Atomic).Bool {
		t.Fatalf("expected distinct code-point sequences to be unequal")
	}
	v = evalExpr(t, `codepoint-equal("abc", "abc")`, nil)
	if !v.(Atomic).Bool {
		t.Fatalf("expected identical strings to be codepoint-equal")
	}
	v = evalExpr(t, `compare("a", "b")`, nil)
	if v.(Atomic).Int != -1 {
		t.Fatalf("compare(\"a\", \"b\") = %d, want -1", v.(Atomic).Int)
	}
	v = evalExpr(t, `compare("b", "a")`, nil)
	if v.(Atomic).Int != 1 {
		t.Fatalf("compare(\"b\", \"a\") = %d, want 1", v.(Atomic).Int)
	}
}

func TestDistinctValuesCollapsesNaN(t *testing.T) {
	v := evalExpr(t, `distinct-values((xs:double("NaN"), xs:double("NaN"), 1))`, nil)
	seq := v.([]any)
	if len(seq) != 2 {
		t.Fatalf("expected repeated NaNs to collapse to one value, got %d: %#v", len(seq), seq)
	}
}

func TestIdivExactForLargeIntegers(t *testing.T) {
	// 2^53 + 1 is not representable as a float64; the integer path must
	// keep the division exact.
	v := evalExpr(t, "9007199254740993 idiv 1", nil)
	if got := v.(Atomic).Int; got != 9007199254740993 {
		t.Fatalf("9007199254740993 idiv 1 = %d, want 9007199254740993", got)
	}
	v = evalExpr(t, "7 idiv -2", nil)
	if got := v.(Atomic).Int; got != -3 {
		t.Fatalf("7 idiv -2 = %d, want -3", got)
	}
}

// TestSerializeRoundTrip exercises the parse round-trip law: serializing
// a parsed tree yields a string whose own parse serializes identically.
func TestSerializeRoundTrip(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	for _, src := range []string{
		"1 + 2 * 3",
		"(1 to 5)[. mod 2 = 0]",
		"for $x in (1, 2, 3) return $x * $x",
		"some $x in (1, 2, 3) satisfies $x = 2",
		`if (1 eq 1) then "a" else "b"`,
		`/catalog/book[@id = "2"]/title`,
		"//book/title",
		"1 instance of xs:integer",
		"(1, 2) instance of xs:integer+",
		"$v castable as xs:integer?",
		"5 cast as xs:byte",
		"(/r/c | /r/a) union /r/a",
		"/r/* except /r/b",
		"-(1 + 2)",
		"ancestor-or-self::node()",
		"child::*[position() = last()]",
		"() instance of empty-sequence()",
	} {
		n1, err := Parse(src, reg, static)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		s1 := n1.Serialize()
		n2, err := Parse(s1, reg, static)
		if err != nil {
			t.Fatalf("re-Parse(%q) of %q: %v", s1, src, err)
		}
		s2 := n2.Serialize()
		if s1 != s2 {
			t.Fatalf("serialization of %q is not a fixpoint: %q vs %q", src, s1, s2)
		}
	}
}

// TestEmptySequenceIdentity checks the law E, () == (), E == E.
func TestEmptySequenceIdentity(t *testing.T) {
	for _, src := range []string{"(7, ())", "((), 7)", "7"} {
		v := evalExpr(t, src, nil)
		seq := toSeq(v)
		if len(seq) != 1 || seq[0].(Atomic).Int != 7 {
			t.Fatalf("%s: expected the singleton 7, got %#v", src, v)
		}
	}
}

func TestRangeWithEmptyOperandIsEmpty(t *testing.T) {
	v := evalExpr(t, "() to 5", nil)
	if len(toSeq(v)) != 0 {
		t.Fatalf("expected the empty sequence, got %#v", v)
	}
	v = evalExpr(t, "5 to 2", nil)
	if len(toSeq(v)) != 0 {
		t.Fatalf("expected the empty sequence for a descending range, got %#v", v)
	}
}

func TestFunctionArityChecked(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	for _, src := range []string{"not()", "string-join((1, 2))", "true(1)"} {
		node, err := Parse(src, reg, static)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if _, err := node.Evaluate(newTestCtx(nil)); !IsCode(err, ErrXPST0017) {
			t.Fatalf("%s: expected XPST0017, got %v", src, err)
		}
	}
}

func TestKeywordSpellingsAsNameSteps(t *testing.T) {
	root := doc(elem("div", nil, elem("union", nil, text("x"))))
	v := evalExpr(t, "/div/union", root)
	seq := v.([]any)
	if len(seq) != 1 || StringValue(seq[0]) != "x" {
		t.Fatalf("expected the union element, got %#v", v)
	}
}

func TestCastTargetRejectsStarOccurrence(t *testing.T) {
	reg := DefaultRegistry()
	static := NewStaticContext()
	if _, err := Parse("5 cast as xs:integer*", reg, static); !IsCode(err, ErrXPST0003) {
		t.Fatalf("expected XPST0003 for a '*' cast occurrence, got %v", err)
	}
}
