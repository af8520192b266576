package xpath2_test

import (
	"testing"

	xpath2 "github.com/gogo-agent/xpath2"
)

// node is a minimal Node implementation local to this package, built
// separately from the white-box fakeNode in eval_test.go since a
// black-box test file cannot reach unexported package internals.
type node struct {
	kind     xpath2.NodeKind
	name     xpath2.QName
	text     string
	parent   *node
	children []*node
	attrs    []*node
}

func (n *node) Kind() xpath2.NodeKind { return n.kind }
func (n *node) Name() xpath2.QName    { return n.name }

func (n *node) StringValue() string {
	if n.kind == xpath2.TextNode || n.kind == xpath2.AttributeNode {
		return n.text
	}
	var out string
	for _, c := range n.children {
		out += c.StringValue()
	}
	return out
}

func (n *node) TypedValue() []xpath2.Atomic {
	return []xpath2.Atomic{xpath2.NewUntypedAtomic(n.StringValue())}
}
func (n *node) Parent() xpath2.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}
func (n *node) DocumentOrder() int  { return 0 }
func (n *node) BaseURI() string     { return "" }
func (n *node) DocumentURI() string { return "" }
func (n *node) Nilled() bool        { return false }
func (n *node) Attributes() []xpath2.Node {
	out := make([]xpath2.Node, len(n.attrs))
	for i, a := range n.attrs {
		out[i] = a
	}
	return out
}
func (n *node) Children() []xpath2.Node {
	out := make([]xpath2.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func elem(local string, attrs []*node, children ...*node) *node {
	n := &node{kind: xpath2.ElementNode, name: xpath2.QName{Local: local}, attrs: attrs, children: children}
	for _, c := range children {
		c.parent = n
	}
	for _, a := range attrs {
		a.parent = n
	}
	return n
}

func attr(local, value string) *node {
	return &node{kind: xpath2.AttributeNode, name: xpath2.QName{Local: local}, text: value}
}

func text(s string) *node {
	return &node{kind: xpath2.TextNode, text: s}
}

func doc(root *node) *node {
	d := &node{kind: xpath2.DocumentNode, children: []*node{root}}
	root.parent = d
	return d
}

func TestNewParserDefaultNamespacesResolveXS(t *testing.T) {
	p := xpath2.NewParser()
	expr, err := p.Parse("5 cast as xs:integer")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := expr.Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a, ok := v.(xpath2.Atomic)
	if !ok || a.Int != 5 {
		t.Fatalf("expected integer 5, got %#v", v)
	}
}

func TestWithNamespaceCustomPrefix(t *testing.T) {
	p := xpath2.NewParser(xpath2.WithNamespace("ex", "http://example.com/ns"))
	expr, err := p.Parse("QName('http://example.com/ns', 'ex:widget')")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := expr.Evaluate(nil, nil); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
}

func TestWithVariableAndExternalBinding(t *testing.T) {
	p := xpath2.NewParser(xpath2.WithVariable("n", xpath2.TypeInteger))
	expr, err := p.Parse("$n + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := expr.Evaluate(nil, map[string]any{"n": xpath2.NewInteger(41)})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.(xpath2.Atomic).Int != 42 {
		t.Fatalf("expected 42, got %#v", v)
	}
}

func TestParseResultIsCached(t *testing.T) {
	p := xpath2.NewParser()
	e1, err := p.Parse("1 + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e2, err := p.Parse("1 + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v1, _ := e1.Evaluate(nil, nil)
	v2, _ := e2.Evaluate(nil, nil)
	if v1.(xpath2.Atomic).Int != v2.(xpath2.Atomic).Int {
		t.Fatalf("expected equal cached evaluation results")
	}
}

func TestEvaluateStringConvenience(t *testing.T) {
	v, err := xpath2.EvaluateString("concat('a', 'b')", nil)
	if err != nil {
		t.Fatalf("EvaluateString: %v", err)
	}
	if v.(xpath2.Atomic).Str != "ab" {
		t.Fatalf("expected ab, got %#v", v)
	}
}

func TestExpressionSelectStreamsPathResults(t *testing.T) {
	root := doc(elem("catalog", nil,
		elem("book", []*node{attr("id", "1")}, text("Go")),
		elem("book", []*node{attr("id", "2")}, text("Rust")),
	))
	p := xpath2.NewParser()
	expr, err := p.Parse("/catalog/book")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	it, err := expr.Select(root, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	count := 0
	for {
		_, ok, err := it()
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 books, got %d", count)
	}
}

func TestWithStrictDisabledPermitsUnboundPrefix(t *testing.T) {
	p := xpath2.NewParser()
	if _, err := p.Parse("/unbound:name"); !xpath2.IsCode(err, xpath2.ErrFONS0004) {
		t.Fatalf("expected FONS0004 for an unbound prefix in strict mode, got %v", err)
	}
	p = xpath2.NewParser(xpath2.WithStrict(false))
	if _, err := p.Parse("/unbound:name"); err != nil {
		t.Fatalf("expected an unbound prefix to parse with strict disabled, got %v", err)
	}
}

func TestCompatibilityModeNumericComparison(t *testing.T) {
	p := xpath2.NewParser(xpath2.WithCompatibilityMode(true))
	expr, err := p.Parse(`"12" = 12`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := expr.Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !v.(xpath2.Atomic).Bool {
		t.Fatalf("expected \"12\" = 12 to hold in compatibility mode")
	}

	strict := xpath2.NewParser()
	expr, err = strict.Parse(`"12" = 12`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := expr.Evaluate(nil, nil); !xpath2.IsCode(err, xpath2.ErrXPTY0004) {
		t.Fatalf("expected XPTY0004 outside compatibility mode, got %v", err)
	}
}

func TestWithNilSchemaLeavesBuiltinEvaluation(t *testing.T) {
	// WithSchema has no builtin-type-only observable effect until a
	// schema-backed type name is used; this exercises that applying it
	// doesn't disturb ordinary builtin-type evaluation.
	p := xpath2.NewParser(xpath2.WithSchema(nil))
	expr, err := p.Parse("1 + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := expr.Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.(xpath2.Atomic).Int != 2 {
		t.Fatalf("expected 2, got %#v", v)
	}
}
