package xpath2

import "time"

// Version is the XPath language version this engine implements, per
// spec.md section 1's scope statement.
const Version = "2.0"

// Option configures a Parser, following the teacher's NewXPathParser()
// factory convention (xpath.go) extended with the construction-time
// settings spec.md section 6 lists: namespaces, variables, strict mode,
// default element/function namespaces, schema, and XPath 1.0
// compatibility mode.
type Option func(*Parser)

// WithNamespace binds a single prefix to a namespace URI in the static
// context used to compile expressions.
func WithNamespace(prefix, uri string) Option {
	return func(p *Parser) { p.static.Namespaces[prefix] = uri }
}

// WithNamespaces binds every prefix/URI pair in m.
func WithNamespaces(m map[string]string) Option {
	return func(p *Parser) {
		for prefix, uri := range m {
			p.static.Namespaces[prefix] = uri
		}
	}
}

// WithVariable records a variable name and type in the static context.
// Neither is checked at parse or evaluation time: a variable reference
// compiles whether or not it was declared, and its value is taken from
// the bindings passed at evaluation.
func WithVariable(name string, t XSDType) Option {
	return func(p *Parser) { p.static.Variables[name] = t }
}

// WithDefaultElementNamespace sets the namespace an empty prefix resolves
// to in StaticContext.ResolveNamespace, which covers unprefixed names in
// kind-test arguments, type names and variable names. Unprefixed name
// tests in path steps (foo, child::foo) do not use it; they match only
// names in no namespace.
func WithDefaultElementNamespace(uri string) Option {
	return func(p *Parser) { p.static.DefaultElementNS = uri }
}

// WithDefaultFunctionNamespace sets StaticContext.DefaultFunctionNS, which
// defaults to FunctionsNamespace. The parser does not read it: unprefixed
// calls of the built-in functions always resolve to FunctionsNamespace.
func WithDefaultFunctionNamespace(uri string) Option {
	return func(p *Parser) { p.static.DefaultFunctionNS = uri }
}

// WithSchema installs the SchemaProxy consulted for non-builtin atomic
// types in instance-of/treat-as/cast-as/castable-as and for
// schema-attribute/schema-element tests. It also extends the parser's
// registry with a constructor symbol for every atomic type the proxy
// advertises (registerSchemaAtomicTypes, types.go), so an unprefixed
// schema-registered type name immediately followed by "(" parses as a
// constructor call the same way a bare xs: constructor does, per
// spec.md section 4.G.
func WithSchema(schema SchemaProxy) Option {
	return func(p *Parser) {
		p.static.Schema = schema
		p.registry = registerSchemaAtomicTypes(p.registry, schema)
	}
}

// WithStrict toggles strict name resolution. Strict is on by default;
// disabling it lets a QName-like name with an unbound prefix resolve to
// no namespace instead of failing with FONS0004, per spec.md section 6's
// strict option.
func WithStrict(strict bool) Option {
	return func(p *Parser) { p.static.Strict = strict }
}

// WithCompatibilityMode toggles XPath 1.0 compatibility coercions.
func WithCompatibilityMode(enabled bool) Option {
	return func(p *Parser) { p.static.CompatibilityMode = enabled }
}

// WithRegistry overrides the symbol registry a Parser compiles against,
// for callers that have extended DefaultRegistry() with custom symbols.
func WithRegistry(reg *Registry) Option {
	return func(p *Parser) { p.registry = reg }
}

// Parser compiles XPath 2.0 expression text into Expressions against a
// fixed static context, mirroring the teacher's XPathParser (xpath.go)
// generalized from a single hardcoded grammar to an options-configured
// one.
type Parser struct {
	static   *StaticContext
	registry *Registry
}

// NewParser builds a Parser with a fresh static context (only the
// predeclared xml, xs and fn prefixes bound), the default function
// namespace, and DefaultRegistry(), then applies opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		static:   NewStaticContext(),
		registry: DefaultRegistry(),
	}
	p.static.DefaultFunctionNS = FunctionsNamespace
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse compiles expr, consulting and populating the shared expression
// cache (cache.go) keyed on this Parser's registry identity and expr's
// text.
func (p *Parser) Parse(expr string) (*Expression, error) {
	if node, ok := getCachedExpression(p.registry, expr); ok {
		return &Expression{node: node, static: p.static}, nil
	}
	node, err := Parse(expr, p.registry, p.static)
	if err != nil {
		return nil, err
	}
	setCachedExpression(p.registry, expr, node)
	return &Expression{node: node, static: p.static}, nil
}

// Expression is a compiled XPath 2.0 expression, ready to be evaluated
// against a context node and a set of external variable bindings.
type Expression struct {
	node   *ExprNode
	static *StaticContext
}

// newDynamicContext builds the per-call DynamicContext: context focus at
// the given node (position 1 of size 1, the convention for a
// single-node external context per spec.md section 4.E), the process's
// current instant, its local UTC offset as the implicit timezone, and
// vars bound ahead of evaluation.
func (e *Expression) newDynamicContext(contextNode Node, vars map[string]any) *DynamicContext {
	now := time.Now()
	_, offsetSec := now.Zone()
	snapshot := &Temporal{
		Year: now.Year(), Month: int(now.Month()), Day: now.Day(),
		Hour: now.Hour(), Minute: now.Minute(), Second: float64(now.Second()),
		HasTimezone: true, TZOffsetMin: offsetSec / 60,
	}
	ctx := NewDynamicContext(e.static, documentRootOf(contextNode), snapshot, offsetSec/60)
	if contextNode != nil {
		ctx = ctx.WithFocus(contextNode, 1, 1)
	}
	for name, v := range vars {
		ctx = ctx.WithVariable(name, v)
	}
	return ctx
}

func documentRootOf(n Node) Node {
	if n == nil {
		return nil
	}
	return documentRoot(n)
}

// Evaluate runs the expression against contextNode (nil for expressions
// with no context-item dependency) and vars, materializing the result
// per spec.md section 4.F's "Evaluate" mode.
func (e *Expression) Evaluate(contextNode Node, vars map[string]any) (any, error) {
	ctx := e.newDynamicContext(contextNode, vars)
	return e.node.Evaluate(ctx)
}

// Select runs the expression in streaming mode, per spec.md section
// 4.F's "Select" mode — preferred when only a prefix of the result is
// needed or the result may be large.
func (e *Expression) Select(contextNode Node, vars map[string]any) (SeqIter, error) {
	ctx := e.newDynamicContext(contextNode, vars)
	return e.node.Select(ctx)
}

// EvaluateString is a convenience entry point compiling and evaluating
// expr in one call, the common case for one-shot queries.
func EvaluateString(expr string, contextNode Node, opts ...Option) (any, error) {
	p := NewParser(opts...)
	compiled, err := p.Parse(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(contextNode, nil)
}
