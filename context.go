package xpath2

// SeqIter is a pull-based iterator over a lazily-produced sequence,
// backing the "select" evaluation mode of spec.md section 4.F. Calling
// it returns the next item, whether one was available, and any error
// encountered producing it; once it returns ok=false it must keep doing
// so (a spent iterator stays spent).
type SeqIter func() (item any, ok bool, err error)

// drain exhausts a SeqIter into a slice, implementing the "evaluate can
// always materialize select's output" half of the dual evaluation mode.
func drain(it SeqIter) ([]any, error) {
	var out []any
	for {
		item, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}

// sliceIter adapts a materialized slice into a SeqIter, implementing the
// "select can always wrap evaluate's output" half of the dual mode.
func sliceIter(items []any) SeqIter {
	i := 0
	return func() (any, bool, error) {
		if i >= len(items) {
			return nil, false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	}
}

// StaticContext holds the compile-time environment a Parser consults:
// in-scope namespaces, the default element/function namespaces, the
// declared variable names (recorded only; variable references are not
// checked against them), the schema proxy used to resolve atomic type
// names, and the XPath 1.0 compatibility flag that makes general
// comparisons coerce operands through number(). Grounded on spec.md section 4.D
// and the teacher's XPathContext namespace map (xpath.go).
type StaticContext struct {
	Namespaces        map[string]string // prefix -> URI
	DefaultElementNS  string
	DefaultFunctionNS string
	Variables         map[string]XSDType // declared variable names and types; not consulted at parse or evaluation time
	Schema            SchemaProxy
	CompatibilityMode bool // XPath 1.0 compatibility: general comparisons (=, <, ...) with a numeric operand coerce every operand through number(); value comparisons are unaffected
	Strict            bool // when false, a QName-like name with an unbound prefix resolves to no namespace instead of raising FONS0004
}

// NewStaticContext returns a StaticContext pre-populated with the
// statically known namespaces every XPath 2.0 processor predeclares
// (xml, xs, fn), an empty variable map, and no schema.
func NewStaticContext() *StaticContext {
	return &StaticContext{
		Namespaces: map[string]string{
			"xml": XMLNamespace,
			"xs":  XSDNamespace,
			"fn":  FunctionsNamespace,
		},
		Variables: make(map[string]XSDType),
		Strict:    true,
	}
}

// ResolveNamespace resolves a lexical prefix against the in-scope
// namespace map, returning FONS0004 if the prefix is unbound. With Strict
// disabled an unbound prefix resolves to no namespace instead, permitting
// QName-like bare names per spec.md section 6's strict option.
func (s *StaticContext) ResolveNamespace(prefix string) (string, error) {
	if prefix == "" {
		return s.DefaultElementNS, nil
	}
	uri, ok := s.Namespaces[prefix]
	if !ok {
		if !s.Strict {
			return "", nil
		}
		return "", newError(ErrFONS0004, 0, "no namespace bound for prefix %q", prefix)
	}
	return uri, nil
}

// ResolveQName expands a possibly-prefixed lexical name against the
// in-scope namespaces, per spec.md's fn:resolve-QName/static name
// resolution.
func (s *StaticContext) ResolveQName(lexical string) (QName, error) {
	prefix, local := splitQName(lexical)
	uri, err := s.ResolveNamespace(prefix)
	if err != nil {
		return QName{}, err
	}
	return QName{URI: uri, Local: local, Prefix: prefix}, nil
}

func splitQName(lexical string) (prefix, local string) {
	for i := 0; i < len(lexical); i++ {
		if lexical[i] == ':' {
			return lexical[:i], lexical[i+1:]
		}
	}
	return "", lexical
}

// DynamicContext holds the evaluation-time environment: the current
// focus (item/position/size), the document root (needed for document
// order comparisons), the variable bindings in scope, the implicit
// timezone, and a snapshot of the current dateTime so that repeated
// calls to fn:current-dateTime within one evaluation agree. Grounded on
// spec.md section 4.E and the teacher's XPathContext (xpath.go), which
// plays the same current-node/position/size role.
type DynamicContext struct {
	Static *StaticContext

	ContextItem     any
	ContextPosition int
	ContextSize     int
	Root            Node

	variables map[string]any

	CurrentDateTime *Temporal
	ImplicitTZ      int // minutes offset from UTC
}

// NewDynamicContext builds a DynamicContext rooted at root, with an empty
// variable stack and the supplied "now" snapshot and implicit timezone,
// per spec.md section 4.E's "context fixed for the duration of one
// evaluation" invariant.
func NewDynamicContext(static *StaticContext, root Node, now *Temporal, implicitTZMinutes int) *DynamicContext {
	return &DynamicContext{
		Static:          static,
		Root:            root,
		variables:       make(map[string]any),
		CurrentDateTime: now,
		ImplicitTZ:      implicitTZMinutes,
	}
}

// WithFocus returns a shallow copy of ctx with a new context item,
// position and size, used when stepping into a path expression or
// predicate. The variable stack is shared (copy-on-write — see
// WithVariable), so focus changes never pay its cost.
func (ctx *DynamicContext) WithFocus(item any, position, size int) *DynamicContext {
	cp := *ctx
	cp.ContextItem = item
	cp.ContextPosition = position
	cp.ContextSize = size
	return &cp
}

// WithVariable returns a copy of ctx with name bound to value, isolating
// one binding clause's iterations from its siblings (spec.md section
// 4.E's "variable stack with copy-on-write isolation", needed so that
// 'for $x in ..., $y in ...' iterations don't see each other's bindings
// leak backwards). The underlying map is duplicated lazily: only the
// keys are copied, values are shared by reference.
func (ctx *DynamicContext) WithVariable(name string, value any) *DynamicContext {
	cp := *ctx
	cp.variables = make(map[string]any, len(ctx.variables)+1)
	for k, v := range ctx.variables {
		cp.variables[k] = v
	}
	cp.variables[name] = value
	return &cp
}

// Variable looks up a bound variable by its expanded name string (the
// QName.String() form).
func (ctx *DynamicContext) Variable(name string) (any, bool) {
	v, ok := ctx.variables[name]
	return v, ok
}
