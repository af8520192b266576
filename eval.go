package xpath2

import (
	"math"
)

// Evaluate computes the single-item/materialized-sequence/empty result of
// n, per spec.md section 4.F, then filters it through any attached "[...]"
// predicates. Predicates can trail any primary, not just a path step
// ("(1 to 5)[. mod 2 = 0]"), so they are applied here rather than inside
// the step evaluator.
func (n *ExprNode) Evaluate(ctx *DynamicContext) (any, error) {
	v, err := n.evaluateBase(ctx)
	if err != nil || len(n.Predicates) == 0 {
		return v, err
	}
	items, err := applyPredicates(ctx, toSeq(v), n.Predicates)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// evaluateBase is the per-op eager evaluator. The default branch
// materializes Select's stream; nodes whose contract is naturally eager
// (arithmetic, comparisons, if/then/else, cast machinery) are handled
// directly rather than pay a Select() round-trip, per spec.md section 9's
// "default evaluate materializes select" rule.
func (n *ExprNode) evaluateBase(ctx *DynamicContext) (any, error) {
	switch n.Op {
	case "literal":
		return n.Lit, nil
	case "empty-sequence":
		return nil, nil
	case "variable":
		return n.evalVariable(ctx)
	case "context-item":
		return n.evalContextItem(ctx)
	case "paren":
		return n.Children[0].Evaluate(ctx)
	case "comma":
		return n.evalComma(ctx)
	case "if":
		return n.evalIf(ctx)
	case "for":
		return n.materializeSelect(ctx)
	case "some", "every":
		return n.evalQuantified(ctx)
	case "or":
		return n.evalOr(ctx)
	case "and":
		return n.evalAnd(ctx)
	case "add", "sub", "mul", "div", "idiv", "mod":
		return n.evalArithmetic(ctx)
	case "u-plus", "u-minus":
		return n.evalUnaryArith(ctx)
	case "to":
		return n.materializeSelect(ctx)
	case "gc-eq", "gc-ne", "gc-lt", "gc-le", "gc-gt", "gc-ge":
		return n.evalGeneralComparison(ctx)
	case "eq", "ne", "lt", "le", "gt", "ge":
		return n.evalValueComparison(ctx)
	case "is", "precedes", "follows":
		return n.evalNodeComparison(ctx)
	case "union", "intersect", "except":
		return n.materializeSelect(ctx)
	case "instance-of":
		return n.evalInstanceOf(ctx)
	case "treat-as":
		return n.evalTreatAs(ctx)
	case "cast-as":
		return n.evalCastAs(ctx)
	case "castable-as":
		return n.evalCastableAs(ctx)
	case "call":
		return n.evalCall(ctx)
	case "step", "path", "root":
		return n.materializeSelect(ctx)
	case "document-node-test", "element-test", "attribute-test", "text-test",
		"comment-test", "pi-test", "schema-attribute-test", "schema-element-test",
		"empty-sequence-type", "item-type", "any-kind-test":
		return n.evalKindTestAsExpr(ctx)
	default:
		return nil, newError(ErrXPST0003, n.Pos, "unevaluable expression node %q", n.Op)
	}
}

// materializeSelect drains selectBase into a flat slice, per the dual-mode
// default of spec.md section 9. It deliberately bypasses the predicate
// wrapper: evaluateBase's caller (Evaluate) applies predicates itself.
func (n *ExprNode) materializeSelect(ctx *DynamicContext) (any, error) {
	it, err := n.selectBase(ctx)
	if err != nil {
		return nil, err
	}
	items, err := drain(it)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, nil
	}
	return []any(items), nil
}

// Select streams n's result lazily, per spec.md section 4.F, applying any
// attached predicates to the produced sequence (predicate application
// needs the full base sequence for positional tests, so a predicated node
// materializes before re-streaming).
func (n *ExprNode) Select(ctx *DynamicContext) (SeqIter, error) {
	it, err := n.selectBase(ctx)
	if err != nil || len(n.Predicates) == 0 {
		return it, err
	}
	items, err := drain(it)
	if err != nil {
		return nil, err
	}
	items, err = applyPredicates(ctx, items, n.Predicates)
	if err != nil {
		return nil, err
	}
	return sliceIter(items), nil
}

// selectBase is the per-op lazy evaluator. The default wraps evaluateBase's
// materialized result, per spec.md section 9.
func (n *ExprNode) selectBase(ctx *DynamicContext) (SeqIter, error) {
	switch n.Op {
	case "comma":
		return n.selectComma(ctx)
	case "for":
		return n.selectFor(ctx)
	case "to":
		return n.selectRange(ctx)
	case "step":
		return n.selectStep(ctx)
	case "path":
		return n.selectPath(ctx)
	case "root":
		return sliceIter([]any{ctx.Root}), nil
	case "union":
		return n.selectSetOp(ctx, setOpUnion)
	case "intersect":
		return n.selectSetOp(ctx, setOpIntersect)
	case "except":
		return n.selectSetOp(ctx, setOpExcept)
	default:
		v, err := n.evaluateBase(ctx)
		if err != nil {
			return nil, err
		}
		return sliceIter(toSeq(v)), nil
	}
}

// toSeq normalizes an Evaluate result (nil, a single item, or a []any) into
// a flat sequence slice.
func toSeq(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	return []any{v}
}

func (n *ExprNode) evalVariable(ctx *DynamicContext) (any, error) {
	v, ok := ctx.Variable(n.VarName.String())
	if !ok {
		return nil, newError(ErrXPST0008, n.Pos, "variable $%s is not in scope", n.VarName.String())
	}
	return v, nil
}

func (n *ExprNode) evalContextItem(ctx *DynamicContext) (any, error) {
	if ctx.ContextItem == nil {
		return nil, newError(ErrXPDY0002, n.Pos, "context item is undefined")
	}
	return ctx.ContextItem, nil
}

func (n *ExprNode) evalComma(ctx *DynamicContext) (any, error) {
	var out []any
	for _, c := range n.Children {
		v, err := c.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, toSeq(v)...)
	}
	return out, nil
}

func (n *ExprNode) selectComma(ctx *DynamicContext) (SeqIter, error) {
	v, err := n.evalComma(ctx)
	if err != nil {
		return nil, err
	}
	return sliceIter(v.([]any)), nil
}

func (n *ExprNode) evalIf(ctx *DynamicContext) (any, error) {
	cond, err := n.Children[0].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	ebv, err := EffectiveBooleanValue(toSeq(cond))
	if err != nil {
		return nil, err
	}
	if ebv {
		return n.Children[1].Evaluate(ctx)
	}
	return n.Children[2].Evaluate(ctx)
}

func (n *ExprNode) evalOr(ctx *DynamicContext) (any, error) {
	for _, c := range n.Children {
		v, err := c.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		ebv, err := EffectiveBooleanValue(toSeq(v))
		if err != nil {
			return nil, err
		}
		if ebv {
			return NewBoolean(true), nil
		}
	}
	return NewBoolean(false), nil
}

func (n *ExprNode) evalAnd(ctx *DynamicContext) (any, error) {
	for _, c := range n.Children {
		v, err := c.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		ebv, err := EffectiveBooleanValue(toSeq(v))
		if err != nil {
			return nil, err
		}
		if !ebv {
			return NewBoolean(false), nil
		}
	}
	return NewBoolean(true), nil
}

// bindingClauseNodes reinterprets a for/some/every node's Children as
// (variable, source)* pairs followed by a trailing body expression, the
// inverse of parser.go's clausesToNodes.
func bindingClauseNodes(children []*ExprNode) (clauses []*ExprNode, body *ExprNode) {
	n := len(children)
	pairs := (n - 1) / 2
	return children[:pairs*2], children[n-1]
}

// evalQuantified implements some/every via a recursive descent over binding
// slots, short-circuiting as soon as the answer is determined, per spec.md
// section 4.F and section 9's "avoid allocating the full product" note.
func (n *ExprNode) evalQuantified(ctx *DynamicContext) (any, error) {
	clauses, body := bindingClauseNodes(n.Children)
	isEvery := n.Op == "every"
	found := false
	var walkClauses func(i int, c *DynamicContext) error
	walkClauses = func(i int, c *DynamicContext) error {
		if found && !isEvery {
			return nil
		}
		if i >= len(clauses) {
			v, err := body.Evaluate(c)
			if err != nil {
				return err
			}
			ebv, err := EffectiveBooleanValue(toSeq(v))
			if err != nil {
				return err
			}
			if isEvery && !ebv {
				found = true // reused as "violation found" for every
			}
			if !isEvery && ebv {
				found = true
			}
			return nil
		}
		varNode, srcNode := clauses[i], clauses[i+1]
		it, err := srcNode.Select(c)
		if err != nil {
			return err
		}
		for {
			item, ok, err := it()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			next := c.WithVariable(varNode.VarName.String(), item)
			if err := walkClauses(i+2, next); err != nil {
				return err
			}
			if isEvery && found {
				return nil
			}
			if !isEvery && found {
				return nil
			}
		}
	}
	if err := walkClauses(0, ctx); err != nil {
		return nil, err
	}
	if isEvery {
		return NewBoolean(!found), nil
	}
	return NewBoolean(found), nil
}

// selectFor streams the Cartesian product of binding clauses, evaluating
// body once per combination and flattening its result into the output
// stream, per spec.md section 4.F's 'for' semantics.
func (n *ExprNode) selectFor(ctx *DynamicContext) (SeqIter, error) {
	clauses, body := bindingClauseNodes(n.Children)
	items, err := forProduct(ctx, clauses, body)
	if err != nil {
		return nil, err
	}
	return sliceIter(items), nil
}

func forProduct(ctx *DynamicContext, clauses []*ExprNode, body *ExprNode) ([]any, error) {
	if len(clauses) == 0 {
		v, err := body.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		return toSeq(v), nil
	}
	varNode, srcNode := clauses[0], clauses[1]
	it, err := srcNode.Select(ctx)
	if err != nil {
		return nil, err
	}
	var out []any
	for {
		item, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next := ctx.WithVariable(varNode.VarName.String(), item)
		rest, err := forProduct(next, clauses[2:], body)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}
	return out, nil
}

// selectRange implements 'a to b': both ends evaluate to optional
// integers; an empty operand or a > b yields the empty sequence, per
// spec.md section 4.F.
func (n *ExprNode) selectRange(ctx *DynamicContext) (SeqIter, error) {
	lo, ok, err := evalOptionalInteger(ctx, n.Children[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return sliceIter(nil), nil
	}
	hi, ok, err := evalOptionalInteger(ctx, n.Children[1])
	if err != nil {
		return nil, err
	}
	if !ok {
		return sliceIter(nil), nil
	}
	cur := lo
	return func() (any, bool, error) {
		if cur > hi {
			return nil, false, nil
		}
		v := NewInteger(cur)
		cur++
		return v, true, nil
	}, nil
}

func evalOptionalInteger(ctx *DynamicContext, n *ExprNode) (int64, bool, error) {
	v, err := n.Evaluate(ctx)
	if err != nil {
		return 0, false, err
	}
	seq := toSeq(v)
	if len(seq) == 0 {
		return 0, false, nil
	}
	if len(seq) != 1 {
		return 0, false, newError(ErrXPTY0004, n.Pos, "expected a single integer value")
	}
	a, ok := seq[0].(Atomic)
	if !ok || !a.Type.isIntegerFamily() {
		f, isNum := atomicNumeric(seq[0])
		if !isNum {
			return 0, false, newError(ErrXPTY0004, n.Pos, "expected an integer value")
		}
		return int64(f), true, nil
	}
	return a.Int, true, nil
}

func atomicNumeric(item any) (float64, bool) {
	a, ok := item.(Atomic)
	if !ok {
		return 0, false
	}
	return a.Float64()
}

// evalArithmetic implements + - * div idiv mod over singleton numeric
// operands, per spec.md section 4.F. Mixed operands follow the XPath 2.0
// numeric promotion ladder: integer -> decimal -> float -> double, with
// untypedAtomic operands cast to xs:double first.
func (n *ExprNode) evalArithmetic(ctx *DynamicContext) (any, error) {
	l, err := evalSingleAtomic(ctx, n.Children[0])
	if err != nil {
		return nil, err
	}
	r, err := evalSingleAtomic(ctx, n.Children[1])
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}
	if l, err = promoteUntypedToDouble(l, n.Pos); err != nil {
		return nil, err
	}
	if r, err = promoteUntypedToDouble(r, n.Pos); err != nil {
		return nil, err
	}
	lf, lok := l.Float64()
	rf, rok := r.Float64()
	if !lok || !rok {
		return nil, newError(ErrXPTY0004, n.Pos, "arithmetic operand is not numeric")
	}
	bothInt := l.Type.isIntegerFamily() && r.Type.isIntegerFamily()
	rt := arithResultType(l.Type, r.Type)
	switch n.Op {
	case "add":
		if bothInt {
			return NewInteger(l.Int + r.Int), nil
		}
		return Atomic{Type: rt, Num: lf + rf}, nil
	case "sub":
		if bothInt {
			return NewInteger(l.Int - r.Int), nil
		}
		return Atomic{Type: rt, Num: lf - rf}, nil
	case "mul":
		if bothInt {
			return NewInteger(l.Int * r.Int), nil
		}
		return Atomic{Type: rt, Num: lf * rf}, nil
	case "div":
		if rf == 0 {
			if rt == TypeDecimal {
				return nil, newError(ErrFOER0000, n.Pos, "decimal division by zero")
			}
			if lf == 0 || math.IsNaN(lf) {
				return Atomic{Type: rt, Num: math.NaN()}, nil
			}
			sign := 1.0
			if lf < 0 {
				sign = -1
			}
			if math.Signbit(rf) {
				sign = -sign
			}
			return Atomic{Type: rt, Num: sign * math.Inf(1)}, nil
		}
		return Atomic{Type: rt, Num: lf / rf}, nil
	case "idiv":
		if rf == 0 {
			return nil, newError(ErrFOER0000, n.Pos, "integer division by zero")
		}
		if bothInt {
			return NewInteger(l.Int / r.Int), nil
		}
		return NewInteger(int64(lf / rf)), nil
	case "mod":
		if rf == 0 {
			if rt == TypeDecimal {
				return nil, newError(ErrFOER0000, n.Pos, "decimal modulus by zero")
			}
			return Atomic{Type: rt, Num: math.NaN()}, nil
		}
		if bothInt {
			return NewInteger(l.Int % r.Int), nil
		}
		return Atomic{Type: rt, Num: math.Mod(lf, rf)}, nil
	}
	return nil, newError(ErrXPST0003, n.Pos, "unknown arithmetic operator %q", n.Op)
}

// arithResultType picks the result type for a binary arithmetic operation
// over already-promoted operands: double dominates float, float dominates
// decimal; a pure integer pairing is handled by the caller before this
// applies.
func arithResultType(a, b XSDType) XSDType {
	if a == TypeDouble || b == TypeDouble {
		return TypeDouble
	}
	if a == TypeFloat || b == TypeFloat {
		return TypeFloat
	}
	return TypeDecimal
}

// promoteUntypedToDouble casts an untypedAtomic operand to xs:double, the
// implicit conversion arithmetic applies to untyped node content.
func promoteUntypedToDouble(a *Atomic, pos int) (*Atomic, error) {
	if a.Type != TypeUntypedAtomic {
		return a, nil
	}
	f, err := parseDoubleLexical(a.Str)
	if err != nil {
		return nil, newError(ErrFORG0001, pos, "%q cannot be promoted to xs:double", a.Str)
	}
	return &Atomic{Type: TypeDouble, Num: f}, nil
}

func (n *ExprNode) evalUnaryArith(ctx *DynamicContext) (any, error) {
	v, err := evalSingleAtomic(ctx, n.Children[0])
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	f, ok := v.Float64()
	if !ok {
		return nil, newError(ErrXPTY0004, n.Pos, "unary operand is not numeric")
	}
	if n.Op == "u-plus" {
		return *v, nil
	}
	if v.Type.isIntegerFamily() {
		return NewInteger(-v.Int), nil
	}
	return Atomic{Type: v.Type, Num: -f}, nil
}

// evalSingleAtomic evaluates n and atomizes the result, requiring at most
// one value (nil, nil for an empty operand, per XPath's empty-sequence
// propagation through arithmetic/comparison).
func evalSingleAtomic(ctx *DynamicContext, n *ExprNode) (*Atomic, error) {
	v, err := n.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	seq := toSeq(v)
	if len(seq) == 0 {
		return nil, nil
	}
	if len(seq) != 1 {
		return nil, newError(ErrXPTY0004, n.Pos, "operand is not a singleton")
	}
	a, err := atomizeOne(seq[0])
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// evalGeneralComparison implements '=' '!=' '<' '<=' '>' '>=': existential
// over the Cartesian product of both operand sequences (atomized), per
// XPath 2.0's general comparison semantics.
func (n *ExprNode) evalGeneralComparison(ctx *DynamicContext) (any, error) {
	lv, err := n.Children[0].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := n.Children[1].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	ls, err := atomizeAll(toSeq(lv))
	if err != nil {
		return nil, err
	}
	rs, err := atomizeAll(toSeq(rv))
	if err != nil {
		return nil, err
	}
	// XPath 1.0 compatibility: when either side holds a number, every
	// operand is put through number() before comparing, so "12" = 12
	// holds instead of raising a type error.
	if ctx.Static.CompatibilityMode && (anyNumeric(ls) || anyNumeric(rs)) {
		ls = coerceAllToDouble(ls)
		rs = coerceAllToDouble(rs)
	}
	op := generalToValueOp(n.Op)
	for _, a := range ls {
		for _, b := range rs {
			ok, err := compareAtomic(op, a, b)
			if err != nil {
				return nil, err
			}
			if ok {
				return NewBoolean(true), nil
			}
		}
	}
	return NewBoolean(false), nil
}

func generalToValueOp(op string) string {
	switch op {
	case "gc-eq":
		return "eq"
	case "gc-ne":
		return "ne"
	case "gc-lt":
		return "lt"
	case "gc-le":
		return "le"
	case "gc-gt":
		return "gt"
	case "gc-ge":
		return "ge"
	}
	return op
}

func anyNumeric(vs []Atomic) bool {
	for _, a := range vs {
		if a.Type.isNumeric() {
			return true
		}
	}
	return false
}

// coerceAllToDouble applies number() to every value; a value with no
// numeric interpretation becomes NaN, the XPath 1.0 convention.
func coerceAllToDouble(vs []Atomic) []Atomic {
	out := make([]Atomic, len(vs))
	for i, a := range vs {
		if f, ok := numericOf(a); ok {
			out[i] = NewDouble(f)
			continue
		}
		if f, err := parseDoubleLexical(a.String()); err == nil {
			out[i] = NewDouble(f)
			continue
		}
		out[i] = NewDouble(math.NaN())
	}
	return out
}

func atomizeAll(seq []any) ([]Atomic, error) {
	out := make([]Atomic, 0, len(seq))
	for _, it := range seq {
		vs, err := atomize(it)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// evalValueComparison implements 'eq ne lt le gt ge': both operands must
// atomize to a singleton, per spec.md section 4.F.
func (n *ExprNode) evalValueComparison(ctx *DynamicContext) (any, error) {
	l, err := evalSingleAtomic(ctx, n.Children[0])
	if err != nil {
		return nil, err
	}
	r, err := evalSingleAtomic(ctx, n.Children[1])
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}
	ok, err := compareAtomic(n.Op, *l, *r)
	if err != nil {
		return nil, err
	}
	return NewBoolean(ok), nil
}

// compareAtomic compares two atomic values by XSD type rules: numerics
// compare numerically (mixed integer/decimal/double promote to double),
// strings lexically, booleans by truth ordering; mismatched, incomparable
// types fail with XPTY0004, per spec.md section 4.F.
func compareAtomic(op string, a, b Atomic) (bool, error) {
	switch {
	case a.Type.isNumeric() || b.Type.isNumeric() || a.Type == TypeUntypedAtomic || b.Type == TypeUntypedAtomic:
		af, aok := numericOf(a)
		bf, bok := numericOf(b)
		if !aok || !bok {
			return compareGeneric(op, a, b)
		}
		return compareFloat(op, af, bf), nil
	case a.Type == TypeBoolean && b.Type == TypeBoolean:
		return compareBool(op, a.Bool, b.Bool), nil
	case a.Type == TypeQName && b.Type == TypeQName:
		if op != "eq" && op != "ne" {
			return false, newError(ErrXPTY0004, 0, "xs:QName supports only eq/ne comparison")
		}
		eq := a.QName == b.QName
		if op == "ne" {
			eq = !eq
		}
		return eq, nil
	case isStringLike(a.Type) && isStringLike(b.Type):
		return compareString(op, a.Str, b.Str), nil
	case isTemporal(a.Type) && isTemporal(b.Type):
		return compareTemporal(op, a, b)
	default:
		return compareGeneric(op, a, b)
	}
}

func compareGeneric(op string, a, b Atomic) (bool, error) {
	if a.Type != b.Type && a.Type != TypeUntypedAtomic && b.Type != TypeUntypedAtomic {
		return false, newError(ErrXPTY0004, 0, "cannot compare %s to %s", a.Type, b.Type)
	}
	return compareString(op, a.String(), b.String()), nil
}

func numericOf(a Atomic) (float64, bool) {
	if a.Type == TypeUntypedAtomic {
		f, err := parseDoubleLexical(a.Str)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return a.Float64()
}

func isStringLike(t XSDType) bool {
	switch t {
	case TypeString, TypeNormalizedString, TypeToken, TypeLanguage, TypeName,
		TypeNCName, TypeID, TypeIDREF, TypeENTITY, TypeNMTOKEN, TypeAnyURI, TypeUntypedAtomic:
		return true
	default:
		return false
	}
}

func isTemporal(t XSDType) bool {
	switch t {
	case TypeDateTime, TypeDate, TypeTime, TypeGYear, TypeGYearMonth, TypeGMonth, TypeGMonthDay, TypeGDay,
		TypeDuration, TypeYearMonthDuration, TypeDayTimeDuration:
		return true
	default:
		return false
	}
}

func compareFloat(op string, a, b float64) bool {
	switch op {
	case "eq":
		return a == b
	case "ne":
		return a != b
	case "lt":
		return a < b
	case "le":
		return a <= b
	case "gt":
		return a > b
	case "ge":
		return a >= b
	}
	return false
}

func compareString(op string, a, b string) bool {
	switch op {
	case "eq":
		return a == b
	case "ne":
		return a != b
	case "lt":
		return a < b
	case "le":
		return a <= b
	case "gt":
		return a > b
	case "ge":
		return a >= b
	}
	return false
}

func compareBool(op string, a, b bool) bool {
	ai, bi := 0, 0
	if a {
		ai = 1
	}
	if b {
		bi = 1
	}
	return compareFloat(op, float64(ai), float64(bi))
}

// compareTemporal compares two values of the same temporal family by their
// UTC-normalized instant (duration values compare by total seconds); mixed
// families are a type error.
func compareTemporal(op string, a, b Atomic) (bool, error) {
	if a.Type != b.Type {
		return false, newError(ErrXPTY0004, 0, "cannot compare %s to %s", a.Type, b.Type)
	}
	if isDurationType(a.Type) {
		as := durationTotalSeconds(a.Dur)
		bs := durationTotalSeconds(b.Dur)
		return compareFloat(op, as, bs), nil
	}
	at := temporalInstantSeconds(a.Temp)
	bt := temporalInstantSeconds(b.Temp)
	return compareFloat(op, at, bt), nil
}

func isDurationType(t XSDType) bool {
	return t == TypeDuration || t == TypeYearMonthDuration || t == TypeDayTimeDuration
}

func durationTotalSeconds(d *Duration) float64 {
	if d == nil {
		return 0
	}
	s := float64(d.Months)*30*86400 + d.Seconds
	if d.Negative {
		return -s
	}
	return s
}

func temporalInstantSeconds(t *Temporal) float64 {
	if t == nil {
		return 0
	}
	days := daysFromCivil(t.Year, t.Month, t.Day)
	if t.BCE {
		days = daysFromCivil(-t.Year+1, t.Month, t.Day)
	}
	secs := float64(days)*86400 + float64(t.Hour)*3600 + float64(t.Minute)*60 + t.Second
	if t.HasTimezone {
		secs -= float64(t.TZOffsetMin) * 60
	}
	return secs
}

// daysFromCivil converts a proleptic Gregorian y-m-d to a day count using
// Howard Hinnant's days_from_civil algorithm, avoiding a dependency on
// time.Time (which cannot represent XPath's unbounded xs:date year range).
func daysFromCivil(y, m, d int) int64 {
	yy := int64(y)
	if m <= 2 {
		yy--
	}
	era := yy
	if yy < 0 {
		era = yy - 399
	}
	era /= 400
	yoe := yy - era*400
	var mp int64
	if int64(m) > 2 {
		mp = int64(m) - 3
	} else {
		mp = int64(m) + 9
	}
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// evalNodeComparison implements 'is', '<<', '>>': single-node operands.
func (n *ExprNode) evalNodeComparison(ctx *DynamicContext) (any, error) {
	lv, err := n.Children[0].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := n.Children[1].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	ls := toSeq(lv)
	rs := toSeq(rv)
	if len(ls) == 0 || len(rs) == 0 {
		return nil, nil
	}
	if len(ls) != 1 || len(rs) != 1 {
		return nil, newError(ErrXPTY0004, n.Pos, "node comparison requires singleton operands")
	}
	ln, lok := ls[0].(Node)
	rn, rok := rs[0].(Node)
	if !lok || !rok {
		return nil, newError(ErrXPTY0004, n.Pos, "node comparison requires node operands")
	}
	switch n.Op {
	case "is":
		return NewBoolean(sameNode(ln, rn)), nil
	case "precedes":
		less, err := documentOrderLess(ctx.Root, ln, rn)
		if err != nil {
			return nil, err
		}
		return NewBoolean(less), nil
	case "follows":
		less, err := documentOrderLess(ctx.Root, rn, ln)
		if err != nil {
			return nil, err
		}
		return NewBoolean(less), nil
	}
	return nil, newError(ErrXPST0003, n.Pos, "unknown node comparison %q", n.Op)
}

type setOp int

const (
	setOpUnion setOp = iota
	setOpIntersect
	setOpExcept
)

// selectSetOp materializes both operand streams into node sets, combines
// them per op, then re-emits in document order, per spec.md section 4.F's
// "union/intersect/except materialize both operand streams into sets".
func (n *ExprNode) selectSetOp(ctx *DynamicContext, op setOp) (SeqIter, error) {
	lv, err := n.Children[0].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := n.Children[1].Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	lnodes, err := asNodeSet(toSeq(lv))
	if err != nil {
		return nil, err
	}
	rnodes, err := asNodeSet(toSeq(rv))
	if err != nil {
		return nil, err
	}
	rset := map[Node]bool{}
	for _, r := range rnodes {
		rset[r] = true
	}
	var out []Node
	switch op {
	case setOpUnion:
		out = append(out, lnodes...)
		out = append(out, rnodes...)
		out = dedupNodes(out)
	case setOpIntersect:
		for _, l := range lnodes {
			if rset[l] {
				out = append(out, l)
			}
		}
		out = dedupNodes(out)
	case setOpExcept:
		for _, l := range lnodes {
			if !rset[l] {
				out = append(out, l)
			}
		}
		out = dedupNodes(out)
	}
	out = sortDocumentOrderNodes(ctx.Root, out)
	items := make([]any, len(out))
	for i, nd := range out {
		items[i] = nd
	}
	return sliceIter(items), nil
}

func asNodeSet(seq []any) ([]Node, error) {
	out := make([]Node, 0, len(seq))
	for _, it := range seq {
		nd, ok := it.(Node)
		if !ok {
			return nil, newError(ErrXPTY0004, 0, "operand of a set operator is not a node sequence")
		}
		out = append(out, nd)
	}
	return out, nil
}

// evalKindTestAsExpr lets a kind-test/item-type symbol double as an
// expression: it yields the context item iff the item matches the test,
// per spec.md section 4.H ("as expressions they yield the context item iff
// it matches the kind").
func (n *ExprNode) evalKindTestAsExpr(ctx *DynamicContext) (any, error) {
	if ctx.ContextItem == nil {
		return nil, newError(ErrXPDY0002, n.Pos, "context item is undefined")
	}
	if matchesSequenceTypeItem(n, ctx.ContextItem) {
		return ctx.ContextItem, nil
	}
	return nil, nil
}
