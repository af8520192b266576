package xpath2

// selectStep evaluates one location step: gather axisNodes from the
// context node and filter by node test, per spec.md section 4.C/4.F.
// Attached predicates are applied by the Select/Evaluate wrappers
// (eval.go), which handle predicates on every primary uniformly.
func (n *ExprNode) selectStep(ctx *DynamicContext) (SeqIter, error) {
	if ctx.ContextItem == nil {
		return nil, newError(ErrXPDY0002, n.Pos, "a step requires a context item")
	}
	ctxNode, ok := ctx.ContextItem.(Node)
	if !ok {
		return nil, newError(ErrXPTY0004, n.Pos, "a step requires a context node")
	}
	test := n.Children[0]
	candidates := axisNodes(n.Axis, ctxNode)
	var matched []Node
	for _, c := range candidates {
		if nodeMatchesTest(n.Axis, test, c) {
			matched = append(matched, c)
		}
	}
	if isReverseAxis(n.Axis) {
		reverseNodes(matched)
	}
	items := make([]any, len(matched))
	for i, m := range matched {
		items[i] = m
	}
	return sliceIter(items), nil
}

// nodeMatchesTest applies a name-test or kind-test node-test to a
// candidate, honoring the axis's principal node kind (attribute for the
// attribute axis, element otherwise) per XPath's node-test matching rules.
func nodeMatchesTest(axis string, test *ExprNode, n Node) bool {
	switch test.Op {
	case "name-test":
		principal := ElementNode
		if axis == "attribute" {
			principal = AttributeNode
		}
		if n.Kind() != principal {
			return false
		}
		return test.NT.Matches(n.Name())
	case "any-kind-test":
		return true
	case "document-node-test":
		if n.Kind() != DocumentNode {
			return false
		}
		if len(test.Children) == 0 {
			return true
		}
		// document-node(element(...)) constrains the document element
		for _, c := range n.Children() {
			if c.Kind() == ElementNode {
				return nodeMatchesTest("child", test.Children[0], c)
			}
		}
		return false
	case "element-test":
		if n.Kind() != ElementNode {
			return false
		}
		return kindTestNameMatches(test, n)
	case "attribute-test":
		if n.Kind() != AttributeNode {
			return false
		}
		return kindTestNameMatches(test, n)
	case "text-test":
		return n.Kind() == TextNode
	case "comment-test":
		return n.Kind() == CommentNode
	case "pi-test":
		if n.Kind() != ProcessingInstructionNode {
			return false
		}
		if len(test.Children) == 0 {
			return true
		}
		arg := test.Children[0]
		switch arg.Op {
		case "literal":
			return n.Name().Local == collapseWhitespace(arg.Lit.Str)
		case "type-name":
			return n.Name().Local == arg.TypeName.Local
		}
		return true
	case "schema-attribute-test", "schema-element-test":
		return kindTestNameMatches(test, n)
	default:
		return false
	}
}

func kindTestNameMatches(test *ExprNode, n Node) bool {
	if len(test.Children) == 0 {
		return true
	}
	arg := test.Children[0]
	if arg.Op == "wildcard-arg" {
		return true
	}
	return n.Name() == arg.TypeName
}

// applyPredicates filters items through each predicate in order, setting
// position/size context for each, per spec.md section 4.C.
func applyPredicates(ctx *DynamicContext, items []any, predicates []*ExprNode) ([]any, error) {
	for _, pred := range predicates {
		var kept []any
		size := len(items)
		for i, item := range items {
			pctx := ctx.WithFocus(item, i+1, size)
			v, err := pred.Evaluate(pctx)
			if err != nil {
				return nil, err
			}
			ok, err := predicateMatches(toSeq(v), i+1)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	return items, nil
}

// predicateMatches implements XPath's numeric-predicate-is-positional
// rule: a singleton numeric result selects by 1-based position; anything
// else is coerced to its effective boolean value.
func predicateMatches(seq []any, position int) (bool, error) {
	if len(seq) == 1 {
		if a, ok := seq[0].(Atomic); ok && a.Type.isNumeric() {
			f, _ := a.Float64()
			return f == float64(position), nil
		}
	}
	return EffectiveBooleanValue(seq)
}

// selectPath composes two steps: evaluate the left operand's node
// sequence, then select the right step once per left-hand node, union the
// results, dedup, and sort into document order, per spec.md section 4.F.
func (n *ExprNode) selectPath(ctx *DynamicContext) (SeqIter, error) {
	leftIt, err := n.Children[0].Select(ctx)
	if err != nil {
		return nil, err
	}
	leftItems, err := drain(leftIt)
	if err != nil {
		return nil, err
	}
	var out []Node
	size := len(leftItems)
	for i, item := range leftItems {
		nd, ok := item.(Node)
		if !ok {
			return nil, newError(ErrXPTY0004, n.Pos, "path operand must be a node sequence")
		}
		stepCtx := ctx.WithFocus(nd, i+1, size)
		it, err := n.Children[1].Select(stepCtx)
		if err != nil {
			return nil, err
		}
		items, err := drain(it)
		if err != nil {
			return nil, err
		}
		for _, r := range items {
			rn, ok := r.(Node)
			if !ok {
				return nil, newError(ErrXPTY0004, n.Pos, "path step must return a node sequence")
			}
			out = append(out, rn)
		}
	}
	out = dedupNodes(out)
	out = sortDocumentOrderNodes(ctx.Root, out)
	items := make([]any, len(out))
	for i, nd := range out {
		items[i] = nd
	}
	return sliceIter(items), nil
}

// matchesSequenceTypeItem reports whether a single item matches the
// sequence-type test node st's ItemType component (ignoring occurrence),
// per spec.md section 4.G's "instance of" semantics.
func matchesSequenceTypeItem(st *ExprNode, item any) bool {
	switch st.Op {
	case "item-type":
		return true
	case "any-kind-test", "document-node-test", "element-test", "attribute-test",
		"text-test", "comment-test", "pi-test", "schema-attribute-test", "schema-element-test":
		n, ok := item.(Node)
		if !ok {
			return false
		}
		axis := "child"
		if st.Op == "attribute-test" {
			axis = "attribute"
		}
		return nodeMatchesTest(axis, st, n)
	case "type-name":
		a, ok := item.(Atomic)
		if !ok {
			return false
		}
		return atomicMatchesType(a, st.TypeName)
	default:
		return false
	}
}

// sequenceMatchesOccurrence validates the cardinality of seq against an
// occurrence indicator ('' none, '?', '*', '+'), per spec.md section 4.G.
func sequenceMatchesOccurrence(count int, occurrence byte) bool {
	switch occurrence {
	case '?':
		return count <= 1
	case '*':
		return true
	case '+':
		return count >= 1
	default:
		return count == 1
	}
}
