package xpath2

// DefaultRegistry builds the complete XPath 2.0 symbol table: the XPath
// 1.0 operator/axis substrate plus the 2.0 additions (value/general/node
// comparisons, 'to', 'instance of'/'treat as'/'cast as'/'castable as',
// 'for'/'some'/'every', set operators, kind tests), wired to the Nud/Led
// factories of parser.go. Grounded on spec.md section 4.B's "Symbol/Token
// registry" and the teacher's getBuiltinFunctions() table shape (xpath.go),
// generalized from a flat function map to the full operator/axis/kind-test
// symbol set the Pratt grammar needs.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Punctuation operators.
	r.Register(&Symbol{Name: ",", Literal: ",", Lbp: bpComma, Led: ledComma})
	r.Register(&Symbol{Name: "(", Literal: "(", Nud: nudGrouping})
	r.Register(&Symbol{Name: ")", Literal: ")"})
	r.Register(&Symbol{Name: "[", Literal: "[", Lbp: bpPredicate, Led: ledPredicate})
	r.Register(&Symbol{Name: "]", Literal: "]"})
	r.Register(&Symbol{Name: "?", Literal: "?"})
	r.Register(&Symbol{Name: ":", Literal: ":"})
	r.Register(&Symbol{Name: "::", Literal: "::"})

	r.Register(&Symbol{Name: "@", Literal: "@", Nud: nudAttributeShorthand, Labels: []Label{LabelAxis}})
	r.Register(&Symbol{Name: ".", Literal: ".", Nud: nudContextItem})
	r.Register(&Symbol{Name: "..", Literal: "..", Nud: nudParentShorthand})

	r.Register(&Symbol{Name: "/", Literal: "/", Lbp: bpPath, Nud: nudPath(false), Led: ledPath(false)})
	r.Register(&Symbol{Name: "//", Literal: "//", Lbp: bpPath, Nud: nudPath(true), Led: ledPath(true)})

	r.Register(&Symbol{Name: "*", Literal: "*", Lbp: bpMultiplicative, Nud: nudWildcardStep, Led: ledMultiplyOrWildcard("mul")})
	r.Register(&Symbol{Name: "+", Literal: "+", Lbp: bpAdditive, Nud: nudUnary("u-plus"), Led: ledBinary("add", bpAdditive)})
	r.Register(&Symbol{Name: "-", Literal: "-", Lbp: bpAdditive, Nud: nudUnary("u-minus"), Led: ledBinary("sub", bpAdditive)})
	r.Register(&Symbol{Name: "|", Literal: "|", Lbp: bpUnion, Led: ledBinary("union", bpUnion)})

	r.Register(&Symbol{Name: "=", Literal: "=", Lbp: bpComparison, Led: ledBinary("gc-eq", bpComparison)})
	r.Register(&Symbol{Name: "!=", Literal: "!=", Lbp: bpComparison, Led: ledBinary("gc-ne", bpComparison)})
	r.Register(&Symbol{Name: "<", Literal: "<", Lbp: bpComparison, Led: ledBinary("gc-lt", bpComparison)})
	r.Register(&Symbol{Name: "<=", Literal: "<=", Lbp: bpComparison, Led: ledBinary("gc-le", bpComparison)})
	r.Register(&Symbol{Name: ">", Literal: ">", Lbp: bpComparison, Led: ledBinary("gc-gt", bpComparison)})
	r.Register(&Symbol{Name: ">=", Literal: ">=", Lbp: bpComparison, Led: ledBinary("gc-ge", bpComparison)})
	r.Register(&Symbol{Name: "<<", Literal: "<<", Lbp: bpComparison, Led: ledBinary("precedes", bpComparison)})
	r.Register(&Symbol{Name: ">>", Literal: ">>", Lbp: bpComparison, Led: ledBinary("follows", bpComparison)})

	// Word keywords. IsWord so the tokenizer recognizes them only as
	// whole identifiers (never as a prefix of a longer name).
	word := func(name string, lbp int, nud NudFunc, led LedFunc) {
		r.Register(&Symbol{Name: name, IsWord: true, Lbp: lbp, Nud: nud, Led: led, Labels: []Label{LabelOperator}})
	}
	word("or", bpOr, nil, ledBinary("or", bpOr))
	word("and", bpAnd, nil, ledBinary("and", bpAnd))
	word("eq", bpComparison, nil, ledBinary("eq", bpComparison))
	word("ne", bpComparison, nil, ledBinary("ne", bpComparison))
	word("lt", bpComparison, nil, ledBinary("lt", bpComparison))
	word("le", bpComparison, nil, ledBinary("le", bpComparison))
	word("gt", bpComparison, nil, ledBinary("gt", bpComparison))
	word("ge", bpComparison, nil, ledBinary("ge", bpComparison))
	word("is", bpComparison, nil, ledBinary("is", bpComparison))
	word("to", bpTo, nil, ledBinary("to", bpTo))
	word("div", bpMultiplicative, nil, ledBinary("div", bpMultiplicative))
	word("idiv", bpMultiplicative, nil, ledBinary("idiv", bpMultiplicative))
	word("mod", bpMultiplicative, nil, ledBinary("mod", bpMultiplicative))
	word("union", bpUnion, nil, ledBinary("union", bpUnion))
	word("intersect", bpIntersect, nil, ledBinary("intersect", bpIntersect))
	word("except", bpIntersect, nil, ledBinary("except", bpIntersect))
	word("instance", bpInstanceOf, nil, ledInstanceOf)
	word("treat", bpTreatAs, nil, ledTreatAs)
	word("castable", bpCastableAs, nil, ledCastableAs)
	word("cast", bpCastAs, nil, ledCastAs)
	word("if", 0, nudIf, nil)
	word("for", 0, nudFor, nil)
	word("some", 0, nudQuantified("some"), nil)
	word("every", 0, nudQuantified("every"), nil)

	// Bare keywords with no grammar role of their own: consumed only via
	// exprParser.expect at a fixed grammar position ("instance of", "treat
	// as", "cast(able) as", "if (..) then .. else ..", "for $x in ..
	// return ..", "some/every .. satisfies ..").
	bareWord := func(name string) {
		r.Register(&Symbol{Name: name, IsWord: true})
	}
	bareWord("of")
	bareWord("as")
	bareWord("then")
	bareWord("else")
	bareWord("in")
	bareWord("return")
	bareWord("satisfies")

	// Axes. Looked up by the tokenizer under "axis::name" once it has
	// confirmed the "::" lookahead; Text on the resulting token stays the
	// bare axis name, per token.go's scanName.
	axis := func(name string) {
		r.Register(&Symbol{Name: "axis::" + name, Nud: nudAxis(name), Labels: []Label{LabelAxis}})
	}
	for _, name := range []string{
		"child", "descendant", "parent", "ancestor", "following-sibling",
		"preceding-sibling", "following", "preceding", "self",
		"descendant-or-self", "ancestor-or-self", "attribute",
	} {
		axis(name)
	}

	// Kind tests / sequence-type primaries. Registered under their bare
	// name with LabelKindTest so the tokenizer's "looks like a function
	// call" lookahead (peekNonSpaceFrom == '(') recognizes them even
	// though they are never followed by "::".
	kind := func(name string, k NodeKind, op string) {
		r.Register(&Symbol{Name: name, Labels: []Label{LabelKindTest}, Nud: nudKindTest(k, op)})
	}
	kind("document-node", DocumentNode, "document-node-test")
	kind("element", ElementNode, "element-test")
	kind("text", TextNode, "text-test")
	kind("comment", CommentNode, "comment-test")
	kind("processing-instruction", ProcessingInstructionNode, "pi-test")
	kind("schema-attribute", AttributeNode, "schema-attribute-test")
	kind("schema-element", ElementNode, "schema-element-test")
	kind("node", DocumentNode, "any-kind-test")
	// "attribute" is multi-role: axis::attribute above handles the
	// "attribute::" spelling; this entry additionally makes the bare name
	// a kind-test function when immediately followed by '(' ("attribute(A)"),
	// per spec.md's "attribute-axis/attribute-constructor multi-role token".
	kind("attribute", AttributeNode, "attribute-test")
	r.Register(&Symbol{Name: "item", Labels: []Label{LabelKindTest}, Nud: nudItemType})
	r.Register(&Symbol{Name: "empty-sequence", Labels: []Label{LabelKindTest}, Nud: nudEmptySequenceType})

	registerBuiltinFunctions(r)
	return r
}

// registerBuiltinFunctions wires every fn: builtin's bare name as a
// LabelFunction symbol whose Nud is nudCall(name): the tokenizer treats
// the name as a function-call token only when immediately followed by
// '(' (token.go's scanName), matching XPath 2.0's function-call
// disambiguation rule.
func registerBuiltinFunctions(r *Registry) {
	for _, name := range builtinFunctionNames {
		r.Register(&Symbol{Name: name, Labels: []Label{LabelFunction}, Nud: nudCall(name)})
	}
	for _, name := range builtinConstructorNames {
		r.Register(&Symbol{Name: name, Labels: []Label{LabelConstructor}, Nud: nudCall(name)})
	}
}
