package xpath2

import (
	"math"
	"strings"
)

// Serialize renders the operator form of the expression tree: a string
// that re-parses to an equivalent tree. Parentheses are emitted only
// where the child's precedence demands them, so serializing a parsed
// tree and re-parsing its output is a fixpoint.
func (n *ExprNode) Serialize() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

// binaryOpSpelling maps the internal binary Op names back to their
// surface spellings.
var binaryOpSpelling = map[string]string{
	"or": "or", "and": "and",
	"eq": "eq", "ne": "ne", "lt": "lt", "le": "le", "gt": "gt", "ge": "ge",
	"gc-eq": "=", "gc-ne": "!=", "gc-lt": "<", "gc-le": "<=", "gc-gt": ">", "gc-ge": ">=",
	"is": "is", "precedes": "<<", "follows": ">>",
	"to":  "to",
	"add": "+", "sub": "-", "mul": "*",
	"div": "div", "idiv": "idiv", "mod": "mod",
	"union": "union", "intersect": "intersect", "except": "except",
}

// opPrec returns the binding power of an expression node's operator, for
// deciding where the serializer must parenthesize. Non-operator nodes
// (literals, calls, steps) bind tighter than any operator.
func opPrec(op string) int {
	switch op {
	case "comma":
		return bpComma
	case "if", "for", "some", "every":
		return bpComma + 1
	case "or":
		return bpOr
	case "and":
		return bpAnd
	case "eq", "ne", "lt", "le", "gt", "ge",
		"gc-eq", "gc-ne", "gc-lt", "gc-le", "gc-gt", "gc-ge",
		"is", "precedes", "follows":
		return bpComparison
	case "to":
		return bpTo
	case "add", "sub":
		return bpAdditive
	case "mul", "div", "idiv", "mod":
		return bpMultiplicative
	case "union":
		return bpUnion
	case "intersect", "except":
		return bpIntersect
	case "instance-of":
		return bpInstanceOf
	case "treat-as":
		return bpTreatAs
	case "castable-as":
		return bpCastableAs
	case "cast-as":
		return bpCastAs
	case "u-plus", "u-minus":
		return bpUnary
	case "path", "root":
		return bpPath
	default:
		return bpPredicate + 10
	}
}

func (n *ExprNode) write(sb *strings.Builder, minPrec int) {
	prec := opPrec(n.Op)
	wrap := prec < minPrec
	if wrap {
		sb.WriteByte('(')
	}
	n.writeBody(sb, prec)
	for _, pred := range n.Predicates {
		sb.WriteByte('[')
		pred.write(sb, 0)
		sb.WriteByte(']')
	}
	if wrap {
		sb.WriteByte(')')
	}
}

func (n *ExprNode) writeBody(sb *strings.Builder, prec int) {
	if spell, ok := binaryOpSpelling[n.Op]; ok {
		n.Children[0].write(sb, prec)
		sb.WriteString(" " + spell + " ")
		n.Children[1].write(sb, prec+1)
		return
	}
	switch n.Op {
	case "literal":
		writeLiteral(sb, n.Lit)
	case "empty-sequence":
		sb.WriteString("()")
	case "variable":
		sb.WriteString("$" + n.VarName.String())
	case "context-item":
		sb.WriteByte('.')
	case "paren":
		sb.WriteByte('(')
		n.Children[0].write(sb, 0)
		sb.WriteByte(')')
	case "comma":
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			c.write(sb, bpComma+1)
		}
	case "if":
		sb.WriteString("if (")
		n.Children[0].write(sb, 0)
		sb.WriteString(") then ")
		n.Children[1].write(sb, bpComma+1)
		sb.WriteString(" else ")
		n.Children[2].write(sb, bpComma+1)
	case "for", "some", "every":
		keyword := n.Op
		closer := " satisfies "
		if n.Op == "for" {
			closer = " return "
		}
		sb.WriteString(keyword + " ")
		clauses, body := bindingClauseNodes(n.Children)
		for i := 0; i < len(clauses); i += 2 {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + clauses[i].VarName.String() + " in ")
			clauses[i+1].write(sb, bpComma+1)
		}
		sb.WriteString(closer)
		body.write(sb, bpComma+1)
	case "u-plus", "u-minus":
		if n.Op == "u-minus" {
			sb.WriteByte('-')
		} else {
			sb.WriteByte('+')
		}
		n.Children[0].write(sb, bpUnary)
	case "instance-of", "treat-as", "cast-as", "castable-as":
		keyword := map[string]string{
			"instance-of": " instance of ", "treat-as": " treat as ",
			"cast-as": " cast as ", "castable-as": " castable as ",
		}[n.Op]
		n.Children[0].write(sb, prec+1)
		sb.WriteString(keyword)
		writeSequenceType(sb, n.Children[1])
	case "call":
		sb.WriteString(n.FuncName)
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			c.write(sb, bpComma+1)
		}
		sb.WriteByte(')')
	case "root":
		sb.WriteByte('/')
	case "path":
		left, right := n.Children[0], n.Children[1]
		if left.Op == "root" && len(left.Predicates) == 0 {
			sb.WriteByte('/')
		} else {
			left.write(sb, bpPath)
			sb.WriteByte('/')
		}
		right.write(sb, bpPath)
	case "step":
		writeStep(sb, n)
	case "document-node-test", "element-test", "attribute-test", "text-test",
		"comment-test", "pi-test", "schema-attribute-test", "schema-element-test",
		"any-kind-test", "item-type", "empty-sequence-type":
		writeKindTest(sb, n)
	case "name-test":
		sb.WriteString(nameTestString(n.NT))
	default:
		sb.WriteString(n.Op)
	}
}

func writeLiteral(sb *strings.Builder, a Atomic) {
	switch {
	case a.Type == TypeString:
		writeQuoted(sb, a.Str)
	case a.Type == TypeBoolean:
		if a.Bool {
			sb.WriteString("true()")
		} else {
			sb.WriteString("false()")
		}
	case a.Type == TypeInteger, a.Type == TypeDecimal:
		sb.WriteString(a.String())
	case a.Type == TypeDouble:
		if math.IsNaN(a.Num) || math.IsInf(a.Num, 0) {
			sb.WriteString(`xs:double(`)
			writeQuoted(sb, a.String())
			sb.WriteByte(')')
		} else {
			sb.WriteString(a.String())
		}
	default:
		// A folded constructor result round-trips through its own
		// constructor call, which re-folds to the same literal.
		sb.WriteString("xs:" + a.Type.String() + "(")
		writeQuoted(sb, a.String())
		sb.WriteByte(')')
	}
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	sb.WriteString(strings.ReplaceAll(s, `"`, `""`))
	sb.WriteByte('"')
}

func writeStep(sb *strings.Builder, n *ExprNode) {
	switch n.Axis {
	case "child":
	case "attribute":
		sb.WriteByte('@')
	default:
		sb.WriteString(n.Axis + "::")
	}
	n.Children[0].write(sb, bpPredicate)
}

var kindTestSpelling = map[string]string{
	"document-node-test": "document-node", "element-test": "element",
	"attribute-test": "attribute", "text-test": "text",
	"comment-test": "comment", "pi-test": "processing-instruction",
	"schema-attribute-test": "schema-attribute", "schema-element-test": "schema-element",
	"any-kind-test": "node", "item-type": "item", "empty-sequence-type": "empty-sequence",
}

func writeKindTest(sb *strings.Builder, n *ExprNode) {
	sb.WriteString(kindTestSpelling[n.Op])
	sb.WriteByte('(')
	for i, arg := range n.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch arg.Op {
		case "type-name":
			sb.WriteString(arg.TypeName.String())
		case "wildcard-arg":
			sb.WriteByte('*')
		case "literal":
			writeQuoted(sb, arg.Lit.Str)
		default:
			writeKindTest(sb, arg)
		}
	}
	sb.WriteByte(')')
}

func writeSequenceType(sb *strings.Builder, st *ExprNode) {
	if st.Op == "type-name" {
		sb.WriteString(st.TypeName.String())
	} else {
		writeKindTest(sb, st)
	}
	if st.Occurrence != 0 && st.Op != "empty-sequence-type" {
		sb.WriteByte(st.Occurrence)
	}
}

func nameTestString(nt *NameTest) string {
	switch {
	case nt.AnyURI && nt.AnyLocal:
		return "*"
	case nt.AnyURI:
		return "*:" + nt.Local
	case nt.AnyLocal:
		return nt.RawPrefix + ":*"
	case nt.RawPrefix != "":
		return nt.RawPrefix + ":" + nt.Local
	default:
		return nt.Local
	}
}
