package xpath2

// NodeKind enumerates the kinds of nodes a host tree model can expose,
// mirrored from spec.md section 3 (Node).
type NodeKind uint8

const (
	DocumentNode NodeKind = iota
	ElementNode
	AttributeNode
	TextNode
	CommentNode
	ProcessingInstructionNode
	NamespaceNodeKind
)

// Node is the tree-model interface this engine consumes. It is an opaque
// handle supplied by the host; this module never constructs or mutates
// one. Grounded on spec.md section 6 ("Tree model (consumed)") — the
// accessor surface named there (kind, expanded name, string value, typed
// value, parent chain, document order, base URI, document URI, nilled,
// attribute/children iteration) is expressed here as a Go interface
// instead of the duck-typed functions of the originating system.
type Node interface {
	Kind() NodeKind
	Name() QName
	StringValue() string
	TypedValue() []Atomic
	Parent() Node
	DocumentOrder() int
	BaseURI() string
	DocumentURI() string
	Nilled() bool
	Attributes() []Node
	Children() []Node
}

// IsDocumentNode, IsElementNode, IsAttributeNode and IsXPathNode mirror
// the free functions spec.md section 6 lists as consumed from the tree
// model (is_document_node, is_element_node, is_attribute_node,
// is_xpath_node).
func IsDocumentNode(item any) bool {
	n, ok := item.(Node)
	return ok && n != nil && n.Kind() == DocumentNode
}

func IsElementNode(item any, name ...QName) bool {
	n, ok := item.(Node)
	if !ok || n == nil || n.Kind() != ElementNode {
		return false
	}
	if len(name) == 0 {
		return true
	}
	return n.Name() == name[0]
}

func IsAttributeNode(item any, name ...QName) bool {
	n, ok := item.(Node)
	if !ok || n == nil || n.Kind() != AttributeNode {
		return false
	}
	if len(name) == 0 {
		return true
	}
	return n.Name() == name[0]
}

func IsXPathNode(item any) bool {
	n, ok := item.(Node)
	return ok && n != nil
}

// NodeName returns the expanded name of a node item, or the zero QName
// for non-node items.
func NodeName(item any) QName {
	if n, ok := item.(Node); ok && n != nil {
		return n.Name()
	}
	return QName{}
}

// NodeStringValue returns the dm:string-value of a node item.
func NodeStringValue(item any) string {
	if n, ok := item.(Node); ok && n != nil {
		return n.StringValue()
	}
	return ""
}

// NodeNilled reports the xsi:nil state of an element node.
func NodeNilled(item any) bool {
	if n, ok := item.(Node); ok && n != nil {
		return n.Nilled()
	}
	return false
}

func NodeBaseURI(item any) string {
	if n, ok := item.(Node); ok && n != nil {
		return n.BaseURI()
	}
	return ""
}

func NodeDocumentURI(item any) string {
	if n, ok := item.(Node); ok && n != nil {
		return n.DocumentURI()
	}
	return ""
}

// DataValue returns the typed value of an item as a flattened sequence of
// atomics: node items delegate to TypedValue(), atomic items pass through
// unchanged. A node with no typed value (e.g. an untyped element with
// mixed content has an untypedAtomic typed value by definition, so this
// only triggers for kinds that truly carry none) yields ok=false, which
// callers surface as FOTY0012.
func DataValue(item any) ([]Atomic, bool) {
	switch v := item.(type) {
	case Node:
		tv := v.TypedValue()
		if tv == nil {
			return nil, false
		}
		return tv, true
	case Atomic:
		return []Atomic{v}, true
	default:
		return nil, false
	}
}

// StringValue returns the string value of any item: a node's
// dm:string-value, or an atomic's canonical lexical form.
func StringValue(item any) string {
	switch v := item.(type) {
	case Node:
		return v.StringValue()
	case Atomic:
		return v.String()
	default:
		return ""
	}
}

// SchemaProxy is the external collaborator consulted for XSD atomic type
// lookups, instance-of tests and cast conversions, and for the schema
// attribute/element/substitution-group declarations consumed by
// 'schema-attribute'/'schema-element'/'instance of'/'cast as'. Grounded
// on spec.md section 6 ("Schema proxy (consumed)").
type SchemaProxy interface {
	IterAtomicTypes() []QName
	IsInstance(item any, qname QName) (bool, error)
	CastAs(value Atomic, qname QName) (Atomic, error)
	GetAttribute(qname QName) (Node, bool)
	GetElement(qname QName) (Node, bool)
	GetSubstitutionGroup(qname QName) (Node, bool)
}

// documentOrderLess reports whether a precedes b in document order by
// walking the full tree from root, per spec.md section 3's invariant
// ("<</>> compare document order by a full traversal from root").
func documentOrderLess(root Node, a, b Node) (bool, error) {
	if root == nil {
		return false, newError(ErrXPDY0002, 0, "document order comparison requires a dynamic context")
	}
	if sameNode(a, b) {
		return false, nil
	}
	foundA, foundB := false, false
	result := false
	done := false
	walk(root, func(n Node) bool {
		if done {
			return false
		}
		if sameNode(n, a) {
			foundA = true
			if foundB {
				result = false
				done = true
				return false
			}
		}
		if sameNode(n, b) {
			foundB = true
			if foundA {
				result = true
				done = true
				return false
			}
		}
		return true
	})
	if !foundA || !foundB {
		return false, newError(ErrXPTY0004, 0, "operands are not nodes of the XML tree")
	}
	return result, nil
}

// sameNode reports reference-equal node identity, per spec.md section 3
// ("A node's is identity is reference equality").
func sameNode(a, b Node) bool {
	return a == b
}

// walk visits n and its attributes/children in document order, calling
// visit for each. Traversal stops early once visit returns false.
func walk(n Node, visit func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, attr := range n.Attributes() {
		if !visit(attr) {
			return false
		}
	}
	for _, child := range n.Children() {
		if !walk(child, visit) {
			return false
		}
	}
	return true
}
