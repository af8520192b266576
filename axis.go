package xpath2

// axisNodes collects the nodes reachable from ctxNode along the named axis,
// in the order the axis defines (document order for forward axes, reverse
// document order for reverse axes per XPath's "reverse axis" rule -- the
// evaluator re-sorts into document order before exposing results since this
// engine always yields select() streams in document order for step
// sequences). Grounded on the teacher's xpathAxisNode.evaluateAxis
// (xpath.go), generalized from the DOM-specific FirstChild/NextSibling walk
// to the spec's Node accessor capabilities (Parent/Children/Attributes).
func axisNodes(axis string, ctxNode Node) []Node {
	switch axis {
	case "self":
		return []Node{ctxNode}
	case "child":
		return append([]Node(nil), ctxNode.Children()...)
	case "attribute":
		return append([]Node(nil), ctxNode.Attributes()...)
	case "parent":
		if p := ctxNode.Parent(); p != nil {
			return []Node{p}
		}
		return nil
	case "descendant":
		var out []Node
		collectDescendants(ctxNode, &out)
		return out
	case "descendant-or-self":
		out := []Node{ctxNode}
		collectDescendants(ctxNode, &out)
		return out
	case "ancestor":
		var out []Node
		for p := ctxNode.Parent(); p != nil; p = p.Parent() {
			out = append(out, p)
		}
		return out
	case "ancestor-or-self":
		out := []Node{ctxNode}
		for p := ctxNode.Parent(); p != nil; p = p.Parent() {
			out = append(out, p)
		}
		return out
	case "following-sibling":
		parent := ctxNode.Parent()
		if parent == nil {
			return nil
		}
		sibs := parent.Children()
		idx := indexOfNode(sibs, ctxNode)
		if idx < 0 {
			return nil
		}
		return append([]Node(nil), sibs[idx+1:]...)
	case "preceding-sibling":
		parent := ctxNode.Parent()
		if parent == nil {
			return nil
		}
		sibs := parent.Children()
		idx := indexOfNode(sibs, ctxNode)
		if idx < 0 {
			return nil
		}
		out := append([]Node(nil), sibs[:idx]...)
		reverseNodes(out)
		return out
	case "following":
		return followingNodes(ctxNode)
	case "preceding":
		out := precedingNodes(ctxNode)
		reverseNodes(out)
		return out
	default:
		return nil
	}
}

func indexOfNode(nodes []Node, n Node) int {
	for i, x := range nodes {
		if sameNode(x, n) {
			return i
		}
	}
	return -1
}

func reverseNodes(nodes []Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

func collectDescendants(n Node, out *[]Node) {
	for _, c := range n.Children() {
		*out = append(*out, c)
		collectDescendants(c, out)
	}
}

// followingNodes returns every node that is after ctxNode in document
// order, excluding its own descendants, per XPath's "following" axis.
func followingNodes(ctxNode Node) []Node {
	root := documentRoot(ctxNode)
	var out []Node
	var descendants []Node
	collectDescendants(ctxNode, &descendants)
	isSelfOrDescendant := func(n Node) bool {
		if sameNode(n, ctxNode) {
			return true
		}
		for _, d := range descendants {
			if sameNode(d, n) {
				return true
			}
		}
		return false
	}
	passed := false
	walk(root, func(n Node) bool {
		if sameNode(n, ctxNode) {
			passed = true
			return true
		}
		if passed && !isSelfOrDescendant(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// precedingNodes returns every node before ctxNode in document order,
// excluding its ancestors, per XPath's "preceding" axis.
func precedingNodes(ctxNode Node) []Node {
	root := documentRoot(ctxNode)
	ancestors := map[Node]bool{}
	for p := ctxNode.Parent(); p != nil; p = p.Parent() {
		ancestors[p] = true
	}
	var out []Node
	walk(root, func(n Node) bool {
		if sameNode(n, ctxNode) {
			return false
		}
		if !ancestors[n] {
			out = append(out, n)
		}
		return true
	})
	return out
}

func documentRoot(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// isReverseAxis reports whether axis enumerates nodes in reverse document
// order, per XPath 2.0's axis definitions; such steps must be re-sorted
// into document order before composing with the next step.
func isReverseAxis(axis string) bool {
	switch axis {
	case "ancestor", "ancestor-or-self", "preceding", "preceding-sibling":
		return true
	default:
		return false
	}
}

func sortDocumentOrderNodes(root Node, nodes []Node) []Node {
	if len(nodes) < 2 {
		return nodes
	}
	order := make(map[Node]int, 1<<8)
	i := 0
	walk(root, func(n Node) bool {
		order[n] = i
		i++
		return true
	})
	out := append([]Node(nil), nodes...)
	insertionSortNodes(out, order)
	return out
}

func insertionSortNodes(nodes []Node, order map[Node]int) {
	for i := 1; i < len(nodes); i++ {
		j := i
		for j > 0 && order[nodes[j-1]] > order[nodes[j]] {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
			j--
		}
	}
}

func dedupNodes(nodes []Node) []Node {
	seen := make(map[Node]bool, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
