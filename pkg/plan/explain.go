package plan

import "strings"

// Explain renders a plan tree, root first, each child indented beneath its
// parent:
//
//	── project (name)
//	    └─ filter math >= 60
//	        └─ scan table t
func Explain(root Node) string {
	var b strings.Builder
	explain(&b, root, "", true, true)
	return b.String()
}

func explain(b *strings.Builder, n Node, prefix string, isRoot, last bool) {
	switch {
	case isRoot:
		b.WriteString("── ")
	case last:
		b.WriteString(prefix + "└─ ")
	default:
		b.WriteString(prefix + "├─ ")
	}
	b.WriteString(n.Describe())
	b.WriteByte('\n')

	childPrefix := prefix + "    "
	if !isRoot && !last {
		childPrefix = prefix + "│   "
	}
	children := n.Children()
	for i, c := range children {
		explain(b, c, childPrefix, false, i == len(children)-1)
	}
}
