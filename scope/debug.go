package scope

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
)

// DumpTree renders the scope subtree rooted at s as a horizontal tree
// for diagnostics. Each node is labeled with the scope's id and its
// watcher/listener counts; the isolated boundary is marked explicitly
// since it is invisible in the attribute values themselves.
func (s *Scope) DumpTree() string {
	root := buildScopeTree(s)
	return root.String()
}

func buildScopeTree(s *Scope) *tree.Tree {
	node := tree.NewTree(tree.NodeString(scopeLabel(s)))
	for _, c := range s.children {
		childTree := buildScopeTree(c)
		addScopeChild(node, childTree)
	}
	return node
}

func addScopeChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addScopeChild(newChild, grandchild)
	}
}

func scopeLabel(s *Scope) string {
	listeners := 0
	for _, slots := range s.listenerSlots {
		for _, slot := range slots {
			if slot.fn != nil {
				listeners++
			}
		}
	}
	label := fmt.Sprintf("%s (watchers=%d listeners=%d)", s.id.String()[:8], len(s.watchers), listeners)
	if s.isolated {
		label += " [isolated]"
	}
	if s.parent == nil {
		label += " [root]"
	}
	return label
}
