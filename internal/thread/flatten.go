package thread

import (
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
)

// Entry is one line of a flattened thread.
type Entry struct {
	Remark *domain.Remark
	Depth  int
}

// node is an arena slot: a remark, its insertion index and its children.
type node struct {
	remark   *domain.Remark
	index    int
	children []*node
	visited  bool
}

// Flatten orders a task's remarks for display.
//
// Remarks without a parent, or whose parent does not resolve to one of the
// given remarks, are roots at depth 0. Each remark is followed by its whole
// subtree; siblings are sorted by ascending timestamp, ties broken by their
// position in the input. The input order matters only as that tie-break.
func Flatten(remarks []*domain.Remark) []Entry {
	if len(remarks) == 0 {
		return nil
	}

	nodes := make(map[uuid.UUID]*node, len(remarks))
	arena := make([]*node, 0, len(remarks))
	for i, r := range remarks {
		if r == nil {
			continue
		}
		if _, dup := nodes[r.ID]; dup {
			continue
		}
		n := &node{remark: r, index: i}
		nodes[r.ID] = n
		arena = append(arena, n)
	}

	var roots []*node
	for _, n := range arena {
		parent := resolveParent(n, nodes)
		if parent == nil {
			roots = append(roots, n)
			continue
		}
		parent.children = append(parent.children, n)
	}

	out := make([]Entry, 0, len(arena))
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		n.visited = true
		out = append(out, Entry{Remark: n.remark, Depth: depth})
		sortNodes(n.children)
		for _, c := range n.children {
			if !c.visited {
				walk(c, depth+1)
			}
		}
	}

	sortNodes(roots)
	for _, r := range roots {
		walk(r, 0)
	}

	// Nodes on a parent cycle are unreachable from any root. Emit them as
	// roots so nothing is lost and the walk terminates.
	if len(out) < len(arena) {
		var stranded []*node
		for _, n := range arena {
			if !n.visited {
				stranded = append(stranded, n)
			}
		}
		sortNodes(stranded)
		for _, n := range stranded {
			if !n.visited {
				walk(n, 0)
			}
		}
	}

	return out
}

// Orphans returns the remarks whose parent ID does not resolve to any of the
// given remarks. Flatten shows them as roots.
func Orphans(remarks []*domain.Remark) []*domain.Remark {
	ids := make(map[uuid.UUID]bool, len(remarks))
	for _, r := range remarks {
		if r != nil {
			ids[r.ID] = true
		}
	}

	var out []*domain.Remark
	for _, r := range remarks {
		if r != nil && r.HasParent() && !ids[*r.ParentID] {
			out = append(out, r)
		}
	}
	return out
}

func resolveParent(n *node, nodes map[uuid.UUID]*node) *node {
	if !n.remark.HasParent() {
		return nil
	}
	parent, ok := nodes[*n.remark.ParentID]
	if !ok || parent == n {
		return nil
	}
	return parent
}

func sortNodes(ns []*node) {
	sort.SliceStable(ns, func(i, j int) bool {
		ti, tj := ns[i].remark.Timestamp, ns[j].remark.Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ns[i].index < ns[j].index
	})
}
