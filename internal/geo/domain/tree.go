package domain

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// Tree indexes a flat node list by id. Queries walk ids, never pointers.
type Tree struct {
	nodes    map[snowflake.ID]GeoNode
	children map[snowflake.ID][]snowflake.ID
}

func NewTree(nodes []GeoNode) *Tree {
	t := &Tree{
		nodes:    make(map[snowflake.ID]GeoNode, len(nodes)),
		children: make(map[snowflake.ID][]snowflake.ID),
	}
	for _, node := range nodes {
		t.nodes[node.ID] = node
		if node.ParentID != nil {
			t.children[*node.ParentID] = append(t.children[*node.ParentID], node.ID)
		}
	}
	for parent := range t.children {
		ids := t.children[parent]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return t
}

func (t *Tree) Get(id snowflake.ID) (GeoNode, bool) {
	node, ok := t.nodes[id]
	return node, ok
}

// Ancestors returns the chain from the direct parent up to the department.
// ok is false when the chain is broken or cyclic.
func (t *Tree) Ancestors(id snowflake.ID) ([]GeoNode, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	chain := make([]GeoNode, 0, 3)
	seen := map[snowflake.ID]struct{}{id: {}}
	for node.ParentID != nil {
		parent, ok := t.nodes[*node.ParentID]
		if !ok {
			return chain, false
		}
		if _, loop := seen[parent.ID]; loop {
			return chain, false
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, parent)
		node = parent
	}
	return chain, node.Level == LevelDepartment
}

// Subtree returns id and all of its descendants, breadth first.
func (t *Tree) Subtree(id snowflake.ID) []snowflake.ID {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	out := []snowflake.ID{id}
	seen := map[snowflake.ID]struct{}{id: {}}
	for i := 0; i < len(out); i++ {
		for _, child := range t.children[out[i]] {
			if _, dup := seen[child]; dup {
				continue
			}
			seen[child] = struct{}{}
			out = append(out, child)
		}
	}
	return out
}

func (t *Tree) Descendants(id snowflake.ID) []GeoNode {
	ids := t.Subtree(id)
	if len(ids) <= 1 {
		return nil
	}
	out := make([]GeoNode, 0, len(ids)-1)
	for _, childID := range ids[1:] {
		out = append(out, t.nodes[childID])
	}
	return out
}
