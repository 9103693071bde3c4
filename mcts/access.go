package mcts

// NodeAt returns the node at arena index idx, for read-only inspection by
// callers outside the package (mctsdebug, record).
func (t *Tree) NodeAt(idx int32) *Node { return &t.nodes[idx] }

// ChildRef returns the arena index of node idx's localIdx-th materialized
// child.
func (t *Tree) ChildRef(idx int32, localIdx int) int32 {
	n := &t.nodes[idx]
	return int32(t.refs.Uint32(n.childRefOff + uint32(localIdx)*childRefSize))
}

// NumNodes reports the arena's current size, for diagnostics.
func (t *Tree) NumNodes() int { return len(t.nodes) }
