package cull

import (
	"github.com/taigrr/vantage/pkg/math3d"
)

// StaticOctree is a fixed-shape octree over a flat, pre-allocated node
// array. The tree is built once for a world box and a maximum depth; only
// the per-node object lists and the reverse-lookup map mutate afterwards.
//
// Nodes are laid out depth-first, so the 8 subtrees under a node are
// contiguous and a child is addressed as
//
//	firstChild + octant*subtreeSize[remainingDepth-1]
//
// without storing eight pointers per node. Each object is held by exactly
// one node: the deepest node whose cell fully contains its AABB. That
// keeps query results duplicate-free without a seen-set.
//
// Objects whose AABB is not fully contained by the world box land on the
// root. With many out-of-bounds objects the root list degrades to a linear
// scan; if that happens, rebuild the tree with larger bounds.
//
// StaticOctree is not safe for concurrent mutation. Concurrent read-only
// queries are fine as long as no mutation is in flight.
type StaticOctree struct {
	nodes []octreeNode
	// subtreeSize[d] is the node count of a full subtree with d levels
	// below its root: (8^(d+1)-1)/7.
	subtreeSize []int32
	maxDepth    int
	items       map[Handle]octreeItem
}

type octreeNode struct {
	bounds AABB
	// firstChild indexes the first of 8 contiguous child subtrees.
	// 0 means leaf: index 0 is the root and never a valid child.
	firstChild int32
	objects    []Handle
}

// octreeItem is the reverse-lookup record for an indexed object.
type octreeItem struct {
	node   int32
	bounds AABB
}

var _ Index = (*StaticOctree)(nil)

// NewStaticOctree builds the full tree for the given world bounds and
// maximum depth. The node count is (8^(maxDepth+1)-1)/7, so depths beyond
// ~6 are impractical.
func NewStaticOctree(world AABB, maxDepth int) *StaticOctree {
	if maxDepth < 0 {
		maxDepth = 0
	}

	sizes := make([]int32, maxDepth+1)
	total := int32(1)
	pow := int32(8)
	sizes[0] = 1
	for d := 1; d <= maxDepth; d++ {
		total += pow
		pow *= 8
		sizes[d] = total
	}

	t := &StaticOctree{
		nodes:       make([]octreeNode, 0, total),
		subtreeSize: sizes,
		maxDepth:    maxDepth,
		items:       make(map[Handle]octreeItem),
	}
	t.build(world, 0)
	return t
}

// build appends the node for bounds and, depth-first, its 8 child
// subtrees. Depth-first order is what makes child addressing arithmetic.
func (t *StaticOctree) build(bounds AABB, depth int) {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, octreeNode{bounds: bounds})
	if depth == t.maxDepth {
		return
	}

	t.nodes[idx].firstChild = idx + 1
	center := bounds.Center()
	for oct := 0; oct < 8; oct++ {
		t.build(octantBounds(bounds, center, oct), depth+1)
	}
}

// octantBounds returns the child cell for one of the 8 octants, encoded as
// a 3-bit value: bit 0 = X-high, bit 1 = Y-high, bit 2 = Z-high.
func octantBounds(parent AABB, center math3d.Vec3, oct int) AABB {
	b := parent
	if oct&1 != 0 {
		b.Min.X = center.X
	} else {
		b.Max.X = center.X
	}
	if oct&2 != 0 {
		b.Min.Y = center.Y
	} else {
		b.Max.Y = center.Y
	}
	if oct&4 != 0 {
		b.Min.Z = center.Z
	} else {
		b.Max.Z = center.Z
	}
	return b
}

// NodeCount returns the number of nodes in the tree.
func (t *StaticOctree) NodeCount() int {
	return len(t.nodes)
}

// Len returns the number of indexed objects.
func (t *StaticOctree) Len() int {
	return len(t.items)
}

// Bounds returns the world box the tree was built for.
func (t *StaticOctree) Bounds() AABB {
	return t.nodes[0].bounds
}

// Insert adds an object at the deepest node whose cell fully contains its
// bounds. The handle must not already be indexed.
func (t *StaticOctree) Insert(h Handle, bounds AABB) {
	node := t.target(bounds)
	t.nodes[node].objects = append(t.nodes[node].objects, h)
	t.items[h] = octreeItem{node: node, bounds: bounds}
}

// Remove takes an object out of the index in O(1) via the reverse lookup.
// Removing an absent handle is a no-op.
func (t *StaticOctree) Remove(h Handle) {
	item, ok := t.items[h]
	if !ok {
		return
	}
	t.detach(h, item.node)
	delete(t.items, h)
}

// Update repositions an indexed object. If the new bounds map to the same
// node, only the cached AABB is refreshed; that is the common case for a
// mostly-static scene with small moves. An absent handle is inserted.
func (t *StaticOctree) Update(h Handle, bounds AABB) {
	item, ok := t.items[h]
	if !ok {
		t.Insert(h, bounds)
		return
	}

	node := t.target(bounds)
	if node != item.node {
		t.detach(h, item.node)
		t.nodes[node].objects = append(t.nodes[node].objects, h)
	}
	t.items[h] = octreeItem{node: node, bounds: bounds}
}

// QueryFrustum appends every potentially-visible handle to *results.
func (t *StaticOctree) QueryFrustum(f *Frustum, results *[]Handle) {
	t.query(f, 0, 0, results)
}

// Clear empties every node's object list and the reverse lookup, keeping
// the pre-built tree shape.
func (t *StaticOctree) Clear() {
	for i := range t.nodes {
		t.nodes[i].objects = t.nodes[i].objects[:0]
	}
	clear(t.items)
}

// target returns the node index the given bounds belong to. Descent stops
// where the box straddles a split plane, at a leaf, or immediately at the
// root for boxes the world does not contain.
func (t *StaticOctree) target(bounds AABB) int32 {
	if !t.nodes[0].bounds.Contains(bounds) {
		return 0
	}

	var idx int32
	depth := 0
	for {
		n := &t.nodes[idx]
		if n.firstChild == 0 {
			return idx
		}
		center := n.bounds.Center()
		lo := octantOf(center, bounds.Min)
		hi := octantOf(center, bounds.Max)
		if lo != hi {
			// Straddles a split plane on at least one axis.
			return idx
		}
		idx = n.firstChild + int32(lo)*t.subtreeSize[t.maxDepth-depth-1]
		depth++
	}
}

// octantOf encodes which octant of center the point falls into, using the
// same bit layout as octantBounds.
func octantOf(center, p math3d.Vec3) int {
	oct := 0
	if p.X >= center.X {
		oct |= 1
	}
	if p.Y >= center.Y {
		oct |= 2
	}
	if p.Z >= center.Z {
		oct |= 4
	}
	return oct
}

// detach swap-removes h from a node's object list. Order within the list
// is not significant.
func (t *StaticOctree) detach(h Handle, node int32) {
	objs := t.nodes[node].objects
	for i, other := range objs {
		if other == h {
			last := len(objs) - 1
			objs[i] = objs[last]
			t.nodes[node].objects = objs[:last]
			return
		}
	}
}

// query walks the tree, classifying each node's cell against the frustum.
// Outside prunes the subtree; Inside collects it without further plane
// tests; Partial tests the node's resident objects individually by their
// cached world AABB and recurses, re-classifying each child.
func (t *StaticOctree) query(f *Frustum, idx int32, depth int, results *[]Handle) {
	n := &t.nodes[idx]
	switch f.ClassifyAABB(n.bounds) {
	case Outside:
		return
	case Inside:
		t.collect(idx, depth, results)
	case Partial:
		for _, h := range n.objects {
			if f.IntersectsAABB(t.items[h].bounds) {
				*results = append(*results, h)
			}
		}
		if n.firstChild != 0 {
			step := t.subtreeSize[t.maxDepth-depth-1]
			for oct := int32(0); oct < 8; oct++ {
				t.query(f, n.firstChild+oct*step, depth+1, results)
			}
		}
	}
}

// collect appends every handle in a subtree, no plane tests.
func (t *StaticOctree) collect(idx int32, depth int, results *[]Handle) {
	n := &t.nodes[idx]
	*results = append(*results, n.objects...)
	if n.firstChild != 0 {
		step := t.subtreeSize[t.maxDepth-depth-1]
		for oct := int32(0); oct < 8; oct++ {
			t.collect(n.firstChild+oct*step, depth+1, results)
		}
	}
}
