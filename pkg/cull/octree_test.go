package cull

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taigrr/vantage/pkg/math3d"
)

func testWorld() AABB {
	return NewAABB(math3d.V3(-100, -100, -100), math3d.V3(100, 100, 100))
}

// everythingFrustum sees the whole test world: a wide orthographic volume
// centered on the origin.
func everythingFrustum() Frustum {
	vp := math3d.Orthographic(-500, 500, -500, 500, 0.1, 1000).
		Mul(math3d.Translate(math3d.V3(0, 0, -500)))
	return FrustumFromMatrix(vp)
}

// forwardCamera looks down -Z from the origin with a 45° vertical FOV.
func forwardCamera() Frustum {
	return FrustumFromMatrix(math3d.Perspective(math.Pi/4, 1.0, 0.1, 1000))
}

func unitBoxAt(center math3d.Vec3) AABB {
	half := math3d.V3(1, 1, 1)
	return NewAABB(center.Sub(half), center.Add(half))
}

func TestNodeCountFormula(t *testing.T) {
	for _, tc := range []struct {
		depth int
		nodes int
	}{
		{0, 1},
		{1, 9},
		{2, 73},
		{3, 585},
	} {
		tree := NewStaticOctree(testWorld(), tc.depth)
		require.Equal(t, tc.nodes, tree.NodeCount(), "depth %d", tc.depth)
	}
}

func TestQueryReturnsEachHandleOnce(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	inserted := make(map[Handle]bool)
	rng := rand.New(rand.NewSource(42))
	for range 200 {
		h := alloc.Alloc()
		center := math3d.V3(
			rng.Float64()*180-90,
			rng.Float64()*180-90,
			rng.Float64()*180-90,
		)
		tree.Insert(h, unitBoxAt(center))
		inserted[h] = true
	}

	f := everythingFrustum()
	var results []Handle
	tree.QueryFrustum(&f, &results)

	require.Len(t, results, len(inserted))
	seen := make(map[Handle]bool)
	for _, h := range results {
		require.False(t, seen[h], "handle returned twice: %v", h)
		require.True(t, inserted[h], "unknown handle returned: %v", h)
		seen[h] = true
	}
}

func TestQueryDoesNotClearResults(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 2)
	alloc := NewAllocator()

	h := alloc.Alloc()
	tree.Insert(h, unitBoxAt(math3d.V3(0, 0, -50)))

	f := everythingFrustum()
	results := []Handle{alloc.Alloc()} // pre-existing entry must survive
	tree.QueryFrustum(&f, &results)

	require.Len(t, results, 2)
	require.Equal(t, h, results[1])
}

func TestOutsideRejection(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	visible := alloc.Alloc()
	behindCamera := alloc.Alloc()
	tree.Insert(visible, NewAABB(math3d.V3(-1, -1, -10), math3d.V3(1, 1, -8)))
	tree.Insert(behindCamera, NewAABB(math3d.V3(-1, -1, 10), math3d.V3(1, 1, 12)))

	f := forwardCamera()
	var results []Handle
	tree.QueryFrustum(&f, &results)

	require.Contains(t, results, visible)
	require.NotContains(t, results, behindCamera)
}

func TestRemoveAndReinsert(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	h := alloc.Alloc()
	box := unitBoxAt(math3d.V3(10, 10, -10))

	tree.Insert(h, box)
	tree.Remove(h)

	f := everythingFrustum()
	var results []Handle
	tree.QueryFrustum(&f, &results)
	require.NotContains(t, results, h)
	require.Zero(t, tree.Len())

	// Removing twice is a no-op, not an error.
	tree.Remove(h)

	tree.Insert(h, box)
	results = results[:0]
	tree.QueryFrustum(&f, &results)
	require.Contains(t, results, h)
}

func TestUpdateMovesBetweenNodes(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	h := alloc.Alloc()
	// Deep in the -X/-Y/-Z octant, then moved to +X/+Y/+Z.
	tree.Insert(h, unitBoxAt(math3d.V3(-50, -50, -50)))
	tree.Update(h, unitBoxAt(math3d.V3(50, 50, 50)))

	// A camera at the old position looking further into the old octant
	// must not see it anymore.
	oldView := math3d.Perspective(math.Pi/4, 1.0, 0.1, 100).
		Mul(math3d.LookAt(math3d.V3(-40, -50, -40), math3d.V3(-60, -50, -60), math3d.Up()))
	oldF := FrustumFromMatrix(oldView)
	var results []Handle
	tree.QueryFrustum(&oldF, &results)
	require.NotContains(t, results, h)

	// A camera looking at the new position must.
	newView := math3d.Perspective(math.Pi/4, 1.0, 0.1, 100).
		Mul(math3d.LookAt(math3d.V3(40, 50, 40), math3d.V3(60, 50, 60), math3d.Up()))
	newF := FrustumFromMatrix(newView)
	results = results[:0]
	tree.QueryFrustum(&newF, &results)
	require.Contains(t, results, h)

	require.Equal(t, 1, tree.Len())
}

func TestUpdateSameNodeRefreshesBounds(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	h := alloc.Alloc()
	tree.Insert(h, unitBoxAt(math3d.V3(50, 50, -50)))

	// A small nudge stays within the same cell but the cached AABB must
	// follow, since Partial nodes test objects by their cached bounds.
	tree.Update(h, unitBoxAt(math3d.V3(51, 50, -50)))

	rec, ok := tree.items[h]
	require.True(t, ok)
	require.Equal(t, unitBoxAt(math3d.V3(51, 50, -50)), rec.bounds)
}

func TestUpdateAbsentHandleInserts(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	h := alloc.Alloc()
	tree.Update(h, unitBoxAt(math3d.V3(0, 0, -50)))

	f := everythingFrustum()
	var results []Handle
	tree.QueryFrustum(&f, &results)
	require.Contains(t, results, h)
}

func TestOutOfBoundsObjectStoredAtRoot(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	h := alloc.Alloc()
	// Entirely outside the world box on +X.
	box := unitBoxAt(math3d.V3(500, 0, 0))
	tree.Insert(h, box)

	rec, ok := tree.items[h]
	require.True(t, ok)
	require.Equal(t, int32(0), rec.node)

	// Seen by a camera whose frustum spans both the external region and
	// the world box. (A frustum that classifies the root Outside prunes
	// everything, root residents included.)
	view := math3d.Perspective(math.Pi/4, 1.0, 0.1, 1000).
		Mul(math3d.LookAt(math3d.V3(600, 0, 0), math3d.V3(0, 0, 0), math3d.Up()))
	f := FrustumFromMatrix(view)
	var results []Handle
	tree.QueryFrustum(&f, &results)
	require.Contains(t, results, h)

	// Not seen by a camera looking the other way.
	away := math3d.Perspective(math.Pi/4, 1.0, 0.1, 200).
		Mul(math3d.LookAt(math3d.V3(-300, 0, 0), math3d.V3(-500, 0, 0), math3d.Up()))
	awayF := FrustumFromMatrix(away)
	results = results[:0]
	tree.QueryFrustum(&awayF, &results)
	require.NotContains(t, results, h)
}

func TestStraddlingObjectStaysAtSplit(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	// Straddles the root's X split plane: stays on the root.
	h := alloc.Alloc()
	tree.Insert(h, NewAABB(math3d.V3(-5, 10, 10), math3d.V3(5, 12, 12)))
	require.Equal(t, int32(0), tree.items[h].node)

	// Fully inside one octant: pushed below the root.
	h2 := alloc.Alloc()
	tree.Insert(h2, unitBoxAt(math3d.V3(50, 50, 50)))
	require.NotEqual(t, int32(0), tree.items[h2].node)
}

func TestDepthZeroTreeIsRootOnly(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 0)
	require.Equal(t, 1, tree.NodeCount())

	alloc := NewAllocator()
	h := alloc.Alloc()
	tree.Insert(h, unitBoxAt(math3d.V3(50, 50, 50)))
	require.Equal(t, int32(0), tree.items[h].node)

	f := everythingFrustum()
	var results []Handle
	tree.QueryFrustum(&f, &results)
	require.Equal(t, []Handle{h}, results)
}

func TestClearKeepsShape(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 2)
	alloc := NewAllocator()

	for range 50 {
		h := alloc.Alloc()
		tree.Insert(h, unitBoxAt(math3d.V3(
			float64(alloc.Len())-25, 0, float64(alloc.Len())-25)))
	}
	require.Equal(t, 50, tree.Len())

	tree.Clear()
	require.Zero(t, tree.Len())
	require.Equal(t, 73, tree.NodeCount())

	f := everythingFrustum()
	var results []Handle
	tree.QueryFrustum(&f, &results)
	require.Empty(t, results)

	// The tree is still usable after a clear.
	h := alloc.Alloc()
	tree.Insert(h, unitBoxAt(math3d.V3(0, 0, 0)))
	tree.QueryFrustum(&f, &results)
	require.Equal(t, []Handle{h}, results)
}

// The scenario from the culling design discussion: depth-3 tree over
// [-100,100]^3, one object in front of a forward-looking camera at the
// origin, one behind it.
func TestForwardCameraScenario(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 3)
	alloc := NewAllocator()

	front := alloc.Alloc()
	behind := alloc.Alloc()
	tree.Insert(front, NewAABB(math3d.V3(-1, -1, -10), math3d.V3(1, 1, -8)))
	tree.Insert(behind, NewAABB(math3d.V3(-1, -1, 10), math3d.V3(1, 1, 12)))

	f := forwardCamera()
	var results []Handle
	tree.QueryFrustum(&f, &results)

	require.Contains(t, results, front)
	require.NotContains(t, results, behind)
}

// Brute-force cross-check: octree query results must match testing every
// object's AABB against the frustum directly. The octree may in principle
// be tighter (it never is — both use the same conservative test), so the
// sets must be equal.
func TestQueryMatchesBruteForce(t *testing.T) {
	tree := NewStaticOctree(testWorld(), 4)
	alloc := NewAllocator()

	rng := rand.New(rand.NewSource(7))
	bounds := make(map[Handle]AABB)
	for range 500 {
		h := alloc.Alloc()
		center := math3d.V3(
			rng.Float64()*220-110, // some out of bounds on purpose
			rng.Float64()*180-90,
			rng.Float64()*180-90,
		)
		size := rng.Float64()*8 + 0.5
		box := NewAABB(center, center.Add(math3d.V3(size, size, size)))
		tree.Insert(h, box)
		bounds[h] = box
	}

	view := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.5, 300).
		Mul(math3d.LookAt(math3d.V3(20, 30, 80), math3d.V3(0, 0, 0), math3d.Up()))
	f := FrustumFromMatrix(view)

	var got []Handle
	tree.QueryFrustum(&f, &got)
	gotSet := make(map[Handle]bool, len(got))
	for _, h := range got {
		require.False(t, gotSet[h], "duplicate handle in results")
		gotSet[h] = true
	}

	for h, box := range bounds {
		require.Equal(t, f.IntersectsAABB(box), gotSet[h],
			"mismatch for %v at %v", h, box)
	}
}

func BenchmarkOctreeQueryFrustum(b *testing.B) {
	tree := NewStaticOctree(testWorld(), 4)
	alloc := NewAllocator()

	rng := rand.New(rand.NewSource(1))
	for range 10000 {
		h := alloc.Alloc()
		center := math3d.V3(
			rng.Float64()*180-90,
			rng.Float64()*180-90,
			rng.Float64()*180-90,
		)
		tree.Insert(h, unitBoxAt(center))
	}

	view := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.5, 150).
		Mul(math3d.LookAt(math3d.V3(0, 0, 90), math3d.V3(0, 0, 0), math3d.Up()))
	f := FrustumFromMatrix(view)

	results := make([]Handle, 0, 10000)
	for b.Loop() {
		results = results[:0]
		tree.QueryFrustum(&f, &results)
	}
}

func BenchmarkOctreeUpdateSameNode(b *testing.B) {
	tree := NewStaticOctree(testWorld(), 4)
	alloc := NewAllocator()
	h := alloc.Alloc()
	tree.Insert(h, unitBoxAt(math3d.V3(50, 50, 50)))

	boxes := [2]AABB{
		unitBoxAt(math3d.V3(50, 50, 50)),
		unitBoxAt(math3d.V3(50.5, 50, 50)),
	}
	i := 0
	for b.Loop() {
		tree.Update(h, boxes[i&1])
		i++
	}
}
