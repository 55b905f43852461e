package cull

// Index is the contract any spatial acceleration structure satisfies, so
// the scene and culling layers stay agnostic of the concrete structure
// (octree, BVH, uniform grid).
//
// Implementations are plain in-memory structures with no internal locking:
// concurrent mutation, or mutation concurrent with a query, must be
// prevented by the caller. Read-only concurrent queries are fine.
type Index interface {
	// Insert adds a new object with its world-space bounds. The handle
	// must not already be present.
	Insert(h Handle, bounds AABB)

	// Remove takes an object out of the index. Removing an absent handle
	// is a no-op.
	Remove(h Handle)

	// Update repositions an already-indexed object. It avoids relocation
	// work when the object has not moved far enough to change cells.
	// Updating an absent handle inserts it.
	Update(h Handle, bounds AABB)

	// QueryFrustum appends every potentially-visible handle to *results.
	// It never clears *results, so callers can accumulate across indices.
	QueryFrustum(f *Frustum, results *[]Handle)

	// Clear removes all objects while keeping the structure's shape.
	Clear()
}
