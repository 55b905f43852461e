// Package scene provides the object store that owns scene objects and
// keeps a spatial index in sync with their world-space bounds.
package scene

import (
	"github.com/taigrr/vantage/pkg/cull"
)

// Object is a named scene entry with its current world-space bounds.
// The index never sees objects, only their handles and AABBs.
type Object struct {
	Name   string
	Bounds cull.AABB
}

type slot struct {
	handle cull.Handle
	object Object
}

// Scene owns object identities and forwards every mutation to the spatial
// index, so the two can never drift apart. All mutation and querying must
// happen on one goroutine, or under external locking, matching the index's
// concurrency contract.
type Scene struct {
	alloc *cull.Allocator
	slots []slot // dense side array addressed by Handle.Index
	index cull.Index
}

// New creates an empty scene backed by the given spatial index.
func New(index cull.Index) *Scene {
	return &Scene{
		alloc: cull.NewAllocator(),
		index: index,
	}
}

// Add registers an object and indexes its bounds, returning its handle.
func (s *Scene) Add(name string, bounds cull.AABB) cull.Handle {
	h := s.alloc.Alloc()
	for len(s.slots) < s.alloc.Cap() {
		s.slots = append(s.slots, slot{})
	}
	s.slots[h.Index()] = slot{handle: h, object: Object{Name: name, Bounds: bounds}}
	s.index.Insert(h, bounds)
	return h
}

// Move updates an object's world bounds. Stale handles are ignored.
func (s *Scene) Move(h cull.Handle, bounds cull.AABB) {
	if !s.alloc.Alive(h) {
		return
	}
	s.slots[h.Index()].object.Bounds = bounds
	s.index.Update(h, bounds)
}

// Remove destroys an object and drops it from the index. Stale handles
// are ignored.
func (s *Scene) Remove(h cull.Handle) {
	if !s.alloc.Alive(h) {
		return
	}
	s.index.Remove(h)
	s.slots[h.Index()] = slot{}
	s.alloc.Free(h)
}

// Reset removes every object. The index keeps its shape.
func (s *Scene) Reset() {
	s.index.Clear()
	s.alloc = cull.NewAllocator()
	s.slots = s.slots[:0]
}

// Get resolves a handle back to its object.
func (s *Scene) Get(h cull.Handle) (Object, bool) {
	if !s.alloc.Alive(h) {
		return Object{}, false
	}
	return s.slots[h.Index()].object, true
}

// Len returns the number of live objects.
func (s *Scene) Len() int {
	return s.alloc.Len()
}

// Visible appends every potentially-visible handle to buf and returns it.
// Pass buf[:0] to reuse an allocation across frames.
func (s *Scene) Visible(f *cull.Frustum, buf []cull.Handle) []cull.Handle {
	s.index.QueryFrustum(f, &buf)
	return buf
}

// Each calls fn for every live object.
func (s *Scene) Each(fn func(h cull.Handle, obj Object)) {
	for i := range s.slots {
		if h := s.slots[i].handle; !h.IsZero() {
			fn(h, s.slots[i].object)
		}
	}
}

// Bounds returns the union of all live object bounds, and false when the
// scene is empty.
func (s *Scene) Bounds() (cull.AABB, bool) {
	var total cull.AABB
	found := false
	s.Each(func(_ cull.Handle, obj Object) {
		if !found {
			total = obj.Bounds
			found = true
			return
		}
		total = total.Union(obj.Bounds)
	})
	return total, found
}
