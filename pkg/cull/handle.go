package cull

// Handle is an opaque, stable identifier for a scene object. It pairs a
// dense slot index with a generation counter so a handle goes stale the
// moment its object is freed, even if the slot is later reused. Handles
// are comparable and work directly as map keys.
type Handle struct {
	index      uint32
	generation uint32
}

// NoHandle is the zero Handle; Allocator never returns it.
var NoHandle = Handle{}

// Index returns the dense slot index, usable to address side arrays.
func (h Handle) Index() int {
	return int(h.index)
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h == NoHandle
}

// Allocator hands out generational handles from a slot map with a free
// list. Freed slots are reused with a bumped generation, so stale handles
// never alias live ones.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	generations []uint32
	free        []uint32
	live        int
}

// NewAllocator creates an empty allocator.
func NewAllocator() *Allocator {
	// Slot 0 is burned so the zero Handle is never valid.
	return &Allocator{generations: []uint32{0}}
}

// Alloc returns a fresh live handle.
func (a *Allocator) Alloc() Handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return Handle{index: idx, generation: a.generations[idx]}
	}
	idx := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	return Handle{index: idx, generation: 0}
}

// Free releases a handle's slot for reuse. Freeing a stale or foreign
// handle is a no-op.
func (a *Allocator) Free(h Handle) {
	if !a.Alive(h) {
		return
	}
	a.generations[h.index]++
	a.free = append(a.free, h.index)
	a.live--
}

// Alive reports whether h refers to a currently allocated slot.
func (a *Allocator) Alive(h Handle) bool {
	return h != NoHandle &&
		int(h.index) < len(a.generations) &&
		a.generations[h.index] == h.generation
}

// Len returns the number of live handles.
func (a *Allocator) Len() int {
	return a.live
}

// Cap returns the number of slots ever allocated, live or free. Side
// arrays indexed by Handle.Index need at least this capacity.
func (a *Allocator) Cap() int {
	return len(a.generations)
}
