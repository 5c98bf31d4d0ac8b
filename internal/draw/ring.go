package draw

// DefaultRingSize is how many recent winners sit out the next draw.
const DefaultRingSize = 10

// Ring is a bounded FIFO of recent winners. Pushing onto a full ring
// evicts the oldest name.
type Ring struct {
	names    []string
	capacity int
}

// NewRing creates a ring holding at most capacity names.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultRingSize
	}
	return &Ring{capacity: capacity}
}

// Push appends names, evicting the oldest past capacity.
func (r *Ring) Push(names ...string) {
	r.names = append(r.names, names...)
	if over := len(r.names) - r.capacity; over > 0 {
		r.names = append([]string(nil), r.names[over:]...)
	}
}

// Contains reports whether name won recently.
func (r *Ring) Contains(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the ring contents, oldest first.
func (r *Ring) Names() []string {
	return append([]string(nil), r.names...)
}

// Reset empties the ring.
func (r *Ring) Reset() {
	r.names = nil
}

// Len returns the number of names held.
func (r *Ring) Len() int {
	return len(r.names)
}

// Capacity returns the maximum number of names held.
func (r *Ring) Capacity() int {
	return r.capacity
}
