package compiler

import (
	"fmt"
	"math"
)

// Anonymous scopes live under "_/" as a four level tree, one level per byte
// of a 32-bit id, so no directory holds more than 256 entries.
const anonymousRoot = "_"

// The id space is split in half: ascending allocators hand out ids from the
// bottom half and descending allocators from the top half, so two
// allocators of different direction can never produce the same name.
const (
	ascendingFirst  uint32 = 0
	ascendingLast   uint32 = math.MaxUint32 / 2
	descendingFirst uint32 = math.MaxUint32
	descendingLast  uint32 = math.MaxUint32/2 + 1
)

// AnonymousName renders id as "_/xx/xx/xx/xx", most significant byte first.
func AnonymousName(id uint32) string {
	return fmt.Sprintf("%s/%02x/%02x/%02x/%02x", anonymousRoot, byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// Allocator mints unique anonymous scope names from a private counter.
// One allocator is owned by one stage for the length of a compilation run.
type Allocator struct {
	next       uint32
	last       uint32
	descending bool
	exhausted  bool
}

// NewAscendingAllocator counts up from 0.
func NewAscendingAllocator() *Allocator {
	return &Allocator{next: ascendingFirst, last: ascendingLast}
}

// NewDescendingAllocator counts down from the largest 32-bit value.
func NewDescendingAllocator() *Allocator {
	return &Allocator{next: descendingFirst, last: descendingLast, descending: true}
}

// Next returns the next unused name. Once the allocator's half of the id
// space is used up it returns ErrAllocatorExhausted.
func (a *Allocator) Next() (string, error) {
	if a.exhausted {
		return "", ErrAllocatorExhausted
	}
	id := a.next
	switch {
	case id == a.last:
		a.exhausted = true
	case a.descending:
		a.next--
	default:
		a.next++
	}
	return AnonymousName(id), nil
}
