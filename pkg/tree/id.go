package tree

import (
	"strconv"
	"sync/atomic"
)

// ID identifies a node for as long as the node is alive. IDs are never
// reused, so an ID seen before a rebuild can never name an unrelated node
// afterwards.
type ID uint64

// RootID is reserved for the root node of every tree.
const RootID ID = 0

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDAllocator issues monotonically increasing node IDs starting at 1.
// The zero value is ready to use.
type IDAllocator struct {
	last atomic.Uint64
}

// Next returns a fresh ID.
func (a *IDAllocator) Next() ID {
	return ID(a.last.Add(1))
}

// Last returns the most recently issued ID, or RootID if none was issued.
func (a *IDAllocator) Last() ID {
	return ID(a.last.Load())
}

// processIDs is shared by every tree in the process and never resets.
var processIDs IDAllocator

// NextID returns a fresh process-wide node ID.
func NextID() ID {
	return processIDs.Next()
}
