package testutil

import "fmt"

// SequentialIDs generates predictable subscription ids ("sub-1", "sub-2", ...).
//
// This enables exact log assertions in tests; production code uses UUIDv7.
// Not safe for concurrent use; tests subscribe from one goroutine.
type SequentialIDs struct {
	prefix string
	n      int
}

// NewSequentialIDs creates a generator with the given prefix.
// If prefix is empty, "sub" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "sub"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
