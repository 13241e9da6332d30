package live

import (
	"context"
	"fmt"

	"github.com/roach88/medinsight/internal/record"
)

// Reader is the read side of the ledger store.
type Reader interface {
	ReadAll(ctx context.Context) ([]record.Event, error)
	ReadByModule(ctx context.Context, module string) ([]record.Event, error)
}

// Query describes a live read. All queries order by timestamp descending,
// ties broken by id descending.
type Query struct {
	module string
}

// All selects every event.
func All() Query { return Query{} }

// ByModule selects events recorded by one module.
func ByModule(module string) Query {
	return Query{module: record.NormalizeLabel(module)}
}

// Module returns the module filter, or "" for All.
func (q Query) Module() string { return q.module }

// String describes the query for logs.
func (q Query) String() string {
	if q.module == "" {
		return "all"
	}
	return fmt.Sprintf("module=%q", q.module)
}

// Run evaluates the query against r.
func (q Query) Run(ctx context.Context, r Reader) ([]record.Event, error) {
	if q.module == "" {
		return r.ReadAll(ctx)
	}
	return r.ReadByModule(ctx, q.module)
}

// Affected reports whether ch can change the query's result.
// An append to another module cannot; every other change might.
func (q Query) Affected(ch Change) bool {
	if q.module == "" {
		return true
	}
	if ch.Kind == ChangeAppend && ch.Module != "" {
		return ch.Module == q.module
	}
	return true
}

// ChangeKind enumerates committed mutations.
type ChangeKind int

const (
	// ChangeAppend is a single appended event.
	ChangeAppend ChangeKind = iota + 1
	// ChangeDelete is a single deleted event.
	ChangeDelete
	// ChangeClear is a full erasure.
	ChangeClear
	// ChangeImport is a bulk import (replace or append).
	ChangeImport
	// ChangeExternal is a commit by another process, contents unknown.
	ChangeExternal
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAppend:
		return "append"
	case ChangeDelete:
		return "delete"
	case ChangeClear:
		return "clear"
	case ChangeImport:
		return "import"
	case ChangeExternal:
		return "external"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change describes a committed mutation.
type Change struct {
	Kind ChangeKind
	// Module is the affected module for appends; empty when unknown or many.
	Module string
	// Count is the number of events written or removed.
	Count int
}
