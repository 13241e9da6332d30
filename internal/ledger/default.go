package ledger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/medinsight/internal/record"
)

// DefaultDatabase is the file opened by Default when Configure was never
// called.
const DefaultDatabase = "medinsight-history.db"

var (
	defaultMu     sync.Mutex
	defaultLedger *Ledger
	defaultPath   = DefaultDatabase
	defaultOpts   []Option
)

// Configure sets the path and options Default opens with. It does not open
// anything and has no effect on an already opened handle.
func Configure(path string, opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPath = path
	defaultOpts = opts
}

// Default returns the process-wide ledger, opening it on first use.
// A failed open is not cached; the next call retries.
func Default() (*Ledger, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLedger != nil {
		return defaultLedger, nil
	}
	l, err := Open(defaultPath, defaultOpts...)
	if err != nil {
		return nil, err
	}
	defaultLedger = l
	return l, nil
}

// SetDefault installs l as the process-wide ledger.
func SetDefault(l *Ledger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLedger = l
}

// ResetDefault closes and forgets the process-wide ledger.
func ResetDefault() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLedger == nil {
		return nil
	}
	err := defaultLedger.Close()
	defaultLedger = nil
	return err
}

// AddHistoryEvent records d on the process-wide ledger. Like
// (*Ledger).AddHistoryEvent it never fails the caller.
func AddHistoryEvent(ctx context.Context, d record.Draft) {
	l, err := Default()
	if err != nil {
		slog.Error("failed to add history event", "module", d.Module, "action", d.Action, "err", err)
		return
	}
	l.AddHistoryEvent(ctx, d)
}
