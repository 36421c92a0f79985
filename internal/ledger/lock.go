package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// LockPath returns the advisory lock file guarding a ledger.
func LockPath(ledgerPath string) string {
	return ledgerPath + ".lock"
}

// Lock takes the exclusive advisory lock for a ledger's read-modify-write
// cycle, waiting until ctx is done. The returned function releases it.
func Lock(ctx context.Context, ledgerPath string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(ledgerPath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	lock := flock.New(LockPath(ledgerPath))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire ledger lock: %s is held by another process", LockPath(ledgerPath))
	}
	return lock.Unlock, nil
}
