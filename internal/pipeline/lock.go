package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"channelgrab/internal/services"
)

// LockFileName is the advisory lock held in the output directory while a
// fetch writes into it.
const LockFileName = ".channelgrab.lock"

// lockOutputDir creates dir and takes its advisory lock. The returned
// release func is safe to call once.
func lockOutputDir(dir string) (func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "create output dir", dir, err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(
			services.ErrTransient,
			"fetch",
			"lock output dir",
			fmt.Sprintf("another channelgrab process is writing to %s", dir),
			nil,
		)
	}
	return lock.Unlock, nil
}
