// Package diskusage measures how much space the node's storage directory
// occupies. Walking a large chain database takes far longer than a tick, so
// the Refresher walks on its own schedule and the tick loop only reads the
// last published result.
package diskusage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SizeOf returns the total size in bytes of the regular files under path.
func SizeOf(path string) (uint64, error) {
	return SizeOfContext(context.Background(), path)
}

// SizeOfContext is SizeOf with cancellation. Unreadable subtrees are
// skipped; only an inaccessible root is an error. A symlinked root is
// resolved first, symlinks below it are not followed.
func SizeOfContext(ctx context.Context, path string) (uint64, error) {
	path, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0, fmt.Errorf("diskusage: %w", err)
	}
	info, err := os.Lstat(path)
	if err != nil {
		return 0, fmt.Errorf("diskusage: %w", err)
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			return uint64(info.Size()), nil
		}
		return 0, nil
	}

	var total uint64
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == path {
				return walkErr
			}
			// Permission denied or the entry vanished mid-walk.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		total += uint64(fi.Size())
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("diskusage: walk %s: %w", path, err)
	}
	return total, nil
}
