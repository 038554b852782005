// Package dedup tracks file content hashes so identical payloads are
// recognized regardless of filename. The index is process-memory state: it
// starts empty each run unless rehydration is enabled, and is rebuildable
// from the organized tree at any time.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"curator/internal/errclass"
	"curator/internal/logging"
)

// Record is the canonical location of one content hash.
type Record struct {
	Hash          string
	CanonicalPath string
	FirstSeenAt   time.Time
}

// Index maps content hashes to canonical destination paths. At most one
// canonical path exists per hash. Safe for concurrent use.
type Index struct {
	mu       sync.Mutex
	records  map[string]Record
	reserved map[string]string
	now      func() time.Time
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		records:  make(map[string]Record),
		reserved: make(map[string]string),
		now:      time.Now,
	}
}

// HashFile streams path through SHA-256 and returns the lowercase hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errclass.Wrap(errclass.ErrTransient, "dedup", "hash", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errclass.Wrap(errclass.ErrTransient, "dedup", "hash", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Lookup returns the committed record for hash, if any. Reservations are not
// visible through Lookup.
func (i *Index) Lookup(hash string) (Record, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	rec, ok := i.records[hash]
	return rec, ok
}

// Reserve claims hash for an in-flight move to destination. The first caller
// per hash wins and must later call Commit or Rollback. When the hash is
// already committed or reserved, Reserve returns the existing location and
// false; the caller's payload is a duplicate.
func (i *Index) Reserve(hash, destination string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if rec, ok := i.records[hash]; ok {
		return rec.CanonicalPath, false
	}
	if dest, ok := i.reserved[hash]; ok {
		return dest, false
	}
	i.reserved[hash] = destination
	return destination, true
}

// Commit converts a reservation into a committed record at finalPath, which
// may differ from the reserved destination when the mover had to re-probe a
// late collision.
func (i *Index) Commit(hash, finalPath string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.reserved, hash)
	i.records[hash] = Record{Hash: hash, CanonicalPath: finalPath, FirstSeenAt: i.now()}
}

// Rollback releases a reservation after a failed move so the hash does not
// stay poisoned. A later arrival of the same payload gets a fresh claim.
func (i *Index) Rollback(hash string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.reserved, hash)
}

// Len returns the number of committed records.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.records)
}

// Rehydrate walks the given destination roots and commits a record for every
// regular file found. Later duplicates within the walk keep the first path
// seen. Unreadable files are skipped with a warning; a missing root is not an
// error, the tree may simply not exist yet.
func (i *Index) Rehydrate(ctx context.Context, roots []string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	added := 0
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping unreadable entry during rehydration",
					logging.String(logging.FieldEventType, "rehydrate_skip"),
					logging.String("path", path),
					logging.Error(err),
				)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			hash, err := HashFile(path)
			if err != nil {
				logger.Warn("skipping unhashable file during rehydration",
					logging.String(logging.FieldEventType, "rehydrate_skip"),
					logging.String("path", path),
					logging.Error(err),
				)
				return nil
			}
			i.mu.Lock()
			if _, ok := i.records[hash]; !ok {
				i.records[hash] = Record{Hash: hash, CanonicalPath: path, FirstSeenAt: i.now()}
				added++
			}
			i.mu.Unlock()
			return nil
		})
		if err != nil {
			return added, fmt.Errorf("rehydrate %s: %w", root, err)
		}
	}
	return added, nil
}
