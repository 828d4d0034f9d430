package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

const (
	maxFilesPerSnapshot = 500
	maxScanDepth        = 4
)

// FileIntegrityCollector walks the watched paths and emits one event per
// regular file: Scanned on the baseline pass, then Created for unseen paths
// and Modified when a hash changes. Unreadable entries are skipped. Each
// snapshot is capped at maxFilesPerSnapshot files across all roots.
type FileIntegrityCollector struct {
	interval time.Duration
	paths    []string

	mu         sync.Mutex
	lastPoll   time.Time
	lastHashes map[string]string
}

// NewFileIntegrity watches the given roots, falling back to the user config,
// local share, and temp directories when none are configured.
func NewFileIntegrity(interval time.Duration, paths []string) *FileIntegrityCollector {
	if len(paths) == 0 {
		paths = defaultScanPaths()
	}
	return &FileIntegrityCollector{interval: interval, paths: paths}
}

func defaultScanPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config"),
			filepath.Join(home, ".local", "share"),
		)
	}
	return append(paths, os.TempDir())
}

func (c *FileIntegrityCollector) Name() string { return "file_integrity" }

func (c *FileIntegrityCollector) Snapshot(ctx context.Context) ([]event.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastPoll.IsZero() && time.Since(c.lastPoll) < c.interval {
		return nil, nil
	}
	c.lastPoll = time.Now()

	baseline := c.lastHashes == nil
	current := make(map[string]string)
	var events []event.Event

	for _, root := range c.paths {
		if len(events) >= maxFilesPerSnapshot {
			break
		}
		if _, err := os.Stat(root); err != nil {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if len(events) >= maxFilesPerSnapshot {
				return fs.SkipAll
			}
			if d.IsDir() {
				if scanDepth(root, path) >= maxScanDepth {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			sum := sha256.Sum256(data)
			hash := hex.EncodeToString(sum[:])

			info, err := d.Info()
			if err != nil {
				return nil
			}
			modified := info.ModTime().Unix()

			change := event.FileScanned
			if !baseline {
				prev, seen := c.lastHashes[path]
				switch {
				case !seen:
					change = event.FileCreated
				case prev != hash:
					change = event.FileModified
				}
			}

			current[path] = hash
			events = append(events, event.New(event.FileIntegrityActivity{
				Path:       path,
				HashSHA256: hash,
				Size:       uint64(info.Size()),
				ModifiedTS: &modified,
				Change:     change,
			}, "file_integrity"))
			return nil
		})
	}

	c.lastHashes = current
	return events, nil
}

// scanDepth counts path elements below root: the root itself is depth 0.
func scanDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
