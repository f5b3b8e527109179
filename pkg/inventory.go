package dupfilehash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Fatal scan errors. Everything else found while walking or hashing is skipped.
var (
	ErrRootNotFound     = errors.New("scan root does not exist")
	ErrRootNotDirectory = errors.New("scan root is not a directory")
)

// ScanOptions describes what one duplicate scan should look at
type ScanOptions struct {
	Root       string         // directory to scan
	MinSize    uint64         // files smaller than this are ignored; 0 disables the filter
	Recursive  bool           // false limits the walk to the root's direct children
	SkipHidden bool           // skip dot-files and do not descend into dot-directories
	Excludes   []string       // regular expressions matched against root-relative paths
	Ignore     *IgnoreManager // optional preloaded patterns, e.g. from an ignore file
}

// ignoreManager merges Excludes into the optional preloaded manager
func (opts *ScanOptions) ignoreManager() (*IgnoreManager, error) {
	im := NewIgnoreManager("")
	if opts.Ignore != nil {
		im.patterns = append(im.patterns, opts.Ignore.GetPatterns()...)
	}
	if err := im.AddPatterns(opts.Excludes); err != nil {
		return nil, err
	}
	return im, nil
}

// checkScanRoot verifies the root exists, is a directory and can be listed
func checkScanRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return fmt.Errorf("failed to stat scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	dir, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("failed to open scan root %s: %w", root, err)
	}
	defer dir.Close()
	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read scan root %s: %w", root, err)
	}
	return nil
}

// collectInventory walks the scan root and returns every regular file that passes the filters,
// sorted by path. Symlinks are never followed. Unreadable entries are skipped.
func collectInventory(ctx context.Context, opts ScanOptions, workers int) ([]FileRecord, error) {
	defer VerboseEnter()()

	root := filepath.Clean(opts.Root)
	if err := checkScanRoot(root); err != nil {
		return nil, err
	}

	ignore, err := opts.ignoreManager()
	if err != nil {
		return nil, fmt.Errorf("failed to compile exclude patterns: %w", err)
	}

	conf := fastwalk.Config{Follow: false, NumWorkers: workers}
	if !opts.Recursive {
		conf.MaxDepth = 1
	}

	var mu sync.Mutex
	var records []FileRecord

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if err != nil {
			if relPath == "." {
				// the root itself could not be listed
				return err
			}
			VerboseLog(2, "Skipping %s: %v", path, err)
			return nil
		}

		if relPath == "." {
			return nil
		}

		if opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			DebugLog("walk", "hidden entry skipped: %s", relPath)
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if ignore.ShouldIgnore(relPath) {
			DebugLog("walk", "excluded entry skipped: %s", relPath)
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		// Directories, symlinks, devices, sockets and pipes never become records.
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			VerboseLog(2, "Skipping %s: %v", path, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		size := uint64(info.Size())
		if opts.MinSize > 0 && size < opts.MinSize {
			return nil
		}

		DebugLog("walk", "inventoried %s (%d bytes)", relPath, size)

		mu.Lock()
		records = append(records, FileRecord{Path: path, Size: size})
		mu.Unlock()
		return nil
	}

	if err := fastwalk.Walk(&conf, root, walkFn); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("inventory interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	VerboseLog(1, "Found %d files to analyze", len(records))
	return records, nil
}
