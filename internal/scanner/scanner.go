package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"splice/internal/logging"
	"splice/internal/services"
)

// DefaultExtensions is the video allow-list used when Options leaves it empty.
var DefaultExtensions = []string{".mp4", ".avi", ".mkv", ".mov"}

// Options controls a single scan.
type Options struct {
	// Extensions are matched case-insensitively, with or without a leading dot.
	Extensions []string
	// ExcludeMarkers prune any directory whose base name contains one of them.
	ExcludeMarkers []string
	Logger         *slog.Logger
}

// Scan walks root and returns absolute, deduplicated video paths sorted by
// their case-folded form (ties broken by the raw path). Unreadable
// sub-directories are logged and skipped. A root that is missing or not a
// directory is a configuration error.
func Scan(root string, opts Options) ([]string, error) {
	logger := logging.NewComponentLogger(opts.Logger, "scanner")

	absRoot, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil || strings.TrimSpace(root) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "resolve root", fmt.Sprintf("invalid folder %q", root), err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "stat root", fmt.Sprintf("folder %q is not accessible", absRoot), err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "stat root", fmt.Sprintf("%q is not a directory", absRoot), nil)
	}

	extensions := extensionSet(opts.Extensions)
	markers := lowerAll(opts.ExcludeMarkers)

	seen := make(map[string]struct{})
	var files []string
	skippedDirs := 0
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logging.WarnWithContext(logger, "skipping unreadable path", "scan_path_skipped",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check share permissions"),
				logging.String(logging.FieldImpact, "files below this path are not cataloged"),
			)
			if d != nil && d.IsDir() {
				skippedDirs++
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && IsExcludedDir(d.Name(), markers) {
				logger.Debug("excluded directory", logging.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}
		if _, dup := seen[path]; dup {
			return nil
		}
		seen[path] = struct{}{}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "walk", fmt.Sprintf("scan %q", absRoot), walkErr)
	}

	SortPaths(files)
	logger.Debug("scan complete",
		logging.String("root", absRoot),
		logging.Int("files", len(files)),
		logging.Int("skipped_dirs", skippedDirs),
	)
	return files, nil
}

// IsExcludedDir reports whether a directory base name contains any marker,
// case-insensitively. Markers are expected lower-cased.
func IsExcludedDir(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// FoldKey returns the case-folded form used for ordering.
func FoldKey(value string) string {
	return cases.Fold().String(value)
}

// SortPaths orders full paths by their folded form, ties by raw path.
func SortPaths(paths []string) {
	sortBy(paths, func(p string) string { return p })
}

// SortByBaseName orders paths by their folded base name, ties by raw path.
func SortByBaseName(paths []string) {
	sortBy(paths, filepath.Base)
}

func sortBy(paths []string, key func(string) string) {
	keys := make(map[string]string, len(paths))
	for _, p := range paths {
		keys[p] = FoldKey(key(p))
	}
	slices.SortStableFunc(paths, func(a, b string) int {
		if c := strings.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func extensionSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		values = DefaultExtensions
	}
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
