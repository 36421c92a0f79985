package ledger

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"splice/internal/services"
)

// Column names of the persisted ledger, in file order.
const (
	ColumnSequence = "stt"
	ColumnPath     = "file_path"
	ColumnDuration = "duration"
	ColumnAge      = "lastest_used_value"
)

// Header is the fixed column order written to every ledger file.
var Header = []string{ColumnSequence, ColumnPath, ColumnDuration, ColumnAge}

// Asset is one cataloged clip. Path is its identity within a ledger.
type Asset struct {
	Sequence int
	Path     string
	// Duration is rendered "M:SS"; "0:00" stands for an unknown duration.
	Duration string
	// AgeSeconds is the clip age at registration time, nil when unknown.
	AgeSeconds *int64
}

// Ledger is an ordered, path-unique collection of assets.
type Ledger struct {
	assets []Asset
	byPath map[string]int
}

// New builds a ledger from assets in order. Later duplicates of a path are
// rejected with services.ErrDuplicatePath.
func New(assets ...Asset) (*Ledger, error) {
	l := &Ledger{byPath: make(map[string]int, len(assets))}
	for _, asset := range assets {
		if err := l.Append(asset); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds an asset at the end. A path already present is rejected.
func (l *Ledger) Append(asset Asset) error {
	if l.byPath == nil {
		l.byPath = make(map[string]int)
	}
	if _, exists := l.byPath[asset.Path]; exists {
		return services.Wrap(services.ErrDuplicatePath, "ledger", "append", fmt.Sprintf("path already registered: %s", asset.Path), nil)
	}
	l.byPath[asset.Path] = len(l.assets)
	l.assets = append(l.assets, asset)
	return nil
}

// Len returns the number of assets.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.assets)
}

// Assets returns a copy of the assets in ledger order.
func (l *Ledger) Assets() []Asset {
	if l == nil {
		return nil
	}
	return slices.Clone(l.assets)
}

// Paths returns the asset paths in ledger order.
func (l *Ledger) Paths() []string {
	if l == nil {
		return nil
	}
	paths := make([]string, len(l.assets))
	for i, asset := range l.assets {
		paths[i] = asset.Path
	}
	return paths
}

// Contains reports whether path is registered.
func (l *Ledger) Contains(path string) bool {
	if l == nil {
		return false
	}
	_, ok := l.byPath[path]
	return ok
}

// ByPath returns the asset registered for path.
func (l *Ledger) ByPath(path string) (Asset, bool) {
	if l == nil {
		return Asset{}, false
	}
	idx, ok := l.byPath[path]
	if !ok {
		return Asset{}, false
	}
	return l.assets[idx], true
}

// Lookup returns the first asset carrying sequence number seq.
func (l *Ledger) Lookup(seq int) (Asset, bool) {
	if l == nil {
		return Asset{}, false
	}
	for _, asset := range l.assets {
		if asset.Sequence == seq {
			return asset, true
		}
	}
	return Asset{}, false
}

// MaxSequence returns the largest sequence number, or 0 for an empty ledger.
func (l *Ledger) MaxSequence() int {
	if l == nil {
		return 0
	}
	maxSeq := 0
	for _, asset := range l.assets {
		if asset.Sequence > maxSeq {
			maxSeq = asset.Sequence
		}
	}
	return maxSeq
}

var digitRun = regexp.MustCompile(`\d+`)

// LastSequence returns the sequence number of the final row. A row without
// one (the stt column was missing or blank) falls back to the first number in
// its file name. An empty ledger reports 0.
func (l *Ledger) LastSequence() int {
	if l.Len() == 0 {
		return 0
	}
	last := l.assets[len(l.assets)-1]
	if last.Sequence > 0 {
		return last.Sequence
	}
	base := filepath.Base(last.Path)
	run := digitRun.FindString(strings.TrimSuffix(base, filepath.Ext(base)))
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0
	}
	return n
}

// Age returns a pointer suitable for Asset.AgeSeconds.
func Age(seconds int64) *int64 {
	return &seconds
}
