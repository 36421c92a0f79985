package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"splice/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Hardware encoding is off so tests never depend on the host GPU.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Encoding.Hardware = false
	cfgVal.Encoding.Workers = 2
	cfgVal.Runner.IntervalSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalog appends a catalog rooted at <base>/shares/<name> with its ledger
// at <base>/ledgers/<name>.csv. The share directory is created.
func WithCatalog(name, mode, keyword string) ConfigOption {
	return func(b *configBuilder) {
		root := filepath.Join(b.baseDir, "shares", name)
		if err := os.MkdirAll(root, 0o755); err != nil {
			b.t.Fatalf("mkdir share: %v", err)
		}
		b.cfg.Catalogs = append(b.cfg.Catalogs, config.Catalog{
			Name:               name,
			Root:               root,
			Ledger:             filepath.Join(b.baseDir, "ledgers", name+".csv"),
			Mode:               mode,
			Keyword:            keyword,
			NumberWidth:        3,
			BatchSize:          5,
			MinDurationSeconds: b.cfg.Scan.MinDurationSeconds,
			ExcludeMarkers:     append([]string(nil), b.cfg.Scan.ExcludeMarkers...),
			Extensions:         append([]string(nil), b.cfg.Scan.Extensions...),
		})
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. If names is empty, ffmpeg and ffprobe are
// installed with the scripted media stubs instead.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if len(names) == 0 {
			writeMediaStubs(b.t, binDir)
		} else {
			for _, name := range names {
				writeScript(b.t, binDir, name, "#!/bin/sh\nexit 0\n")
			}
		}
		prependPath(b.t, binDir)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

func prependPath(t testing.TB, dir string) {
	t.Helper()
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

func writeScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
