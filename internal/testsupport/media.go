package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// DurationSuffix names the sidecar file the ffprobe stub reads a clip's
// duration from.
const DurationSuffix = ".duration"

// Environment variables understood by the ffmpeg stub.
const (
	// StubArgsEnv names a file each stub invocation appends its argv to.
	StubArgsEnv = "SPLICE_STUB_ARGS"
	// StubFailEnv makes normalization fail for inputs containing this substring.
	StubFailEnv = "SPLICE_STUB_FAIL"
)

// ProbeSuffix names the sidecar holding the JSON the ffprobe stub returns
// for full stream inspections.
const ProbeSuffix = ".probe.json"

// ffprobeStub prints "<input>.probe.json" for stream inspections and the
// contents of "<input>.duration" for duration probes, or fails like ffprobe
// does on an unreadable container.
const ffprobeStub = `#!/bin/sh
for a; do last=$a; done
case " $* " in
  *" -show_streams "*)
    if [ -f "$last.probe.json" ]; then
      cat "$last.probe.json"
      exit 0
    fi
    ;;
esac
if [ -f "$last.duration" ]; then
  cat "$last.duration"
  exit 0
fi
echo "$last: Invalid data found when processing input" >&2
exit 1
`

// ffmpegStub writes "normalized:<basename>" for encode invocations and the
// byte concatenation of the listed files for concat invocations.
const ffmpegStub = `#!/bin/sh
for a; do out=$a; done
prev=""
input=""
for a; do
  if [ "$prev" = "-i" ]; then input=$a; fi
  prev=$a
done
if [ -n "$SPLICE_STUB_ARGS" ]; then
  echo "$@" >> "$SPLICE_STUB_ARGS"
fi
case " $* " in
  *" -f concat "*)
    : > "$out"
    sed -e "s/^file '//" -e "s/'\$//" "$input" | while IFS= read -r f; do
      cat "$f" >> "$out" || exit 1
    done
    ;;
  *)
    if [ -n "$SPLICE_STUB_FAIL" ]; then
      case "$input" in
        *"$SPLICE_STUB_FAIL"*)
          echo "Error while decoding $input" >&2
          printf 'partial' > "$out"
          exit 1
          ;;
      esac
    fi
    printf 'normalized:%s\n' "$(basename "$input")" > "$out"
    ;;
esac
`

// InstallMediaStubs writes the scripted ffmpeg/ffprobe stubs into a temp
// directory, prepends it to PATH, and returns the directory.
func InstallMediaStubs(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	writeMediaStubs(t, dir)
	prependPath(t, dir)
	return dir
}

// WriteScript writes an executable shell script named name into dir.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	return writeScript(t, dir, name, body)
}

func writeMediaStubs(t testing.TB, dir string) {
	t.Helper()
	writeScript(t, dir, "ffprobe", ffprobeStub)
	writeScript(t, dir, "ffmpeg", ffmpegStub)
}

// WriteVideo creates a placeholder clip at path and records its duration for
// the ffprobe stub. A negative duration leaves the clip unreadable.
func WriteVideo(t testing.TB, path string, seconds float64) {
	t.Helper()
	WriteFile(t, path, 64)
	if seconds < 0 {
		return
	}
	value := strconv.FormatFloat(seconds, 'f', 6, 64) + "\n"
	if err := os.WriteFile(path+DurationSuffix, []byte(value), 0o644); err != nil {
		t.Fatalf("write duration sidecar: %v", err)
	}
}

// WriteProbeJSON records the stream inspection output the ffprobe stub
// returns for the clip at path.
func WriteProbeJSON(t testing.TB, path, payload string) {
	t.Helper()
	if err := os.WriteFile(path+ProbeSuffix, []byte(payload), 0o644); err != nil {
		t.Fatalf("write probe sidecar: %v", err)
	}
}

// ReadArgs returns the lines recorded by the ffmpeg stub through StubArgsEnv.
func ReadArgs(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read stub args: %v", err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// ArgsFile returns a fresh path for StubArgsEnv and sets the variable.
func ArgsFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg-args.log")
	old, had := os.LookupEnv(StubArgsEnv)
	if err := os.Setenv(StubArgsEnv, path); err != nil {
		t.Fatalf("set %s: %v", StubArgsEnv, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(StubArgsEnv, old)
		} else {
			_ = os.Unsetenv(StubArgsEnv)
		}
	})
	return path
}
