package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"splice/internal/deps"
	"splice/internal/logging"
	"splice/internal/services"
)

// ManifestName is the concat demuxer list written next to the segments.
const ManifestName = "concat.txt"

// Concatenator joins normalized segments with ffmpeg's concat demuxer using
// stream copy.
type Concatenator struct {
	binary string
	logger *slog.Logger
	run    commandRunner
}

// NewConcatenator constructs a concatenator using the given ffmpeg binary name.
func NewConcatenator(binary string, logger *slog.Logger) *Concatenator {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Concatenator{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "concat"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (c *Concatenator) WithCommandRunner(r commandRunner) {
	if c != nil && r != nil {
		c.run = r
	}
}

// Concat writes the manifest into workDir and joins segments, in the order
// given, into output. The manifest is removed afterwards.
func (c *Concatenator) Concat(ctx context.Context, segments []Segment, workDir, output string) error {
	if c == nil {
		return errors.New("concatenator not initialized")
	}
	if err := checkSegments(segments); err != nil {
		return err
	}
	if err := validatePath("output", output); err != nil {
		return err
	}
	binary, err := deps.Resolve(c.binary)
	if err != nil {
		return err
	}

	manifest := filepath.Join(workDir, ManifestName)
	if err := WriteManifest(manifest, segments); err != nil {
		return services.Wrap(services.ErrToolFailure, "concat", "write manifest", "Failed to write concat manifest", err)
	}
	defer func() {
		if err := os.Remove(manifest); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("failed to remove concat manifest", logging.String("path", manifest), logging.Error(err))
		}
	}()

	logger := logging.WithContext(ctx, c.logger)
	logger.Info("concatenating segments",
		logging.Int("segments", len(segments)),
		logging.String("output", output),
		logging.String(logging.FieldEventType, "concat_start"),
	)

	combined, runErr := c.run(ctx, binary, buildConcatArgs(manifest, output)...)
	if runErr != nil {
		_ = os.Remove(output)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		message := fmt.Sprintf("ffmpeg concat failed\n%s", strings.TrimSpace(string(combined)))
		return services.Wrap(services.ErrToolFailure, "concat", "join segments", message, runErr)
	}

	info, err := os.Stat(output)
	if err != nil || info.IsDir() {
		return services.Wrap(services.ErrToolFailure, "concat", "verify output", "ffmpeg reported success but produced no output file", err)
	}
	return nil
}

// checkSegments rejects empty input, segments not minted by a Normalizer,
// and mixed profiles.
func checkSegments(segments []Segment) error {
	if len(segments) == 0 {
		return services.Wrap(services.ErrValidation, "concat", "validate segments", "no segments to concatenate", nil)
	}
	first := segments[0]
	for i, segment := range segments {
		if segment.minter == nil || segment.path == "" {
			return services.Wrap(services.ErrValidation, "concat", "validate segments",
				fmt.Sprintf("segment %d was not produced by a normalizer", i), nil)
		}
		if segment.profile != first.profile {
			return services.Wrap(services.ErrValidation, "concat", "validate segments",
				fmt.Sprintf("segment %d profile %s differs from %s", i, segment.profile, first.profile), nil)
		}
	}
	return nil
}

// WriteManifest writes one `file '<abs path>'` line per segment. Paths use
// forward slashes and embedded single quotes are escaped for the demuxer.
func WriteManifest(path string, segments []Segment) error {
	var builder strings.Builder
	for _, segment := range segments {
		line, err := manifestLine(segment.path)
		if err != nil {
			return err
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(builder.String()), 0o644)
}

func manifestLine(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	abs = strings.ReplaceAll(filepath.ToSlash(abs), `\`, "/")
	return "file '" + strings.ReplaceAll(abs, "'", `'\''`) + "'", nil
}
