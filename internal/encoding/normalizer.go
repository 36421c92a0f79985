package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"splice/internal/deps"
	"splice/internal/logging"
	"splice/internal/services"
)

// commandRunner executes an external tool and returns its combined output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// hardwareProbe reports whether NVENC can be used on this host.
type hardwareProbe interface {
	NVENCAvailable() bool
}

// Segment is a clip that has been normalized to a profile. Only a Normalizer
// can produce one, which lets the Concatenator trust that every segment it
// joins shares codec, resolution, frame rate, and audio layout.
type Segment struct {
	path    string
	source  string
	profile Profile
	minter  *Normalizer
}

// Path returns the normalized file location.
func (s Segment) Path() string { return s.path }

// Source returns the clip the segment was produced from.
func (s Segment) Source() string { return s.source }

// Profile returns the profile the segment was encoded to.
func (s Segment) Profile() Profile { return s.profile }

// Normalizer re-encodes arbitrary clips into a Profile with ffmpeg.
type Normalizer struct {
	profile  Profile
	binary   string
	hardware hardwareProbe
	logger   *slog.Logger
	run      commandRunner
}

// NewNormalizer constructs a normalizer for profile using the given ffmpeg
// binary name.
func NewNormalizer(profile Profile, binary string, logger *slog.Logger) *Normalizer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Normalizer{
		profile:  profile,
		binary:   binary,
		hardware: deps.HardwareDetector{},
		logger:   logging.NewComponentLogger(logger, "normalizer"),
		run:      defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (n *Normalizer) WithCommandRunner(r commandRunner) {
	if n != nil && r != nil {
		n.run = r
	}
}

// WithHardwareProbe overrides NVIDIA detection.
func (n *Normalizer) WithHardwareProbe(h hardwareProbe) {
	if n != nil && h != nil {
		n.hardware = h
	}
}

// Profile returns the profile this normalizer encodes to.
func (n *Normalizer) Profile() Profile {
	return n.profile
}

// Codec reports which video encoder Normalize will use.
func (n *Normalizer) Codec() string {
	if n.profile.hardware && n.hardware != nil && n.hardware.NVENCAvailable() {
		return CodecNVENC
	}
	return CodecLibx264
}

// Normalize re-encodes input into output. On failure the partial output is
// removed and the error carries ffmpeg's full output.
func (n *Normalizer) Normalize(ctx context.Context, input, output string) (Segment, error) {
	if n == nil {
		return Segment{}, errors.New("normalizer not initialized")
	}
	if err := validatePath("input", input); err != nil {
		return Segment{}, err
	}
	if err := validatePath("output", output); err != nil {
		return Segment{}, err
	}
	binary, err := deps.Resolve(n.binary)
	if err != nil {
		return Segment{}, err
	}

	codec := n.Codec()
	args := buildNormalizeArgs(n.profile, codec, input, output)
	logger := logging.WithContext(ctx, n.logger)
	logger.Debug("normalizing clip",
		logging.String("input", input),
		logging.String("output", output),
		logging.String("codec", codec),
		logging.String("profile", n.profile.String()),
	)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Segment{}, services.Wrap(services.ErrConfiguration, "normalizer", "prepare output", "Failed to create output directory", err)
	}

	combined, runErr := n.run(ctx, binary, args...)
	if runErr != nil {
		if removeErr := os.Remove(output); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("failed to remove partial output",
				logging.String("path", output),
				logging.Error(removeErr),
				logging.String(logging.FieldEventType, "partial_output_cleanup_failed"),
			)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Segment{}, ctxErr
		}
		message := fmt.Sprintf("ffmpeg failed normalizing %s\n%s", input, strings.TrimSpace(string(combined)))
		return Segment{}, services.Wrap(services.ErrToolFailure, "normalizer", "encode", message, runErr)
	}

	return Segment{path: output, source: input, profile: n.profile, minter: n}, nil
}

func validatePath(label, path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, "normalizer", "validate "+label, label+" path is empty", nil)
	}
	if strings.ContainsRune(path, 0) {
		return services.Wrap(services.ErrValidation, "normalizer", "validate "+label, label+" path contains a NUL byte", nil)
	}
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
