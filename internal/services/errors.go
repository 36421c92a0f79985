package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error markers. Every failure that crosses a package boundary is tagged with
// exactly one of these so callers can classify it with errors.Is.
var (
	ErrToolMissing        = errors.New("external tool missing")
	ErrToolFailure        = errors.New("external tool failure")
	ErrMetadataUnreadable = errors.New("metadata unreadable")
	ErrLedgerSchema       = errors.New("ledger schema mismatch")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrDuplicatePath      = errors.New("duplicate path")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrToolFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the current run. Metadata, schema,
// missing-asset, and duplicate-path conditions are recovered where they occur;
// anything else (including untagged errors) is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrMetadataUnreadable),
		errors.Is(err, ErrLedgerSchema),
		errors.Is(err, ErrAssetNotFound),
		errors.Is(err, ErrDuplicatePath):
		return false
	default:
		return true
	}
}

// Hint returns a short operator-facing remediation for a tagged error.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrToolMissing):
		return "install ffmpeg/ffprobe and ensure they are on PATH"
	case errors.Is(err, ErrToolFailure):
		return "inspect the tool output in the error message"
	case errors.Is(err, ErrConfiguration):
		return "check splice config and folder paths"
	case errors.Is(err, ErrValidation):
		return "check command arguments"
	case errors.Is(err, ErrAssetNotFound):
		return "run sync for the catalog or check the sequence numbers"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
