package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"splice/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrToolFailure, "encoding", "normalize", "ffmpeg exited", base)
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encoding", "normalize", "ffmpeg exited", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"tool missing", services.Wrap(services.ErrToolMissing, "deps", "lookup", "ffmpeg", nil), true},
		{"tool failure", services.Wrap(services.ErrToolFailure, "encoding", "concat", "", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "encoding", "normalize", "", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "catalog", "scan", "", nil), true},
		{"metadata", services.Wrap(services.ErrMetadataUnreadable, "catalog", "probe", "", nil), false},
		{"schema", services.Wrap(services.ErrLedgerSchema, "ledger", "read", "", nil), false},
		{"asset not found", fmt.Errorf("resolve: %w", services.ErrAssetNotFound), false},
		{"duplicate", services.Wrap(services.ErrDuplicatePath, "catalog", "allocate", "", nil), false},
		{"untagged", errors.New("plain"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsFatal(tt.err); got != tt.want {
				t.Fatalf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHintMentionsTools(t *testing.T) {
	err := services.Wrap(services.ErrToolMissing, "deps", "lookup", "ffprobe", nil)
	if !strings.Contains(services.Hint(err), "PATH") {
		t.Fatalf("unexpected hint %q", services.Hint(err))
	}
	if services.Hint(nil) != "" {
		t.Fatal("expected empty hint for nil error")
	}
}
