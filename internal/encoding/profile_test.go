package encoding_test

import (
	"errors"
	"testing"

	"splice/internal/config"
	"splice/internal/encoding"
	"splice/internal/services"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestDefaultProfile(t *testing.T) {
	p := encoding.DefaultProfile()
	if p.Width() != 1920 || p.Height() != 1080 || p.FPS() != 30 {
		t.Fatalf("unexpected resolution/fps: %s", p)
	}
	if !p.Hardware() {
		t.Fatal("expected hardware encoding preferred by default")
	}
	if p.Quality() != 23 || p.VideoBitrate() != "12M" || p.AudioBitrate() != "160k" {
		t.Fatalf("unexpected quality/bitrates: %s", p)
	}
	if p.AudioSampleRate() != 48000 || p.PixelFormat() != "yuv420p" || p.Workers() != 6 {
		t.Fatalf("unexpected audio/pixel/workers: rate=%d pix=%s workers=%d", p.AudioSampleRate(), p.PixelFormat(), p.Workers())
	}
}

func TestNewProfileKeepsExplicitZeroQualityAndSoftwareEncode(t *testing.T) {
	p, err := encoding.NewProfile(encoding.ProfileOptions{Quality: intPtr(0), Hardware: boolPtr(false)})
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if p.Quality() != 0 || p.Hardware() {
		t.Fatalf("explicit values lost: quality=%d hardware=%v", p.Quality(), p.Hardware())
	}
}

func TestNewProfileRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts encoding.ProfileOptions
	}{
		{name: "odd width", opts: encoding.ProfileOptions{Width: 1279}},
		{name: "negative height", opts: encoding.ProfileOptions{Height: -720}},
		{name: "fps too high", opts: encoding.ProfileOptions{FPS: 241}},
		{name: "negative fps", opts: encoding.ProfileOptions{FPS: -1}},
		{name: "quality too high", opts: encoding.ProfileOptions{Quality: intPtr(52)}},
		{name: "negative quality", opts: encoding.ProfileOptions{Quality: intPtr(-1)}},
		{name: "video bitrate without unit", opts: encoding.ProfileOptions{VideoBitrate: "12000"}},
		{name: "video bitrate garbage", opts: encoding.ProfileOptions{VideoBitrate: "fast"}},
		{name: "audio bitrate in megabits", opts: encoding.ProfileOptions{AudioBitrate: "1M"}},
		{name: "unsupported sample rate", opts: encoding.ProfileOptions{AudioSampleRate: 16000}},
		{name: "negative workers", opts: encoding.ProfileOptions{Workers: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encoding.NewProfile(tt.opts)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNewProfileAcceptsBitrateForms(t *testing.T) {
	for _, rate := range []string{"12M", "8000k", "2.5m", "900K"} {
		if _, err := encoding.NewProfile(encoding.ProfileOptions{VideoBitrate: rate}); err != nil {
			t.Fatalf("bitrate %q rejected: %v", rate, err)
		}
	}
}

func TestProfileFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding.Width = 1280
	cfg.Encoding.Height = 720
	cfg.Encoding.FPS = 25
	cfg.Encoding.Hardware = false
	cfg.Encoding.Workers = 3

	p, err := encoding.ProfileFromConfig(cfg.Encoding)
	if err != nil {
		t.Fatalf("ProfileFromConfig: %v", err)
	}
	if p.String() != "1280x720@25 q23 12M/160k" {
		t.Fatalf("unexpected profile %s", p)
	}
	if p.Hardware() || p.Workers() != 3 {
		t.Fatalf("unexpected hardware/workers: %v/%d", p.Hardware(), p.Workers())
	}
}
