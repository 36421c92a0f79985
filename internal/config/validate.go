package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateRunner(); err != nil {
		return err
	}
	if err := c.validateCatalogs(); err != nil {
		return err
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	positives := []struct {
		key   string
		value int
	}{
		{"encoding.width", c.Encoding.Width},
		{"encoding.height", c.Encoding.Height},
		{"encoding.fps", c.Encoding.FPS},
		{"encoding.audio_sample_rate", c.Encoding.AudioSampleRate},
		{"encoding.workers", c.Encoding.Workers},
	}
	for _, p := range positives {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive", p.key)
		}
	}
	if c.Encoding.Width%2 != 0 || c.Encoding.Height%2 != 0 {
		return errors.New("encoding.width and encoding.height must be even")
	}
	if c.Encoding.Quality < 0 || c.Encoding.Quality > 51 {
		return errors.New("encoding.quality must be between 0 and 51")
	}
	if !ValidVideoBitrate(c.Encoding.VideoBitrate) {
		return fmt.Errorf("encoding.video_bitrate %q must look like 12M or 8000k", c.Encoding.VideoBitrate)
	}
	if !ValidAudioBitrate(c.Encoding.AudioBitrate) {
		return fmt.Errorf("encoding.audio_bitrate %q must look like 160k", c.Encoding.AudioBitrate)
	}
	if !slices.Contains(AudioSampleRates, c.Encoding.AudioSampleRate) {
		return fmt.Errorf("encoding.audio_sample_rate %d is not one of %v", c.Encoding.AudioSampleRate, AudioSampleRates)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.BodyLimit <= 0 {
		return errors.New("notifications.body_limit must be positive")
	}
	return nil
}

func (c *Config) validateRunner() error {
	if c.Runner.IntervalSeconds < 0 {
		return errors.New("runner.interval_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateCatalogs() error {
	seen := make(map[string]struct{}, len(c.Catalogs))
	for i, catalog := range c.Catalogs {
		if catalog.Name == "" {
			return fmt.Errorf("catalogs[%d].name must be set", i)
		}
		key := strings.ToLower(catalog.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("catalogs[%s]: duplicate catalog name", catalog.Name)
		}
		seen[key] = struct{}{}

		if catalog.Root == "" {
			return fmt.Errorf("catalogs[%s].root must be set", catalog.Name)
		}
		if catalog.Ledger == "" {
			return fmt.Errorf("catalogs[%s].ledger must be set", catalog.Name)
		}
		switch catalog.Match {
		case "", MatchFile, MatchFolder:
		default:
			return fmt.Errorf("catalogs[%s].match must be %q or %q, got %q", catalog.Name, MatchFile, MatchFolder, catalog.Match)
		}
		switch catalog.Mode {
		case ModeAllocate:
			if catalog.Keyword == "" && catalog.Match != MatchFolder {
				return fmt.Errorf("catalogs[%s].keyword must be set when mode is %q", catalog.Name, ModeAllocate)
			}
		case ModeRebuild:
		default:
			return fmt.Errorf("catalogs[%s].mode must be %q or %q, got %q", catalog.Name, ModeAllocate, ModeRebuild, catalog.Mode)
		}
		if catalog.NumberWidth > 9 {
			return fmt.Errorf("catalogs[%s].number_width must be <= 9", catalog.Name)
		}
	}
	return nil
}

var (
	videoBitratePattern = regexp.MustCompile(`^\d+(\.\d+)?[kKmM]$`)
	audioBitratePattern = regexp.MustCompile(`^\d+(\.\d+)?[kK]$`)
)

// AudioSampleRates lists the output sample rates normalization accepts.
var AudioSampleRates = []int{22050, 32000, 44100, 48000, 96000}

// ValidVideoBitrate reports whether value is an ffmpeg rate like 12M or 8000k.
func ValidVideoBitrate(value string) bool {
	return videoBitratePattern.MatchString(value)
}

// ValidAudioBitrate reports whether value is an ffmpeg rate like 160k.
func ValidAudioBitrate(value string) bool {
	return audioBitratePattern.MatchString(value)
}
