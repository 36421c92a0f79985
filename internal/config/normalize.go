package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeEncoding()
	c.normalizeNotifications()
	if err := c.normalizeCatalogs(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	c.Scan.Extensions = normalizeExtensions(c.Scan.Extensions)
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), defaultExtensions...)
	}
	c.Scan.ExcludeMarkers = normalizeMarkers(c.Scan.ExcludeMarkers)
	if c.Scan.MinDurationSeconds < 0 {
		c.Scan.MinDurationSeconds = 0
	}
}

func (c *Config) normalizeEncoding() {
	c.Encoding.VideoBitrate = strings.TrimSpace(c.Encoding.VideoBitrate)
	if c.Encoding.VideoBitrate == "" {
		c.Encoding.VideoBitrate = defaultVideoBitrate
	}
	c.Encoding.AudioBitrate = strings.TrimSpace(c.Encoding.AudioBitrate)
	if c.Encoding.AudioBitrate == "" {
		c.Encoding.AudioBitrate = defaultAudioBitrate
	}
	if c.Encoding.AudioSampleRate == 0 {
		c.Encoding.AudioSampleRate = defaultAudioSampleRate
	}
	if c.Encoding.Workers == 0 {
		c.Encoding.Workers = defaultWorkers
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SPLICE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
	if c.Notifications.BodyLimit <= 0 {
		c.Notifications.BodyLimit = defaultBodyLimit
	}
}

// normalizeCatalogs expands paths and fills empty fields from [scan].
func (c *Config) normalizeCatalogs() error {
	for i := range c.Catalogs {
		catalog := &c.Catalogs[i]
		catalog.Name = strings.TrimSpace(catalog.Name)
		catalog.Mode = strings.ToLower(strings.TrimSpace(catalog.Mode))
		if catalog.Mode == "" {
			catalog.Mode = ModeAllocate
		}
		catalog.Keyword = strings.ToLower(strings.TrimSpace(catalog.Keyword))
		catalog.Match = strings.ToLower(strings.TrimSpace(catalog.Match))
		if catalog.Match == "" {
			catalog.Match = MatchFile
		}

		var err error
		if catalog.Root, err = expandPath(strings.TrimSpace(catalog.Root)); err != nil {
			return fmt.Errorf("catalogs[%s].root: %w", catalog.Name, err)
		}
		if catalog.Ledger, err = expandPath(strings.TrimSpace(catalog.Ledger)); err != nil {
			return fmt.Errorf("catalogs[%s].ledger: %w", catalog.Name, err)
		}

		if catalog.NumberWidth <= 0 {
			catalog.NumberWidth = defaultNumberWidth
		}
		if catalog.BatchSize <= 0 {
			catalog.BatchSize = defaultBatchSize
		}
		if catalog.MinDurationSeconds <= 0 {
			catalog.MinDurationSeconds = c.Scan.MinDurationSeconds
		}
		catalog.Extensions = normalizeExtensions(catalog.Extensions)
		if len(catalog.Extensions) == 0 {
			catalog.Extensions = append([]string(nil), c.Scan.Extensions...)
		}
		catalog.ExcludeMarkers = normalizeMarkers(catalog.ExcludeMarkers)
		if len(catalog.ExcludeMarkers) == 0 {
			catalog.ExcludeMarkers = append([]string(nil), c.Scan.ExcludeMarkers...)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExtensions(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func normalizeMarkers(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		marker := strings.ToLower(strings.TrimSpace(value))
		if marker == "" {
			continue
		}
		if _, ok := seen[marker]; ok {
			continue
		}
		seen[marker] = struct{}{}
		out = append(out, marker)
	}
	return out
}
