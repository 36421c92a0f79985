package config

const (
	defaultStateDir           = "~/.local/share/splice/state"
	defaultLogDir             = "~/.local/share/splice/logs"
	defaultWorkDir            = "~/.local/share/splice/work"
	defaultMinDurationSeconds = 60
	defaultExcludeMarker      = "quay"
	defaultWidth              = 1920
	defaultHeight             = 1080
	defaultFPS                = 30
	defaultQuality            = 23
	defaultVideoBitrate       = "12M"
	defaultAudioBitrate       = "160k"
	defaultAudioSampleRate    = 48000
	defaultWorkers            = 6
	defaultNumberWidth        = 3
	defaultBatchSize          = 5
	defaultRequestTimeout     = 10
	defaultBodyLimit          = 15000
	defaultRunnerInterval     = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Catalog synchronization modes.
const (
	ModeAllocate = "allocate"
	ModeRebuild  = "rebuild"
)

// Sequence match targets for allocate mode.
const (
	MatchFile   = "file"
	MatchFolder = "folder"
)

var defaultExtensions = []string{".mp4", ".avi", ".mkv", ".mov"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			WorkDir:  defaultWorkDir,
		},
		Scan: Scan{
			Extensions:         append([]string(nil), defaultExtensions...),
			ExcludeMarkers:     []string{defaultExcludeMarker},
			MinDurationSeconds: defaultMinDurationSeconds,
		},
		Encoding: Encoding{
			Width:           defaultWidth,
			Height:          defaultHeight,
			FPS:             defaultFPS,
			Hardware:        true,
			Quality:         defaultQuality,
			VideoBitrate:    defaultVideoBitrate,
			AudioBitrate:    defaultAudioBitrate,
			AudioSampleRate: defaultAudioSampleRate,
			Workers:         defaultWorkers,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			BodyLimit:      defaultBodyLimit,
		},
		Runner: Runner{
			IntervalSeconds: defaultRunnerInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
