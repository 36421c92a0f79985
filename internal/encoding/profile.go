package encoding

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"splice/internal/config"
	"splice/internal/services"
)

// Profile defaults.
const (
	DefaultWidth           = 1920
	DefaultHeight          = 1080
	DefaultFPS             = 30
	DefaultQuality         = 23
	DefaultVideoBitrate    = "12M"
	DefaultAudioBitrate    = "160k"
	DefaultAudioSampleRate = 48000
	DefaultPixelFormat     = "yuv420p"
	DefaultWorkers         = 6

	maxFPS     = 240
	maxQuality = 51
)

// ProfileOptions carries the caller's requested encode settings. Zero values
// select the defaults; Hardware is a pointer so an explicit false survives.
type ProfileOptions struct {
	Width           int
	Height          int
	FPS             int
	Hardware        *bool
	Quality         *int
	VideoBitrate    string
	AudioBitrate    string
	AudioSampleRate int
	Workers         int
}

// Profile is the validated target every clip is normalized to. It is
// immutable once constructed and comparable, so two segments share a profile
// exactly when their Profile values are equal.
type Profile struct {
	width           int
	height          int
	fps             int
	hardware        bool
	quality         int
	videoBitrate    string
	audioBitrate    string
	audioSampleRate int
	pixelFormat     string
	workers         int
}

// DefaultProfile returns the 1080p30 H.264 profile.
func DefaultProfile() Profile {
	profile, err := NewProfile(ProfileOptions{})
	if err != nil {
		panic(fmt.Sprintf("default encoding profile invalid: %v", err))
	}
	return profile
}

// ProfileFromConfig builds a profile from the [encoding] section.
func ProfileFromConfig(cfg config.Encoding) (Profile, error) {
	hardware := cfg.Hardware
	quality := cfg.Quality
	return NewProfile(ProfileOptions{
		Width:           cfg.Width,
		Height:          cfg.Height,
		FPS:             cfg.FPS,
		Hardware:        &hardware,
		Quality:         &quality,
		VideoBitrate:    cfg.VideoBitrate,
		AudioBitrate:    cfg.AudioBitrate,
		AudioSampleRate: cfg.AudioSampleRate,
		Workers:         cfg.Workers,
	})
}

// NewProfile validates opts and returns the resulting profile. Invalid values
// are reported as ErrValidation.
func NewProfile(opts ProfileOptions) (Profile, error) {
	p := Profile{
		width:           orDefault(opts.Width, DefaultWidth),
		height:          orDefault(opts.Height, DefaultHeight),
		fps:             orDefault(opts.FPS, DefaultFPS),
		hardware:        true,
		quality:         DefaultQuality,
		videoBitrate:    strings.TrimSpace(opts.VideoBitrate),
		audioBitrate:    strings.TrimSpace(opts.AudioBitrate),
		audioSampleRate: orDefault(opts.AudioSampleRate, DefaultAudioSampleRate),
		pixelFormat:     DefaultPixelFormat,
		workers:         orDefault(opts.Workers, DefaultWorkers),
	}
	if opts.Hardware != nil {
		p.hardware = *opts.Hardware
	}
	if opts.Quality != nil {
		p.quality = *opts.Quality
	}
	if p.videoBitrate == "" {
		p.videoBitrate = DefaultVideoBitrate
	}
	if p.audioBitrate == "" {
		p.audioBitrate = DefaultAudioBitrate
	}

	if err := p.validate(); err != nil {
		return Profile{}, services.Wrap(services.ErrValidation, "encoding", "build profile", err.Error(), nil)
	}
	return p, nil
}

func (p Profile) validate() error {
	switch {
	case p.width < 0 || p.height < 0:
		return fmt.Errorf("resolution %dx%d must be positive", p.width, p.height)
	case p.width%2 != 0 || p.height%2 != 0:
		return fmt.Errorf("resolution %dx%d must use even dimensions", p.width, p.height)
	case p.fps < 0 || p.fps > maxFPS:
		return fmt.Errorf("fps %d must be within (0, %d]", p.fps, maxFPS)
	case p.quality < 0 || p.quality > maxQuality:
		return fmt.Errorf("quality %d must be within [0, %d]", p.quality, maxQuality)
	case !config.ValidVideoBitrate(p.videoBitrate):
		return fmt.Errorf("video bitrate %q must look like 12M or 8000k", p.videoBitrate)
	case !config.ValidAudioBitrate(p.audioBitrate):
		return fmt.Errorf("audio bitrate %q must look like 160k", p.audioBitrate)
	case !slices.Contains(config.AudioSampleRates, p.audioSampleRate):
		return fmt.Errorf("audio sample rate %d is not one of %v", p.audioSampleRate, config.AudioSampleRates)
	case p.workers < 0:
		return fmt.Errorf("workers %d must be at least 1", p.workers)
	}
	return nil
}

func (p Profile) Width() int           { return p.width }
func (p Profile) Height() int          { return p.height }
func (p Profile) FPS() int             { return p.fps }
func (p Profile) Hardware() bool       { return p.hardware }
func (p Profile) Quality() int         { return p.quality }
func (p Profile) VideoBitrate() string { return p.videoBitrate }
func (p Profile) AudioBitrate() string { return p.audioBitrate }
func (p Profile) AudioSampleRate() int { return p.audioSampleRate }
func (p Profile) PixelFormat() string  { return p.pixelFormat }
func (p Profile) Workers() int         { return p.workers }

// String renders the profile for logs, e.g. "1920x1080@30 q23 12M/160k".
func (p Profile) String() string {
	return fmt.Sprintf("%dx%d@%d q%d %s/%s", p.width, p.height, p.fps, p.quality, p.videoBitrate, p.audioBitrate)
}

// bufferSize doubles the video bitrate, keeping its unit suffix.
func (p Profile) bufferSize() string {
	unit := p.videoBitrate[len(p.videoBitrate)-1:]
	value, err := strconv.ParseFloat(p.videoBitrate[:len(p.videoBitrate)-1], 64)
	if err != nil {
		return "16M"
	}
	return strconv.FormatFloat(value*2, 'f', -1, 64) + unit
}

func orDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
