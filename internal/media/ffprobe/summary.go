package ffprobe

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary is a flattened view of the properties normalization cares about.
type Summary struct {
	VideoCodec      string
	Width           int
	Height          int
	FPS             float64
	PixelFormat     string
	AudioCodec      string
	AudioSampleRate int
	AudioChannels   int
	DurationSeconds float64
	Container       string
}

// Summary extracts the first video and audio stream properties.
func (r Result) Summary() Summary {
	summary := Summary{
		DurationSeconds: r.DurationSeconds(),
		Container:       r.Format.FormatName,
	}
	if video, ok := r.VideoStream(); ok {
		summary.VideoCodec = video.CodecName
		summary.Width = video.Width
		summary.Height = video.Height
		summary.PixelFormat = video.PixFmt
		rate := video.AvgFrameRate
		if rate == "" || strings.HasSuffix(rate, "/0") {
			rate = video.RFrameRate
		}
		if fps, err := ParseRate(rate); err == nil {
			summary.FPS = fps
		}
	}
	if audio, ok := r.AudioStream(); ok {
		summary.AudioCodec = audio.CodecName
		summary.AudioChannels = audio.Channels
		if rate, err := strconv.Atoi(strings.TrimSpace(audio.SampleRate)); err == nil {
			summary.AudioSampleRate = rate
		}
	}
	return summary
}

// Resolution renders WxH, or "unknown" when no video stream was found.
func (s Summary) Resolution() string {
	if s.Width <= 0 || s.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
