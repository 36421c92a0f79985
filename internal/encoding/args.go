package encoding

import "strconv"

// Video codecs selected by the normalizer.
const (
	CodecNVENC   = "h264_nvenc"
	CodecLibx264 = "libx264"
)

// buildNormalizeArgs returns the ffmpeg argument list (without the binary)
// that re-encodes input into the canonical profile. The arguments depend only
// on the profile and the codec, never on the input's properties.
func buildNormalizeArgs(p Profile, codec, input, output string) []string {
	fps := strconv.Itoa(p.fps)
	args := make([]string, 0, 48)

	args = append(args,
		"-y",
		"-fflags", "+genpts",
		"-i", input,
		"-vf", "scale="+strconv.Itoa(p.width)+":"+strconv.Itoa(p.height)+":flags=lanczos,fps="+fps,
	)
	args = append(args, videoCodecArgs(p, codec)...)
	args = append(args,
		"-pix_fmt", p.pixelFormat,
		"-fps_mode", "cfr",
		"-r", fps,
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-ar", strconv.Itoa(p.audioSampleRate),
		"-b:a", p.audioBitrate,
		output,
	)
	return args
}

func videoCodecArgs(p Profile, codec string) []string {
	quality := strconv.Itoa(p.quality)
	if codec == CodecNVENC {
		return []string{
			"-c:v", CodecNVENC,
			"-profile:v", "main",
			"-rc", "cbr",
			"-cq", quality,
			"-b:v", p.videoBitrate,
			"-maxrate", p.videoBitrate,
			"-bufsize", p.bufferSize(),
			"-preset", "p4",
		}
	}
	return []string{
		"-c:v", CodecLibx264,
		"-preset", "medium",
		"-profile:v", "main",
		"-level", "4.2",
		"-crf", quality,
		"-maxrate", p.videoBitrate,
		"-bufsize", "16M",
	}
}

// buildConcatArgs returns the stream-copy concat invocation for a manifest.
func buildConcatArgs(manifest, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		output,
	}
}
