package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"splice/internal/catalog"
	"splice/internal/encoding"
	"splice/internal/media/ffprobe"
	"splice/internal/services"
)

type probeReport struct {
	Path       string  `json:"path"`
	Container  string  `json:"container"`
	Duration   string  `json:"duration"`
	Seconds    float64 `json:"seconds"`
	VideoCodec string  `json:"video_codec"`
	Resolution string  `json:"resolution"`
	FPS        float64 `json:"fps"`
	PixFmt     string  `json:"pixel_format"`
	AudioCodec string  `json:"audio_codec"`
	SampleRate int     `json:"audio_sample_rate"`
	Channels   int     `json:"audio_channels"`
	Video      int     `json:"video_streams"`
	Audio      int     `json:"audio_streams"`
	SizeBytes  int64   `json:"size_bytes"`
	BitRate    int64   `json:"bit_rate"`
	Conforms   bool    `json:"conforms"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "probe <clip...>",
		Short: "Show stream properties and whether clips already match the profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := encoding.ProfileFromConfig(cfg.Encoding)
			if err != nil {
				return err
			}
			reports := make([]probeReport, 0, len(args))
			for _, path := range args {
				result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
				if err != nil {
					return services.Wrap(services.ErrMetadataUnreadable, "cli", "probe", path, err)
				}
				if raw {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.RawJSON())
					continue
				}
				reports = append(reports, newProbeReport(path, result, profile))
			}
			if raw {
				return nil
			}
			if asJSON {
				return writeJSON(cmd, reports)
			}
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{
					r.Path,
					r.Duration,
					r.VideoCodec,
					r.Resolution,
					fmt.Sprintf("%.3g", r.FPS),
					fmt.Sprintf("%s %dHz", dashIfEmpty(r.AudioCodec), r.SampleRate),
					fmt.Sprintf("%dv/%da", r.Video, r.Audio),
					formatBytes(r.SizeBytes),
					formatBitRate(r.BitRate),
					yesNo(r.Conforms),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]column{
					textCol("Clip"), numCol("Duration"), textCol("Video"), textCol("Size"), numCol("FPS"), textCol("Audio"),
					numCol("Streams"), numCol("Bytes"), numCol("Bitrate"), textCol("Matches " + profile.String()),
				},
				rows,
			))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the unmodified ffprobe JSON for each clip")
	return cmd
}

func newProbeReport(path string, result ffprobe.Result, profile encoding.Profile) probeReport {
	s := result.Summary()
	return probeReport{
		Path:       path,
		Container:  s.Container,
		Duration:   catalog.FormatDuration(s.DurationSeconds, s.DurationSeconds > 0),
		Seconds:    s.DurationSeconds,
		VideoCodec: s.VideoCodec,
		Resolution: s.Resolution(),
		FPS:        s.FPS,
		PixFmt:     s.PixelFormat,
		AudioCodec: s.AudioCodec,
		SampleRate: s.AudioSampleRate,
		Channels:   s.AudioChannels,
		Video:      result.VideoStreamCount(),
		Audio:      result.AudioStreamCount(),
		SizeBytes:  result.SizeBytes(),
		BitRate:    result.BitRate(),
		Conforms:   conformsToProfile(s, profile),
	}
}

// conformsToProfile reports whether a clip already has the profile's geometry,
// frame rate, pixel format, and audio rate. Codec is not compared.
func conformsToProfile(s ffprobe.Summary, profile encoding.Profile) bool {
	return s.Width == profile.Width() &&
		s.Height == profile.Height() &&
		math.Abs(s.FPS-float64(profile.FPS())) < 0.01 &&
		s.PixelFormat == profile.PixelFormat() &&
		s.AudioSampleRate == profile.AudioSampleRate()
}
