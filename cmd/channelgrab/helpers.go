package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"channelgrab/internal/compress"
	"channelgrab/internal/config"
	"channelgrab/internal/deps"
	"channelgrab/internal/media/ffprobe"
)

// compressOptionsFromConfig maps the [compress] section onto transcoder options.
func compressOptionsFromConfig(cfg *config.Config) compress.Options {
	opts := compress.DefaultOptions()
	c := cfg.Compress
	if c.TargetMB > 0 {
		opts.TargetMB = c.TargetMB
	}
	if c.AudioKbps > 0 {
		opts.AudioKbps = c.AudioKbps
	}
	if c.Preset != "" {
		opts.Preset = c.Preset
	}
	if c.Retries >= 0 {
		opts.Retries = c.Retries
	}
	if c.Safety > 0 {
		opts.Safety = c.Safety
	}
	if c.SafetyDecay > 0 {
		opts.Decay = c.SafetyDecay
	}
	if c.MaxrateHeadroom > 0 {
		opts.MaxrateHeadroom = c.MaxrateHeadroom
	}
	if c.MinVideoKbps > 0 {
		opts.MinVideoBps = int64(c.MinVideoKbps) * 1000
	}
	return opts
}

// compressFlags are the per-invocation overrides shared by compress and
// fetch --compress. Only flags the user actually set replace config values.
type compressFlags struct {
	targetMB  float64
	audioKbps int
	preset    string
	retries   int
	safety    float64
}

func (f *compressFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&f.targetMB, "target-mb", compress.DefaultTargetMB, "Target output size in MiB")
	flags.IntVar(&f.audioKbps, "audio-bitrate", compress.DefaultAudioKbps, "Audio bitrate in kbps")
	flags.StringVar(&f.preset, "preset", compress.DefaultPreset, "x264 preset")
	flags.IntVar(&f.retries, "retries", compress.DefaultRetries, "Extra attempts when the output is over target")
	flags.Float64Var(&f.safety, "safety", compress.DefaultSafety, "Bitrate safety factor in (0, 1]")
}

func (f *compressFlags) apply(cmd *cobra.Command, opts compress.Options) (compress.Options, error) {
	changed := cmd.Flags().Changed
	if changed("target-mb") {
		opts.TargetMB = f.targetMB
	}
	if changed("audio-bitrate") {
		opts.AudioKbps = f.audioKbps
	}
	if changed("preset") {
		preset := strings.ToLower(strings.TrimSpace(f.preset))
		if !config.ValidPreset(preset) {
			return opts, fmt.Errorf("--preset: unknown x264 preset %q", f.preset)
		}
		opts.Preset = preset
	}
	if changed("retries") {
		if f.retries < 0 {
			return opts, errors.New("--retries must be >= 0")
		}
		opts.Retries = f.retries
	}
	if changed("safety") {
		if f.safety <= 0 || f.safety > 1 {
			return opts, errors.New("--safety must be in (0, 1]")
		}
		opts.Safety = f.safety
	}
	if opts.TargetMB <= 0 {
		return opts, errors.New("--target-mb must be positive")
	}
	if opts.AudioKbps <= 0 {
		return opts, errors.New("--audio-bitrate must be positive")
	}
	return opts, nil
}

// requireMediaTools fails with a setup error before any work starts when
// ffmpeg or ffprobe cannot be resolved.
func requireMediaTools(cfg *config.Config) error {
	return deps.Require(deps.MediaTools(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}

func newTranscoder(cfg *config.Config, logger *slog.Logger, observer func(compress.State, compress.Attempt)) *compress.Transcoder {
	encoder := compress.NewFFmpeg(
		compress.WithBinary(cfg.FFmpegBinary()),
		compress.WithCodecs(cfg.Compress.VideoCodec, cfg.Compress.AudioCodec),
	)
	probeBinary := cfg.FFprobeBinary()
	probe := func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, probeBinary, path)
	}
	return compress.NewTranscoder(encoder, probe,
		compress.WithLogger(logger),
		compress.WithObserver(observer),
	)
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
