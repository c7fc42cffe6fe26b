package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"channelgrab/internal/config"
	"channelgrab/internal/fileutil"
	"channelgrab/internal/history"
	"channelgrab/internal/media/audio"
	"channelgrab/internal/services"
)

func newExtractAudioCommand(ctx *commandContext) *cobra.Command {
	var input string
	var output string
	var codec string
	var bitrate int

	cmd := &cobra.Command{
		Use:   "extract-audio",
		Short: "Extract the audio track of a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("--input is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireMediaTools(cfg); err != nil {
				return err
			}
			in, err := config.ExpandPath(input)
			if err != nil {
				return fmt.Errorf("--input: %w", err)
			}
			req := audio.Request{
				Input:       in,
				Codec:       cfg.Audio.Codec,
				BitrateKbps: cfg.Audio.BitrateKbps,
				FFmpeg:      cfg.FFmpegBinary(),
				FFprobe:     cfg.FFprobeBinary(),
			}
			if cmd.Flags().Changed("codec") {
				req.Codec = strings.ToLower(strings.TrimSpace(codec))
			}
			if cmd.Flags().Changed("bitrate") {
				if bitrate <= 0 {
					return errors.New("--bitrate must be positive")
				}
				req.BitrateKbps = bitrate
			}
			if out := strings.TrimSpace(output); out != "" {
				if req.Output, err = config.ExpandPath(out); err != nil {
					return fmt.Errorf("--output: %w", err)
				}
			}

			recorder, closeHistory := ctx.openRecorder(cmd, cfg)
			defer closeHistory()
			runCtx, runID := newRunContext(cmd)
			runCtx = services.WithStage(runCtx, string(history.StageExtractAudio))
			rowID := recorder.Start(runCtx, history.Run{
				RunID:     runID,
				Stage:     history.StageExtractAudio,
				InputPath: in,
				Status:    history.StatusRunning,
				StartedAt: time.Now(),
			})

			written, err := audio.Extract(runCtx, req)
			outcome := history.Outcome{OutputPath: written, Err: err}
			if err == nil {
				outcome.SizeBytes, _ = fileutil.Size(written)
			}
			recorder.Finish(runCtx, rowID, outcome)
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "extract-audio", "ffmpeg", "", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Audio: %s (%s)\n", written, humanBytes(outcome.SizeBytes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input video")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <input> with the codec's extension)")
	cmd.Flags().StringVar(&codec, "codec", audio.DefaultCodec, "Audio codec (aac, mp3, flac, opus, ...)")
	cmd.Flags().IntVar(&bitrate, "bitrate", audio.DefaultBitrateKbps, "Audio bitrate in kbps")
	return cmd
}
