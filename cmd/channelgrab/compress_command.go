package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"channelgrab/internal/compress"
	"channelgrab/internal/config"
	"channelgrab/internal/history"
	"channelgrab/internal/logging"
	"channelgrab/internal/services"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var input string
	var output string
	var flags compressFlags

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Re-encode a video so it fits under a target size",
		Long: "Estimate a video bitrate from the target size and duration, encode with libx264/AAC,\n" +
			"and retry with a lower safety factor while the output is over target.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("--input is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := flags.apply(cmd, compressOptionsFromConfig(cfg))
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
			out := strings.TrimSpace(output)
			if out != "" {
				if out, err = config.ExpandPath(out); err != nil {
					return fmt.Errorf("--output: %w", err)
				}
			}

			logger := ctx.loggerFor(cmd)
			stdout := cmd.OutOrStdout()
			observer := func(state compress.State, attempt compress.Attempt) {
				if state == compress.StateEncoding {
					fmt.Fprintf(stdout, "Attempt %d/%d: video %dk, maxrate %dk, bufsize %dk\n",
						attempt.Number, opts.Retries+1,
						attempt.Bitrates.VideoK, attempt.Bitrates.MaxrateK, attempt.Bitrates.BufsizeK)
				}
			}
			transcoder := newTranscoder(cfg, logger, observer)

			recorder, closeHistory := ctx.openRecorder(cmd, cfg)
			defer closeHistory()
			runCtx, runID := newRunContext(cmd)
			runCtx = services.WithStage(runCtx, string(history.StageCompress))
			rowID := recorder.Start(runCtx, history.Run{
				RunID:     runID,
				Stage:     history.StageCompress,
				InputPath: in,
				Status:    history.StatusRunning,
				StartedAt: time.Now(),
			})

			result, err := transcoder.Run(runCtx, in, out, opts)
			outcome := history.Outcome{OutputPath: result.Output, SizeBytes: result.SizeBytes, Err: err}
			var unreachable *compress.TargetSizeUnreachableError
			if errors.As(err, &unreachable) {
				outcome.OutputPath = unreachable.Output
				outcome.SizeBytes = unreachable.SizeBytes
			}
			recorder.Finish(runCtx, rowID, outcome)
			if err != nil {
				logging.ErrorWithContext(logging.WithContext(runCtx, logger), "compress failed", "compress_failed",
					logging.String("input", in),
					logging.Error(err),
				)
				if errors.Is(err, services.ErrExternalTool) {
					return err
				}
				return services.Wrap(services.ErrValidation, "compress", "transcode", "", err)
			}

			fmt.Fprintf(stdout, "Duration: %.2fs\n", result.DurationSeconds)
			fmt.Fprintf(stdout, "Output: %s (%s, %.2f MB <= %.2f MB)\n",
				result.Output, humanBytes(result.SizeBytes), compress.SizeMB(result.SizeBytes), opts.TargetMB)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input video")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <input>_compressed.mp4)")
	flags.register(cmd)
	return cmd
}
