package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"channelgrab/internal/catalog"
	"channelgrab/internal/config"
	"channelgrab/internal/download"
	"channelgrab/internal/keystream"
	"channelgrab/internal/metadata"
	"channelgrab/internal/pipeline"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var req pipeline.Request
	var outDir string
	var apiKey string
	var decryptAPI string
	var compression compressFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and deobfuscate the latest video of an account",
		Long: "Resolve an account by --username or by searching --keyword, download its latest video,\n" +
			"write <id>_meta.json and deobfuscate <id>_encrypted.mp4 into <id>_decrypted.mp4.\n" +
			"With --compress the decrypted file is also transcoded under --target-mb.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(req.Keyword) == "" && strings.TrimSpace(req.Username) == "" {
				return errors.New("provide --username or --keyword")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyFetchOverrides(cfg, outDir, decryptAPI); err != nil {
				return err
			}
			req.OutputDir = cfg.Paths.OutputDir
			logger := ctx.loggerFor(cmd)

			var opts []pipeline.Option
			if req.Compress {
				if err := requireMediaTools(cfg); err != nil {
					return err
				}
				req.CompressOptions, err = compression.apply(cmd, compressOptionsFromConfig(cfg))
				if err != nil {
					return err
				}
				opts = append(opts, pipeline.WithCompressor(newTranscoder(cfg, logger, nil)))
			}

			client, err := newCatalogClient(ctx, cmd, cfg, apiKey)
			if err != nil {
				return err
			}

			dlOpts := []download.Option{
				download.WithHeaderTimeout(cfg.DownloadHeaderTimeout()),
				download.WithLogger(logger),
			}
			if cfg.Download.Progress && isTerminal(cmd.ErrOrStderr()) {
				dlOpts = append(dlOpts, download.WithProgress(cmd.ErrOrStderr()))
			}
			ks := keystream.New(cfg.Keystream.BaseURL,
				keystream.WithTimeout(cfg.KeystreamTimeout()),
				keystream.WithLogger(logger),
			)

			recorder, closeHistory := ctx.openRecorder(cmd, cfg)
			defer closeHistory()

			out := cmd.OutOrStdout()
			opts = append(opts,
				pipeline.WithRecorder(recorder),
				pipeline.WithLogger(logger),
				pipeline.WithHooks(fetchHooks(out, ks.BaseURL())),
			)
			fetcher := pipeline.NewFetcher(client, download.New(dlOpts...), ks, opts...)

			runCtx, _ := newRunContext(cmd)
			result, err := fetcher.Run(runCtx, req)
			if err != nil {
				return err
			}
			printFetchSummary(out, result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.Keyword, "keyword", "k", "", "Search keyword (used when --username is not given)")
	flags.StringVarP(&req.Username, "username", "u", "", "WeChat Channels username (skips search)")
	flags.IntVar(&req.Page, "page", 1, "Search result page")
	flags.IntVar(&req.UserIndex, "user-index", 0, "Index of the search result to use")
	flags.StringVarP(&outDir, "outdir", "o", "", "Output directory (overrides paths.output_dir)")
	flags.BoolVar(&req.SkipDownload, "skip-download", false, "Reuse an existing <id>_encrypted.mp4")
	flags.BoolVar(&req.SkipDecrypt, "skip-decrypt", false, "Stop after writing metadata")
	flags.BoolVar(&req.Compress, "compress", false, "Compress the decrypted video to --target-mb")
	flags.StringVar(&apiKey, "api-key", "", "TikHub API key (overrides config and "+config.EnvAPIKey+")")
	flags.StringVar(&decryptAPI, "decrypt-api", "", "Keystream service base URL (overrides keystream.base_url)")
	compression.register(cmd)
	return cmd
}

func applyFetchOverrides(cfg *config.Config, outDir, decryptAPI string) error {
	if dir := strings.TrimSpace(outDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("--outdir: %w", err)
		}
		cfg.Paths.OutputDir = expanded
	}
	if base := strings.TrimSpace(decryptAPI); base != "" {
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			return fmt.Errorf("--decrypt-api: %q must be an http(s) URL", base)
		}
		cfg.Keystream.BaseURL = strings.TrimRight(base, "/")
	}
	return nil
}

func fetchHooks(out io.Writer, keystreamURL string) pipeline.Hooks {
	return pipeline.Hooks{
		OnSearch: func(users []catalog.UserRecord) {
			fmt.Fprintf(out, "Search results: %d\n", len(users))
			if len(users) > 0 {
				fmt.Fprintln(out, renderUsers(users))
			}
		},
		OnSelected: func(username string, rec catalog.MediaRecord) {
			fmt.Fprintf(out, "Selected username: %s\n", username)
			fmt.Fprintln(out, "Latest video:")
			fmt.Fprintf(out, "  id: %s\n", rec.ID)
			fmt.Fprintf(out, "  desc: %s\n", rec.Description)
			if human := metadata.HumanTime(rec.CreateTime); human != "" {
				fmt.Fprintf(out, "  createtime: %d (%s)\n", rec.CreateTime, human)
			}
			fmt.Fprintf(out, "  decode_key: %s\n", rec.DecodeKey)
		},
		OnStep: func(step, detail string) {
			switch step {
			case "keystream":
				fmt.Fprintf(out, "Keystream from %s: %s\n", keystreamURL, detail)
			default:
				fmt.Fprintf(out, "%s: %s\n", step, detail)
			}
		},
	}
}

func printFetchSummary(out io.Writer, result pipeline.Result) {
	if result.Previous != nil {
		fmt.Fprintf(out, "Note: media %s was already fetched on %s\n",
			result.Media.ID, result.Previous.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "Encrypted: %s (%s)\n", result.Paths.Encrypted, humanBytes(result.DownloadedBytes))
	fmt.Fprintf(out, "Metadata:  %s\n", result.Paths.Metadata)
	if result.Decrypted {
		fmt.Fprintf(out, "Decrypted: %s (%s)\n", result.Paths.Decrypted, humanBytes(result.DecryptedBytes))
	}
	if result.Compressed != nil {
		fmt.Fprintf(out, "Compressed: %s (%s, %d attempt(s))\n",
			result.Compressed.Output, humanBytes(result.Compressed.SizeBytes), len(result.Compressed.Attempts))
	}
}
