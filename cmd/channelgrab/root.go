package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:   "channelgrab",
		Short: "Fetch, deobfuscate and compress WeChat Channels videos",
		Long: `channelgrab searches TikHub for WeChat Channels accounts, downloads the
newest video of the chosen account, removes the keystream obfuscation and can
transcode the result to fit a size budget.

Results go to stdout; logs go to stderr and <log_dir>/channelgrab.log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newSearchCommand(ctx),
		newFetchCommand(ctx),
		newCompressCommand(ctx),
		newExtractAudioCommand(ctx),
		newHistoryCommand(ctx),
		newCheckCommand(ctx),
		newConfigCommand(ctx),
	)

	return rootCmd
}
