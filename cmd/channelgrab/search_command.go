package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"channelgrab/internal/catalog"
	"channelgrab/internal/config"
	"channelgrab/internal/pipeline"
	"channelgrab/internal/services"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var keyword string
	var page int
	var apiKey string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search WeChat Channels accounts by keyword",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(keyword) == "" {
				return errors.New("--keyword is required")
			}
			if page < 1 {
				return errors.New("--page must be >= 1")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := newCatalogClient(ctx, cmd, cfg, apiKey)
			if err != nil {
				return err
			}

			runCtx, _ := newRunContext(cmd)
			users, err := client.SearchUsers(services.WithStage(runCtx, "search"), strings.TrimSpace(keyword), page)
			if err != nil {
				return services.Wrap(pipeline.RemoteMarker(err), "search", "search users", keyword, err)
			}

			if asJSON {
				return writeJSON(cmd, users)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Search results: %d\n", len(users))
			if len(users) > 0 {
				fmt.Fprintln(out, renderUsers(users))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Search keyword")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "TikHub API key (overrides config and "+config.EnvAPIKey+")")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

// newCatalogClient builds the TikHub client. A missing key is a setup error
// reported before any request is made.
func newCatalogClient(ctx *commandContext, cmd *cobra.Command, cfg *config.Config, apiKeyFlag string) (*catalog.Client, error) {
	if key := strings.TrimSpace(apiKeyFlag); key != "" {
		cfg.Catalog.APIKey = key
	}
	if err := cfg.RequireCatalogKey(); err != nil {
		return nil, services.Wrap(services.ErrSetup, "config", "catalog credentials", "", err)
	}
	client, err := catalog.New(cfg.Catalog.APIKey, cfg.Catalog.BaseURL,
		catalog.WithTimeout(cfg.CatalogTimeout()),
		catalog.WithLogger(ctx.loggerFor(cmd)),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "catalog client", "", err)
	}
	return client, nil
}
