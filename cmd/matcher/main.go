package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JustEmoBut/scraper-backend/config"
	"github.com/JustEmoBut/scraper-backend/internal/app"
	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/postgres"
	"github.com/JustEmoBut/scraper-backend/internal/matching"
	"github.com/JustEmoBut/scraper-backend/internal/usecase"
)

// cli holds state shared by the subcommands. The app is only built for
// commands that touch the stores.
type cli struct {
	cfg    *config.Config
	logger zerolog.Logger
	app    *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "matcher",
		Short:         "Specification matching toolkit",
		Long:          `Score product names, run matching passes and sync the scraped catalog outside the HTTP server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return c.app.Close()
			}
			return nil
		},
	}

	rootCmd.AddCommand(createScoreCmd())
	rootCmd.AddCommand(createFeaturesCmd())
	rootCmd.AddCommand(createTokenizeCmd())
	rootCmd.AddCommand(c.createRematchCmd())
	rootCmd.AddCommand(c.createCleanupCmd())
	rootCmd.AddCommand(c.createClearCmd())
	rootCmd.AddCommand(c.createCoverageCmd())
	rootCmd.AddCommand(c.createSyncCmd())

	return rootCmd
}

// open loads configuration and wires the stores on first use
func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	c.cfg = cfg
	c.logger = config.SetupLogger(cfg.Log)

	a, err := app.Build(ctx, cfg, nil, c.logger)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseOptionalCategory(s string) (domain.Category, error) {
	if s == "" {
		return "", nil
	}
	return domain.ParseCategory(s)
}

func createScoreCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "score [spec-name] [product-name]",
		Short: "Explain the similarity of a specification name and a product name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseOptionalCategory(category)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), matching.Explain(args[0], args[1], c))
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category whose weight profile applies")
	return cmd
}

func createFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features [name]",
		Short: "Show the normalized name and extracted features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"name":       args[0],
				"normalized": matching.Normalize(args[0]),
				"features":   matching.ExtractFeatures(args[0]),
			})
		},
	}
}

func createTokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [name]",
		Short: "Show the matching tokens of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), matching.Tokenize(args[0]))
		},
	}
}

func (c *cli) createRematchCmd() *cobra.Command {
	var (
		category      string
		limit         int
		all           bool
		clearExisting bool
	)

	cmd := &cobra.Command{
		Use:   "rematch [specification-id]",
		Short: "Re-run auto-matching for one specification, or for many without an id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				res, err := a.Matching.RematchSpecification(cmd.Context(), args[0], clearExisting)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			cat, err := parseOptionalCategory(category)
			if err != nil {
				return err
			}
			stats, err := a.Matching.RematchAll(cmd.Context(), usecase.RematchAllRequest{
				Category:      cat,
				Limit:         limit,
				All:           all,
				ClearExisting: clearExisting,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only specifications of this category")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of specifications (0 uses the configured default)")
	cmd.Flags().BoolVar(&all, "all", false, "ignore the limit")
	cmd.Flags().BoolVar(&clearExisting, "clear-existing", false, "drop automatic matches before re-matching")
	return cmd
}

func (c *cli) createCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Re-score automatic matches and drop the ones below the cleanup threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Matching.CleanupLowQualityMatches(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) createClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every match from every specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear all matches without --yes")
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.Matching.ClearAllMatches(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"clearedCount": n})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the operation")
	return cmd
}

func (c *cli) createCoverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Report the share of each category's catalog that has a specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.Matching.Coverage(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func (c *cli) createSyncCmd() *cobra.Command {
	var categories []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the remote catalog into the postgres product table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if a.Catalog == nil || a.DB == nil {
				return fmt.Errorf("sync needs catalog.base_url and the postgres store")
			}

			only := make([]domain.Category, 0, len(categories))
			for _, raw := range categories {
				cat, err := domain.ParseCategory(raw)
				if err != nil {
					return err
				}
				only = append(only, cat)
			}

			results, err := app.SyncCatalog(cmd.Context(), a.Catalog, postgres.NewProductRepository(a.DB, c.logger), a.Categories, only, c.logger)
			if err != nil {
				return err
			}
			if err := a.FlushProductCache(cmd.Context()); err != nil {
				c.logger.Warn().Err(err).Msg("failed to flush product cache")
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "categories to sync (default all)")
	return cmd
}
