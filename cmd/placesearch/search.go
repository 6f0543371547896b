package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"placesearch/internal/domain"
	"placesearch/internal/summarizer"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		topK    int
		hydrate bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Run one query against the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(os.Stderr, false, slog.LevelWarn)
			if a.verbose {
				logger = newLogger(os.Stderr, false, slog.LevelDebug)
			}

			c, err := a.assemble(ctx, logger, false)
			if err != nil {
				return err
			}
			defer c.Close()
			svc, err := c.searchService(ctx, logger)
			if err != nil {
				return err
			}

			hits, err := svc.Search(ctx, strings.Join(args, " "), topK, hydrate)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}
			excerpter, err := newExcerpter(a.cfg.Summarizer)
			if err != nil {
				return err
			}
			printHits(cmd.OutOrStdout(), hits, excerpter, strings.Join(args, " "))
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 10, "number of results")
	cmd.Flags().BoolVar(&hydrate, "hydrate", false, "attach full records from the record store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print hits as JSON")
	return cmd
}

func printHits(w io.Writer, hits []domain.SearchHit, ex *summarizer.Excerpter, query string) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for i, h := range hits {
		name := h.PlaceID
		if h.Record != nil && h.Record.Name != "" {
			name = fmt.Sprintf("%s (%s)", h.Record.Name, h.PlaceID)
		}
		fmt.Fprintf(w, "%2d. %-40s %-12s %.4f", i+1, name, h.Category, h.Distance)
		if h.Lat != nil && h.Lon != nil {
			fmt.Fprintf(w, "  [%.4f, %.4f]", *h.Lat, *h.Lon)
		}
		fmt.Fprintln(w)
		if h.Record != nil && h.Record.Description != "" {
			fmt.Fprintf(w, "    %s\n", ex.Excerpt(h.Record.Description, query))
		}
	}
}
