package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"placesearch/internal/builder"
	"placesearch/internal/domain"
	"placesearch/internal/recordstore/file"
)

func (a *app) logLevel() slog.Level {
	if a.verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build <places.json>",
		Short: "Build the index and sidecar from a JSON file of places",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger := newLogger(os.Stderr, true, a.logLevel())

			c, err := a.assemble(ctx, logger, true)
			if err != nil {
				return err
			}
			defer c.Close()

			gen, err := c.builder(logger).BuildFromFile(ctx, args[0])
			if err != nil {
				return buildError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generation %s: %d places, %d dims\n", gen.ID, gen.Count, gen.Dimension)
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the index from the configured record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger := newLogger(os.Stderr, true, a.logLevel())

			c, err := a.assemble(ctx, logger, true)
			if err != nil {
				return err
			}
			defer c.Close()

			gen, err := c.builder(logger).BuildFromStore(ctx)
			if err != nil {
				return buildError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generation %s: %d places, %d dims\n", gen.ID, gen.Count, gen.Dimension)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var filteredOut string
	cmd := &cobra.Command{
		Use:   "import <export.json>",
		Short: "Load a JSON export of places into the record store",
		Long: `Load a JSON array of place documents into the configured record store.
Identifiers are taken from "id", "_id" or "_id.$oid". With --filtered-out the
normalised records are also written to a JSON file suitable for "build".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(os.Stderr, false, a.logLevel())

			records, err := file.Load(args[0])
			if err != nil {
				return buildError(err)
			}
			if filteredOut != "" {
				if err := file.Save(filteredOut, records); err != nil {
					return err
				}
				logger.Info("wrote filtered records", "path", filteredOut, "records", len(records))
			}
			if a.cfg.RecordStore.Type == "none" {
				return nil
			}

			store, err := openRecordStore(ctx, a.cfg.RecordStore, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			w, ok := store.(domain.RecordWriter)
			if !ok {
				return fmt.Errorf("record store %q is read-only", a.cfg.RecordStore.Type)
			}
			if err := w.Put(ctx, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d places into %s store\n", len(records), a.cfg.RecordStore.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&filteredOut, "filtered-out", "", "also write normalised records to this JSON file")
	return cmd
}

// buildError adds a hint for input problems.
func buildError(err error) error {
	if builder.IsUserError(err) {
		return fmt.Errorf("%w (check the input file or record_store settings)", err)
	}
	if errors.Is(err, domain.ErrBuildInProgress) {
		return fmt.Errorf("%w (another build is running in this process)", err)
	}
	return err
}
