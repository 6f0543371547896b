package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"placesearch/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	var (
		topK    int
		hydrate bool
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// the TUI owns the terminal; logs would corrupt the screen
			logger := newLogger(io.Discard, false, a.logLevel())

			c, err := a.assemble(ctx, logger, false)
			if err != nil {
				return err
			}
			defer c.Close()
			svc, err := c.searchService(ctx, logger)
			if err != nil {
				return err
			}
			excerpter, err := newExcerpter(a.cfg.Summarizer)
			if err != nil {
				return err
			}

			st := svc.Stats()
			summary := fmt.Sprintf("%d places indexed, %s embeddings (%d dims), record store: %s",
				st.Vectors, c.embedder.Name(), st.Dimension, a.cfg.RecordStore.Type)
			m := tui.New(svc, excerpter, summary, tui.Options{TopK: topK, Hydrate: hydrate})
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 10, "number of results")
	cmd.Flags().BoolVar(&hydrate, "hydrate", true, "attach full records from the record store")
	return cmd
}
