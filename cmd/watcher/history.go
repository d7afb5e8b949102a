package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iiviie/liveblog-watch/internal/models"
	"github.com/iiviie/liveblog-watch/internal/storage"
)

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the run journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(flags)
			if err != nil {
				return err
			}
			if cfg.Journal.Path == "" {
				return errors.New("run journal is disabled; set journal.path")
			}

			journal, err := storage.NewSQLiteJournal(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer journal.Close()

			runs, err := journal.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")

	return cmd
}

func renderRuns(w io.Writer, runs []*models.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 8, WidthMax: 60},
	})

	t.AppendHeader(table.Row{"#", "Started", "Took", "Found", "New", "Notified", "Outcome", "Detail"})
	for _, run := range runs {
		detail := run.Error
		if detail == "" {
			detail = strings.Join(run.NotifiedIDs, ", ")
		}
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
			run.Found,
			run.New,
			run.Notified,
			run.Outcome,
			detail,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Runs", len(runs)})
	t.Render()
}
