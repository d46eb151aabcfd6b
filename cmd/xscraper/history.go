package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"xscraper/pkg/harvest"
	"xscraper/pkg/ledger"
	"xscraper/pkg/storage"
	"xscraper/pkg/ui"
)

var (
	forgetKey  string
	historyDSN string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List harvested targets",
	Long: `List the targets recorded in the ledger, newest first. Only sessions
that reached their item budget or exhausted the timeline are recorded;
cancelled and failed sessions can be run again without --force.

With --dsn the batches stored in a SQLite database are listed as well.`,
	Example: `  xscraper history
  xscraper history --forget hashtag_golang
  xscraper history --dsn ./posts.db`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&forgetKey, "forget", "", "remove a target from the ledger")
	historyCmd.Flags().StringVar(&historyDSN, "dsn", "", "also list batches stored in this SQLite database")
}

func runHistory(cmd *cobra.Command, args []string) error {
	book, err := ledger.NewManager("")
	if err != nil {
		return err
	}

	if forgetKey != "" {
		if err := book.Forget(forgetKey); err != nil {
			ui.PrintError("Failed to update ledger", err.Error())
			return err
		}
		ui.PrintSuccess("Forgot " + forgetKey)
		return nil
	}

	entries, err := book.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.PrintInfo("Ledger", "no harvested targets yet")
	} else {
		renderLedger(os.Stdout, entries)
	}

	if historyDSN == "" {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := storage.NewSQLiteSink(ctx, historyDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Harvests(ctx, "")
	if err != nil {
		return err
	}
	fmt.Println()
	renderHarvests(os.Stdout, rows)
	return nil
}

func renderLedger(w io.Writer, entries []ledger.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Ledger")
	t.AppendHeader(table.Row{"Key", "Target", "Reason", "Posts", "Passes", "Runs", "Updated", "Outputs"})
	done := 0
	for _, e := range entries {
		if complete(e.Reason) {
			done++
		}
		t.AppendRow(table.Row{
			e.Key, e.Label, e.Reason, e.Records, e.Passes, e.Runs,
			e.UpdatedAt.Local().Format("2006-01-02 15:04"),
			strings.Join(e.Outputs, "\n"),
		})
	}
	t.AppendFooter(table.Row{"", "", completeOf(done, len(entries)), "", "", "", "", ""})
	t.Render()
}

func renderHarvests(w io.Writer, rows []storage.HarvestRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Stored batches")
	t.AppendHeader(table.Row{"Session", "Key", "Target", "Reason", "Posts", "Created"})
	done := 0
	for _, r := range rows {
		if complete(r.Reason) {
			done++
		}
		t.AppendRow(table.Row{
			r.SessionID, r.Query, r.Label, r.Reason, r.RecordCount,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", completeOf(done, len(rows)), len(rows), ""})
	t.Render()
}

// complete reports whether a stored termination reason means the target
// count was reached
func complete(reason string) bool {
	return harvest.ParseReason(reason) == harvest.ReasonSuccess
}

func completeOf(done, total int) string {
	return fmt.Sprintf("%d/%d complete", done, total)
}
