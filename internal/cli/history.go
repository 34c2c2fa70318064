package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/nodewatch/internal/control"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent journal events",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of events to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.History.Driver == "memory" {
		slog.Error("The memory journal is not persisted; configure history.driver to sqlite or postgres")
		os.Exit(1)
	}

	ctx := context.Background()
	repo, _, err := control.OpenJournal(ctx, cfg.History)
	if err != nil {
		slog.Error("Failed to open journal", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = repo.Close()
	}()

	events, err := repo.Recent(ctx, historyLimit)
	if err != nil {
		slog.Error("Failed to query journal", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tKIND\tCONDITION\tDETAIL")
	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ev.CreatedAt.Format(time.RFC3339), ev.Kind, ev.Condition, ev.Detail)
	}
	_ = w.Flush()
}
