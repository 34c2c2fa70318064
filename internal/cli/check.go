package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/nodewatch/internal/control"
)

var verbose bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every probe once and print the snapshot",
	Long:  `check runs the health aggregator once without the engine. It exits 1 when the snapshot is unhealthy.`,
	Run:   runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include probe durations and errors")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap := control.NewAggregator(*cfg).Check(ctx, verbose)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		slog.Error("Failed to encode snapshot", "error", err)
		os.Exit(1)
	}
	if !snap.Healthy() {
		os.Exit(1)
	}
}
