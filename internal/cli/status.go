package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status reported by a running watchdog",
	Run:   runStatus,
}

var enableCmd = &cobra.Command{
	Use:   "enable-autorestart",
	Short: "Re-enable automatic restarts on a running watchdog",
	Run:   runEnableAutoRestart,
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, enableCmd} {
		c.Flags().StringVar(&statusAddr, "addr", "", "watchdog base URL (default http://localhost:<server.port>)")
		rootCmd.AddCommand(c)
	}
}

func baseURL() string {
	if statusAddr != "" {
		return strings.TrimRight(statusAddr, "/")
	}
	cfg := loadConfig()
	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body, code, err := call(ctx, http.MethodGet, baseURL()+"/status", "")
	if err != nil {
		slog.Error("Failed to query watchdog", "error", err)
		os.Exit(1)
	}
	if code != http.StatusOK {
		slog.Error("Watchdog returned an error", "status", code, "body", string(body))
		os.Exit(1)
	}

	var status map[string]json.RawMessage
	if err := json.Unmarshal(body, &status); err != nil {
		slog.Error("Failed to decode status", "error", err)
		os.Exit(1)
	}
	printStatus(os.Stdout, status)
}

func runEnableAutoRestart(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token := os.Getenv("NODEWATCH_ADMIN_TOKEN")
	body, code, err := call(ctx, http.MethodPost, baseURL()+"/admin/autorestart", token)
	if err != nil {
		slog.Error("Failed to reach watchdog", "error", err)
		os.Exit(1)
	}
	if code != http.StatusOK {
		slog.Error("Watchdog refused request", "status", code, "body", string(body))
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func call(ctx context.Context, method, url, token string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func printStatus(out io.Writer, status map[string]json.RawMessage) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PROCESS\tRUNNING")
	var names []string
	for k := range status {
		if !slices.Contains(domain.StatusFields, k) {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, status[name])
	}
	_, _ = fmt.Fprintln(w, "\t")

	_, _ = fmt.Fprintln(w, "CHAIN\tERROR\tLOCAL\tREMOTE")
	for _, chain := range []string{"sysStatus", "ethStatus"} {
		var cs domain.ChainStatus
		if err := json.Unmarshal(status[chain], &cs); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", chain, cs.IsError, domain.TipJSON(cs.Local), domain.TipJSON(cs.Remote))
	}
	_, _ = fmt.Fprintln(w, "\t")

	var started int64
	_ = json.Unmarshal(status["agentStartTime"], &started)
	_, _ = fmt.Fprintf(w, "MODE\t%s\n", status["mode"])
	_, _ = fmt.Fprintf(w, "STARTED\t%s\n", time.UnixMilli(started).Format(time.RFC3339))
	_ = w.Flush()
}
