package main

import (
	"chat-relay/observability"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

func main() {
	addr := flag.String("addr", "http://localhost:3000", "Base URL of the chat relay")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stats, err := fetchStats(ctx, http.DefaultClient, *addr)
	if err != nil {
		log.Fatal("Error while fetching stats: ", err)
	}
	printStats(os.Stdout, stats)
}

func fetchStats(ctx context.Context, client *http.Client, baseURL string) (observability.Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/stats", nil)
	if err != nil {
		return observability.Stats{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return observability.Stats{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return observability.Stats{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var stats observability.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return observability.Stats{}, fmt.Errorf("decoding stats: %w", err)
	}
	return stats, nil
}

func printStats(w io.Writer, stats observability.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	typing := strings.Join(stats.TypingUsers, ", ")
	if typing == "" {
		typing = "-"
	}
	table.AppendBulk([][]string{
		{"online", strconv.Itoa(stats.Online)},
		{"typing", typing},
		{"connections", strconv.Itoa(stats.Connections)},
		{"events processed", strconv.FormatUint(stats.EventsProcessed, 10)},
		{"events dropped", strconv.FormatUint(stats.EventsDropped, 10)},
		{"emissions", strconv.FormatUint(stats.Emissions, 10)},
		{"worker restarts", strconv.FormatUint(stats.WorkerRestarts, 10)},
		{"uptime", (time.Duration(stats.UptimeSeconds) * time.Second).String()},
		{"goroutines", strconv.Itoa(stats.Goroutines)},
		{"rss (MiB)", fmt.Sprintf("%.1f", float64(stats.RSSBytes)/1024/1024)},
		{"cpu (%)", fmt.Sprintf("%.1f", stats.CPUPercent)},
	})
	table.Render()
}
