package main

import (
	"bytes"
	"chat-relay/observability"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchStats(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/stats", r.URL.Path)
		_ = json.NewEncoder(w).Encode(observability.Stats{Online: 2, TypingUsers: []string{"Bob"}})
	}))
	defer server.Close()

	stats, err := fetchStats(context.Background(), server.Client(), server.URL+"/")

	req.NoError(err)
	req.Equal(2, stats.Online)
	req.Equal([]string{"Bob"}, stats.TypingUsers)
}

func TestFetchStats_Bad_Status(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := fetchStats(context.Background(), server.Client(), server.URL)

	require.ErrorContains(t, err, "404")
}

func TestPrintStats(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer

	printStats(&out, observability.Stats{Online: 3, TypingUsers: []string{"Bob", "Carol"}, UptimeSeconds: 90})

	req.Contains(out.String(), "Bob, Carol")
	req.Contains(out.String(), "1m30s")
	req.Contains(out.String(), "3")
}
