// Command tierctl is a command-line client for a running tierd.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tierd/internal/client"
)

const defaultURL = "http://localhost:8080"

type globals struct {
	url  string
	json bool
	out  io.Writer
}

func (g *globals) client() *client.Client {
	u := g.url
	if u == "" {
		u = os.Getenv("TIERD_URL")
	}
	if u == "" {
		u = defaultURL
	}
	return client.New(u)
}

// emit prints v as indented JSON when --json is set, otherwise calls human.
func (g *globals) emit(v any, human func(io.Writer)) error {
	if g.json {
		enc := json.NewEncoder(g.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(g.out)
	return nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{out: out}
	root := &cobra.Command{
		Use:   "tierctl",
		Short: "Client for the tierd model memory manager",
		Long: `tierctl talks to a tierd server over HTTP.

Environment Variables:
  TIERD_URL  Server URL (default: http://localhost:8080)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.url, "url", "", "Server URL (overrides TIERD_URL)")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		generateCmd(g),
		batchCmd(g),
		modelsCmd(g),
		modelCmd(g),
		selectCmd(g),
		loadCmd(g),
		unloadCmd(g),
		swapCmd(g),
		memoryCmd(g),
		statusCmd(g),
		optimizeCmd(g),
		sessionCmd(g),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		// Distinguish retryable refusals (busy, full tier) for scripts.
		if isRetryable(err) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
