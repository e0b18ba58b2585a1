package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"tierd/pkg/types"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatGenerate(w io.Writer, r *types.GenerateResponse) {
	fmt.Fprintln(w, r.Text)
	loaded := ""
	if r.Loaded {
		loaded = ", loaded"
	}
	fmt.Fprintf(w, "\n-- %s in %s, %d tokens, %.0fms%s\n", r.Model, r.Tier, r.TokenCount, r.ElapsedMS, loaded)
}

func formatBatch(w io.Writer, r *types.BatchResponse) {
	for _, it := range r.Results {
		if it.Error != nil {
			fmt.Fprintf(w, "[%d] error: %s\n", it.Index, it.Error.Error)
			continue
		}
		fmt.Fprintf(w, "[%d] %s: %s\n", it.Index, it.Result.Model, it.Result.Text)
	}
	fmt.Fprintf(w, "%d succeeded, %d failed in %.0fms\n", r.Succeeded, r.Failed, r.ElapsedMS)
}

func formatModels(w io.Writer, models []types.Model) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tHINT\tTHINKING\tCAPABILITIES")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, humanize.IBytes(uint64(m.SizeBytes)), m.TierHint,
			yesNo(m.ThinkingCapable), strings.Join(m.Capabilities, ","))
	}
	tw.Flush()
}

func formatModelInfo(w io.Writer, m *types.ModelInfo) {
	fmt.Fprintf(w, "%s (%s, hint %s)\n", m.ID, humanize.IBytes(uint64(m.SizeBytes)), m.TierHint)
	fmt.Fprintf(w, "  state:    %s\n", m.State)
	if m.Tier != "" {
		fmt.Fprintf(w, "  tier:     %s\n", m.Tier)
		fmt.Fprintf(w, "  loaded:   %s\n", humanize.Time(time.Unix(m.LoadedAt, 0)))
		fmt.Fprintf(w, "  accessed: %s\n", humanize.Time(time.Unix(m.LastAccess, 0)))
	}
	fmt.Fprintf(w, "  thinking: %s\n", yesNo(m.ThinkingCapable))
	fmt.Fprintf(w, "  tags:     %s\n", strings.Join(m.Capabilities, ", "))
}

func formatResult(w io.Writer, r types.OperationResult) {
	fmt.Fprintf(w, "%s %s: %s", r.Action, r.Model, r.Status)
	switch {
	case r.PreviousTier != "" && r.Tier != "" && r.PreviousTier != r.Tier:
		fmt.Fprintf(w, " (%s -> %s)", r.PreviousTier, r.Tier)
	case r.Tier != "":
		fmt.Fprintf(w, " (%s)", r.Tier)
	case r.PreviousTier != "":
		fmt.Fprintf(w, " (from %s)", r.PreviousTier)
	}
	if r.Error != "" {
		fmt.Fprintf(w, ": %s", r.Error)
	}
	fmt.Fprintf(w, " [%.0fms]\n", r.DurationMS)
}

func formatSwap(w io.Writer, s *types.HotSwapResponse) {
	state := "complete"
	if !s.Complete {
		state = "partial"
	}
	fmt.Fprintf(w, "swap %s %s in %.0fms\n", s.ID, state, s.DurationMS)
	fmt.Fprint(w, "  ")
	formatResult(w, s.Unloaded)
	fmt.Fprint(w, "  ")
	formatResult(w, s.Loaded)
}

func formatMemory(w io.Writer, m *types.MemoryStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tUSED\tLIMIT\tUTIL\tRESIDENTS")
	for _, t := range m.Tiers {
		util := "-"
		if t.LimitBytes > 0 {
			util = fmt.Sprintf("%.0f%%", t.Utilization*100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Tier, t.Used, t.Limit, util, strings.Join(t.Residents, ","))
	}
	tw.Flush()
	if len(m.InFlight) > 0 {
		ids := make([]string, 0, len(m.InFlight))
		for id := range m.InFlight {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "in flight: %s %s\n", id, m.InFlight[id])
		}
	}
}

func formatSystem(w io.Writer, s *types.SystemStatus) {
	fmt.Fprintf(w, "status:  %s (ready: %s)\n", s.Status, yesNo(s.Ready))
	fmt.Fprintf(w, "backend: %s\n", s.Backend)
	fmt.Fprintf(w, "uptime:  %s\n", (time.Duration(s.UptimeSeconds) * time.Second).String())
	fmt.Fprintf(w, "models:  %d loaded of %d\n", s.LoadedModels, s.AvailableModels)
	keys := make([]string, 0, len(s.Counters))
	for k := range s.Counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, humanize.Comma(int64(s.Counters[k]))))
	}
	fmt.Fprintf(w, "ops:     %s\n\n", strings.Join(parts, " "))
	formatMemory(w, &s.Memory)
}

func formatOptimize(w io.Writer, r *types.OptimizeResponse) {
	fmt.Fprintf(w, "strategy %s: %d actions\n", r.Strategy, len(r.Actions))
	for _, a := range r.Actions {
		fmt.Fprint(w, "  ")
		formatResult(w, a)
	}
	for _, t := range []string{"ram", "swap"} {
		if n := r.FreedBytes[t]; n > 0 {
			fmt.Fprintf(w, "freed %s in %s\n", humanize.IBytes(uint64(n)), t)
		}
	}
}
