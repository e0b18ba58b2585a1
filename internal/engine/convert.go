package engine

import (
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"tierd/internal/domain"
	"tierd/internal/manager"
	"tierd/internal/selector"
	"tierd/pkg/types"
)

func toModel(m domain.Model) types.Model {
	caps := m.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return types.Model{
		ID:              m.ID,
		SizeBytes:       m.SizeBytes,
		Size:            humanize.IBytes(uint64(m.SizeBytes)),
		Capabilities:    caps,
		ThinkingCapable: m.ThinkingCapable,
		TierHint:        string(m.TierHint),
		Family:          m.Family,
		Path:            m.Path,
	}
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

func toResult(r manager.Result) types.OperationResult {
	out := types.OperationResult{
		Action:       string(r.Action),
		Model:        r.Model,
		Status:       string(r.Status),
		OK:           r.Status.OK(),
		Tier:         string(r.Tier),
		PreviousTier: string(r.PreviousTier),
		SizeBytes:    r.SizeBytes,
		DurationMS:   ms(r.Duration),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.Kind = string(domain.KindOf(r.Err))
	}
	return out
}

func toSwap(r manager.SwapResult) types.HotSwapResponse {
	return types.HotSwapResponse{
		ID:         r.ID,
		Unloaded:   toResult(r.Unloaded),
		Loaded:     toResult(r.Loaded),
		Complete:   r.Complete(),
		DurationMS: ms(r.Duration),
	}
}

func toSelection(r selector.Result) types.Selection {
	return types.Selection{
		Model:         r.Model,
		Tier:          string(r.Tier),
		Justification: r.Justification,
		Required:      r.Required,
		Matched:       r.Matched,
		Score:         r.Score,
		Resident:      r.Resident,
		Dropped:       r.Dropped,
	}
}

func toMemory(s manager.Snapshot) types.MemoryStatus {
	out := types.MemoryStatus{Residents: []types.Resident{}}
	for _, t := range s.Tiers {
		u := types.TierUsage{
			Tier:         string(t.Tier),
			UsedBytes:    t.Used,
			LimitBytes:   t.Limit,
			CeilingBytes: t.Ceiling,
			Used:         humanize.IBytes(uint64(t.Used)),
			Limit:        "unbounded",
			Residents:    t.Residents,
		}
		if t.Limit > 0 {
			u.Limit = humanize.IBytes(uint64(t.Limit))
			u.Utilization = float64(t.Used) / float64(t.Limit)
		}
		out.Tiers = append(out.Tiers, u)
	}
	for _, p := range s.Placements {
		out.Residents = append(out.Residents, types.Resident{
			Model:      p.ModelID,
			Tier:       string(p.Tier),
			SizeBytes:  p.SizeBytes,
			LoadedAt:   unix(p.LoadedAt),
			LastAccess: unix(p.LastAccess),
		})
	}
	if len(s.InFlight) > 0 {
		out.InFlight = make(map[string]string, len(s.InFlight))
		for id, st := range s.InFlight {
			out.InFlight[id] = string(st)
		}
	}
	return out
}

// ErrorBody renders err as the JSON error payload. Errors outside the domain taxonomy
// map to 500.
func ErrorBody(err error) types.ErrorResponse {
	var de *domain.Error
	if errors.As(err, &de) {
		return types.ErrorResponse{Error: de.Error(), Code: de.StatusCode(), Kind: string(de.Kind), Retryable: de.Retryable()}
	}
	return types.ErrorResponse{Error: err.Error(), Code: http.StatusInternalServerError}
}
