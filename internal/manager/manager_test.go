package manager

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tierd/internal/catalog"
	"tierd/internal/domain"
)

// stepClock advances one second per call so LastAccess ordering is deterministic.
type stepClock struct{ n atomic.Int64 }

func (c *stepClock) Now() time.Time {
	return time.Unix(1_700_000_000+c.n.Add(1), 0)
}

func newBuiltinManager(t *testing.T, mutate func(*ManagerConfig)) (*Manager, *MemoryPublisher) {
	t.Helper()
	cat, err := catalog.New(catalog.Builtin()...)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	pub := NewMemoryPublisher()
	clk := &stepClock{}
	cfg := ManagerConfig{
		Catalog:   cat,
		RAMLimit:  6 * domain.GiB,
		SwapLimit: 7 * domain.GiB,
		Publisher: pub,
		Now:       clk.Now,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewWithConfig(cfg), pub
}

func mustLoad(t *testing.T, m *Manager, id string, tier domain.Tier) Result {
	t.Helper()
	r, err := m.Load(context.Background(), id, tier)
	if err != nil {
		t.Fatalf("load %s into %s: %v", id, tier, err)
	}
	return r
}

func TestLoadAndStatus(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	r := mustLoad(t, m, "gpt2-large", "")
	if r.Status != StatusLoaded || r.Tier != domain.TierRAM || r.SizeBytes != 3*domain.GiB {
		t.Fatalf("unexpected result %+v", r)
	}
	st := m.Status()
	ram := st.Tier(domain.TierRAM)
	if ram.Used != 3*domain.GiB || ram.Limit != 6*domain.GiB || ram.Ceiling != 3*domain.GiB {
		t.Fatalf("unexpected ram status %+v", ram)
	}
	if len(ram.Residents) != 1 || ram.Residents[0] != "gpt2-large" {
		t.Fatalf("residents=%v", ram.Residents)
	}
	res, err := m.Residency("gpt2-large")
	if err != nil || res.State != StateResident || res.Tier != domain.TierRAM {
		t.Fatalf("residency=%+v err=%v", res, err)
	}

	again := mustLoad(t, m, "gpt2-large", domain.TierRAM)
	if again.Status != StatusAlreadyLoaded {
		t.Fatalf("second load should be already_loaded, got %s", again.Status)
	}
	if got := m.Usage(domain.TierRAM).Used; got != 3*domain.GiB {
		t.Fatalf("already_loaded must not reserve twice; used=%d", got)
	}
}

func TestLoadErrors(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	ctx := context.Background()
	if _, err := m.Load(ctx, "nope", ""); !domain.IsUnknownModel(err) {
		t.Fatalf("expected UnknownModel, got %v", err)
	}
	if _, err := m.Load(ctx, "", ""); !domain.IsInvalidRequest(err) {
		t.Fatalf("expected InvalidRequest for empty id, got %v", err)
	}
	if _, err := m.Load(ctx, "gpt2-small", "gpu"); !domain.IsInvalidRequest(err) {
		t.Fatalf("expected InvalidRequest for bad tier, got %v", err)
	}
	r, err := m.Load(ctx, "llama-7b", domain.TierRAM)
	if !domain.IsExceedsTierCeiling(err) || r.Status != StatusRejected {
		t.Fatalf("expected ceiling rejection, got %+v / %v", r, err)
	}
	if res, _ := m.Residency("llama-7b"); res.State != StateUnloaded {
		t.Fatalf("rejection must not change state, got %s", res.State)
	}
	if m.Counters().Rejections != 1 {
		t.Fatalf("rejections=%d", m.Counters().Rejections)
	}
}

func TestExampleSwapScenario(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	mustLoad(t, m, "llama-7b", domain.TierSwap)
	if got := m.Usage(domain.TierSwap).Used; got != 7*domain.GiB {
		t.Fatalf("swap used=%d", got)
	}
	for _, id := range []string{"gpt2-small", "gpt-j-6b", "bert-large"} {
		_, err := m.Load(context.Background(), id, domain.TierSwap)
		if !domain.IsInsufficientCapacity(err) {
			t.Fatalf("load %s into full swap: expected InsufficientCapacity, got %v", id, err)
		}
	}
}

func TestRelocateBetweenTiers(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	mustLoad(t, m, "gpt2-medium", domain.TierSwap)
	r := mustLoad(t, m, "gpt2-medium", domain.TierRAM)
	if r.PreviousTier != domain.TierSwap || r.Tier != domain.TierRAM {
		t.Fatalf("unexpected relocation result %+v", r)
	}
	if m.Usage(domain.TierSwap).Used != 0 || m.Usage(domain.TierRAM).Used != 3*domain.GiB/2 {
		t.Fatalf("relocation accounting: ram=%+v swap=%+v", m.Usage(domain.TierRAM), m.Usage(domain.TierSwap))
	}
}

func TestUnloadToStorage(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	ctx := context.Background()
	mustLoad(t, m, "gpt2-large", domain.TierRAM)

	r, err := m.Unload(ctx, "gpt2-large", true)
	if err != nil || r.Status != StatusCached || r.PreviousTier != domain.TierRAM {
		t.Fatalf("unload to storage: %+v %v", r, err)
	}
	if m.Usage(domain.TierRAM).Used != 0 {
		t.Fatalf("ram not released")
	}
	if tier, ok := m.ResidentTier("gpt2-large"); !ok || tier != domain.TierStorage {
		t.Fatalf("expected storage residency, got %q %v", tier, ok)
	}
	// Caching again is a no-op.
	if r, err := m.Unload(ctx, "gpt2-large", true); err != nil || r.Status != StatusCached {
		t.Fatalf("second cache: %+v %v", r, err)
	}
	// A full unload from storage drops the placement.
	if r, err := m.Unload(ctx, "gpt2-large", false); err != nil || r.Status != StatusUnloaded {
		t.Fatalf("full unload: %+v %v", r, err)
	}
	if _, ok := m.ResidentTier("gpt2-large"); ok {
		t.Fatalf("still resident after full unload")
	}
	if m.Usage(domain.TierStorage).Used != 0 {
		t.Fatalf("storage not released: %+v", m.Usage(domain.TierStorage))
	}
	if _, err := m.Unload(ctx, "gpt2-large", false); !domain.IsInvalidRequest(err) {
		t.Fatalf("unloading a non-resident model: expected InvalidRequest, got %v", err)
	}
}

func TestLoadUnloadCyclesNoDrift(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	ctx := context.Background()
	mustLoad(t, m, "bert-large", domain.TierRAM)
	before := m.Usage(domain.TierRAM).Used
	for i := 0; i < 10000; i++ {
		if _, err := m.Load(ctx, "gpt2-small", domain.TierRAM); err != nil {
			t.Fatalf("cycle %d load: %v", i, err)
		}
		if _, err := m.Unload(ctx, "gpt2-small", false); err != nil {
			t.Fatalf("cycle %d unload: %v", i, err)
		}
	}
	if got := m.Usage(domain.TierRAM).Used; got != before {
		t.Fatalf("drift after cycles: used=%d want %d", got, before)
	}
}

func TestConcurrentLoadsExactlyOneFits(t *testing.T) {
	models := []domain.Model{
		{ID: "a", SizeBytes: 4 * domain.GiB, TierHint: domain.TierRAM},
		{ID: "b", SizeBytes: 3 * domain.GiB, TierHint: domain.TierRAM},
	}
	cat, err := catalog.New(models...)
	if err != nil {
		t.Fatal(err)
	}
	for round := 0; round < 200; round++ {
		m := NewWithConfig(ManagerConfig{Catalog: cat, RAMLimit: 6 * domain.GiB, RAMCeiling: -1})
		start := make(chan struct{})
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, id := range []string{"a", "b"} {
			i, id := i, id
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = m.Load(context.Background(), id, domain.TierRAM)
			}()
		}
		close(start)
		wg.Wait()
		ok, rejected := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case domain.IsInsufficientCapacity(err):
				rejected++
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if ok != 1 || rejected != 1 {
			t.Fatalf("round %d: ok=%d rejected=%d", round, ok, rejected)
		}
		if u := m.Usage(domain.TierRAM); u.Used > u.Limit {
			t.Fatalf("round %d: overshoot %+v", round, u)
		}
	}
}

func TestConcurrentFuzzKeepsUsedWithinLimit(t *testing.T) {
	var models []domain.Model
	for i := 0; i < 12; i++ {
		models = append(models, domain.Model{
			ID:        string(rune('a' + i)),
			SizeBytes: int64(1+i%3) * domain.GiB,
			TierHint:  domain.Tiers[i%2],
		})
	}
	cat, err := catalog.New(models...)
	if err != nil {
		t.Fatal(err)
	}
	m := NewWithConfig(ManagerConfig{Catalog: cat, RAMLimit: 6 * domain.GiB, SwapLimit: 7 * domain.GiB})

	stop := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, tier := range []domain.Tier{domain.TierRAM, domain.TierSwap} {
				if u := m.Usage(tier); u.Used > u.Limit {
					t.Errorf("%s: used %d > limit %d", tier, u.Used, u.Limit)
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(seed)))
			ctx := context.Background()
			for i := 0; i < 400; i++ {
				id := models[rng.Intn(len(models))].ID
				switch rng.Intn(4) {
				case 0:
					_, _ = m.Unload(ctx, id, rng.Intn(2) == 0)
				case 1:
					_, _ = m.Load(ctx, id, domain.Tiers[rng.Intn(len(domain.Tiers))])
				default:
					_, _ = m.Load(ctx, id, "")
				}
			}
		}(uint64(g))
	}
	wg.Wait()
	close(stop)
	<-monitorDone

	// Once quiescent, tracker bytes match the placements exactly.
	st := m.Status()
	sums := map[domain.Tier]int64{}
	for _, p := range st.Placements {
		sums[p.Tier] += p.SizeBytes
	}
	for _, ts := range st.Tiers {
		if ts.Used != sums[ts.Tier] {
			t.Errorf("%s: tracker used %d, placements sum %d", ts.Tier, ts.Used, sums[ts.Tier])
		}
	}
	if len(st.InFlight) != 0 {
		t.Errorf("in-flight transitions left behind: %v", st.InFlight)
	}
}

// gateTransfer blocks every transfer until release is closed.
type gateTransfer struct {
	started chan string
	release chan struct{}
}

func newGate() *gateTransfer {
	return &gateTransfer{started: make(chan string, 8), release: make(chan struct{})}
}

func (g *gateTransfer) Transfer(ctx context.Context, m domain.Model, from, to domain.Tier) error {
	g.started <- m.ID
	<-g.release
	return nil
}

func TestBusyWhileTransitionInFlight(t *testing.T) {
	gate := newGate()
	m, pub := newBuiltinManager(t, func(c *ManagerConfig) { c.Transfer = gate })
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := m.Load(ctx, "gpt2-medium", domain.TierRAM)
		done <- err
	}()
	<-gate.started

	if res, _ := m.Residency("gpt2-medium"); res.State != StateLoading {
		t.Fatalf("expected loading, got %s", res.State)
	}
	if r, err := m.Load(ctx, "gpt2-medium", domain.TierRAM); !domain.IsBusy(err) || r.Status != StatusBusy {
		t.Fatalf("expected Busy, got %+v %v", r, err)
	}
	if _, err := m.Unload(ctx, "gpt2-medium", false); !IsTooBusy(err) {
		t.Fatalf("expected Busy for unload, got %v", err)
	}
	// Other models are unaffected by the held slot.
	if _, err := m.Unload(ctx, "gpt2-small", false); !domain.IsInvalidRequest(err) {
		t.Fatalf("expected InvalidRequest for a different idle model, got %v", err)
	}
	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("first load: %v", err)
	}
	if m.Counters().Busy != 2 {
		t.Fatalf("busy counter=%d", m.Counters().Busy)
	}
	found := false
	for _, n := range pub.Names() {
		if n == EventBusy {
			found = true
		}
	}
	if !found {
		t.Fatalf("busy event not published: %v", pub.Names())
	}
}

func TestAbandonedCallerTransitionStillCompletes(t *testing.T) {
	gate := newGate()
	m, _ := newBuiltinManager(t, func(c *ManagerConfig) { c.Transfer = gate })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := m.Load(ctx, "gpt2-large", domain.TierRAM)
		done <- err
	}()
	<-gate.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(gate.release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if tier, ok := m.ResidentTier("gpt2-large"); ok && tier == domain.TierRAM {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("abandoned load never committed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// The slot was released by the detached transition.
	if r := mustLoad(t, m, "gpt2-large", domain.TierRAM); r.Status != StatusAlreadyLoaded {
		t.Fatalf("got %s", r.Status)
	}
}

func TestCanceledContextBeforeStart(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Load(ctx, "gpt2-small", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := m.ResidentTier("gpt2-small"); ok {
		t.Fatalf("canceled-before-start load must not run")
	}
}

func TestFailedTransferReleasesReservation(t *testing.T) {
	boom := errors.New("disk gone")
	m, pub := newBuiltinManager(t, func(c *ManagerConfig) {
		c.Transfer = TransferFunc(func(context.Context, domain.Model, domain.Tier, domain.Tier) error { return boom })
	})
	r, err := m.Load(context.Background(), "gpt2-small", domain.TierRAM)
	if !errors.Is(err, boom) || r.Status != StatusFailed {
		t.Fatalf("expected transfer failure, got %+v %v", r, err)
	}
	if m.Usage(domain.TierRAM).Used != 0 {
		t.Fatalf("reservation leaked")
	}
	if res, _ := m.Residency("gpt2-small"); res.State != StateUnloaded {
		t.Fatalf("state=%s", res.State)
	}
	names := pub.Names()
	if len(names) == 0 || names[len(names)-1] != EventLoadFailed {
		t.Fatalf("events=%v", names)
	}
}

func TestEventsPublished(t *testing.T) {
	m, pub := newBuiltinManager(t, nil)
	mustLoad(t, m, "gpt2-small", domain.TierRAM)
	_, _ = m.Load(context.Background(), "gpt-j-6b", domain.TierRAM)
	if _, err := m.Unload(context.Background(), "gpt2-small", false); err != nil {
		t.Fatal(err)
	}
	want := []string{EventLoadStart, EventLoadDone, EventRejected, EventUnloadStart, EventUnloadDone}
	got := pub.Names()
	if len(got) != len(want) {
		t.Fatalf("events=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events=%v want %v", got, want)
		}
	}
	rej := pub.Events()[2]
	if rej.ModelID != "gpt-j-6b" || rej.Fields["kind"] != string(domain.KindExceedsTierCeiling) {
		t.Fatalf("unexpected rejection event %+v", rej)
	}
}

func TestTouchUpdatesLastAccess(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	mustLoad(t, m, "gpt2-small", domain.TierRAM)
	before, _ := m.Residency("gpt2-small")
	if err := m.Touch("gpt2-small"); err != nil {
		t.Fatal(err)
	}
	after, _ := m.Residency("gpt2-small")
	if !after.LastAccess.After(before.LastAccess) {
		t.Fatalf("last access not advanced: %v -> %v", before.LastAccess, after.LastAccess)
	}
	if err := m.Touch("nope"); !IsModelNotFound(err) {
		t.Fatalf("expected UnknownModel, got %v", err)
	}
}
