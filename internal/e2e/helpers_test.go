package e2e

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"tierd/internal/catalog"
	"tierd/internal/client"
	"tierd/internal/domain"
	"tierd/internal/engine"
	"tierd/internal/httpapi"
	"tierd/internal/manager"
)

// createTempModelsDir creates a temporary directory populated with small .gguf files
// and returns the directory path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("gguf"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

type stack struct {
	srv    *httptest.Server
	client *client.Client
	mgr    *manager.Manager
	events *manager.MemoryPublisher
}

// newStack serves the built-in library plus any scanned models over a real engine and
// router. mutate may adjust the manager config before construction.
func newStack(t *testing.T, modelsDir string, mutate func(*manager.ManagerConfig)) *stack {
	t.Helper()
	models := catalog.Builtin()
	if modelsDir != "" {
		scanned, err := catalog.ScanDir(modelsDir, 3*domain.GiB)
		if err != nil {
			t.Fatalf("scan models: %v", err)
		}
		models = append(models, scanned...)
	}
	cat, err := catalog.New(models...)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	pub := manager.NewMemoryPublisher()
	cfg := manager.ManagerConfig{
		Catalog:   cat,
		RAMLimit:  6 * domain.GiB,
		SwapLimit: 7 * domain.GiB,
		Publisher: pub,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	mgr := manager.NewWithConfig(cfg)
	eng, err := engine.New(engine.Config{Catalog: cat, Manager: mgr, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(eng))
	t.Cleanup(srv.Close)
	return &stack{srv: srv, client: client.New(srv.URL), mgr: mgr, events: pub}
}

// gate blocks every transfer until release is closed.
type gate struct {
	started chan string
	release chan struct{}
}

func newGate() *gate { return &gate{started: make(chan string, 8), release: make(chan struct{})} }

func (g *gate) Transfer(ctx context.Context, m domain.Model, from, to domain.Tier) error {
	g.started <- m.ID
	<-g.release
	return nil
}
