package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tierd/internal/common/fsutil"
	"tierd/internal/domain"
)

// ScanDir scans a directory for *.gguf artifacts and describes each as a text-generation
// model. ID is the full filename (including extension); Path is the absolute file path and
// the size is the file size. Artifacts up to ramCeiling bytes get a RAM hint, larger ones SWAP
// (a ramCeiling of 0 hints everything RAM).
func ScanDir(dir string, ramCeiling int64) ([]domain.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []domain.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		p := filepath.Join(abs, name)
		size, err := fsutil.FileSize(p)
		if err != nil {
			return nil, err
		}
		// Empty placeholder files still need a positive footprint for accounting.
		if size <= 0 {
			size = 1
		}
		hint := domain.TierRAM
		if ramCeiling > 0 && size > ramCeiling {
			hint = domain.TierSwap
		}
		models = append(models, domain.Model{
			ID:           name,
			SizeBytes:    size,
			Path:         p,
			TierHint:     hint,
			Capabilities: []string{"text-generation"},
			Family:       familyOf(name),
		})
	}
	return models, nil
}

// familyOf guesses the family from the leading filename token, e.g. "llama-3.1-8b.gguf" -> "llama".
func familyOf(name string) string {
	stem := strings.TrimSuffix(strings.ToLower(name), ".gguf")
	if i := strings.IndexAny(stem, "-_."); i > 0 {
		return stem[:i]
	}
	return stem
}
