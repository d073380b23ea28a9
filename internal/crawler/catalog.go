package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/phetcrawl/internal/model"
)

// WriteCatalog writes sims to path as a JSON array. The file is written to a
// temporary sibling first and renamed into place, so readers never observe a
// partial catalog.
func WriteCatalog(path string, sims []model.Simulation) error {
	data, err := json.MarshalIndent(sims, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary catalog: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("failed to move catalog into place: %w", err)
	}
	return nil
}

// ReadCatalog reads a catalog written by WriteCatalog.
func ReadCatalog(path string) ([]model.Simulation, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var sims []model.Simulation
	if err := json.Unmarshal(data, &sims); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return sims, nil
}
