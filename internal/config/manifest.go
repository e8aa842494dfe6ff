package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// manifestFile is the on-disk shape of FARM_MANIFEST.
type manifestFile struct {
	Turbines []struct {
		File      string `yaml:"file"`
		TurbineID string `yaml:"turbine_id"`
		Source    string `yaml:"source"`
	} `yaml:"turbines"`
}

// LoadManifest returns the turbine tables to read. An empty path yields the
// default six-table manifest.
func LoadManifest(path string) ([]domain.TurbineFile, error) {
	if path == "" {
		return domain.DefaultManifest(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a YAML manifest. Every entry needs a
// file, a unique turbine ID and a valid source.
func ParseManifest(data []byte) ([]domain.TurbineFile, error) {
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(mf.Turbines) == 0 {
		return nil, errors.New("manifest lists no turbines")
	}

	files := make([]domain.TurbineFile, 0, len(mf.Turbines))
	seen := make(map[string]bool, len(mf.Turbines))
	for i, t := range mf.Turbines {
		file := strings.TrimSpace(t.File)
		id := strings.TrimSpace(t.TurbineID)
		if file == "" {
			return nil, fmt.Errorf("manifest entry %d: file is required", i)
		}
		if id == "" {
			return nil, fmt.Errorf("manifest entry %d: turbine_id is required", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("manifest entry %d: duplicate turbine_id %q", i, id)
		}
		seen[id] = true

		src, err := domain.ParseSource(t.Source)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i, err)
		}
		files = append(files, domain.TurbineFile{File: file, TurbineID: id, Source: src})
	}
	return files, nil
}
