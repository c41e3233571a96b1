package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest describes a packed table set.
type Manifest struct {
	Version      int       `json:"version"`
	Codec        string    `json:"codec"`
	BlockEntries int       `json:"block_entries"`
	TableCount   int       `json:"table_count"`
	EntryCount   int64     `json:"entry_count"`
	BytesRaw     int64     `json:"bytes_raw"`
	BytesPacked  int64     `json:"bytes_packed"`
	BuiltAt      time.Time `json:"built_at"`
}

// ManifestFilename is the name of the manifest at the root of a table set.
const ManifestFilename = "manifest.json"

// Ratio returns the packed size as a fraction of the raw size.
func (m *Manifest) Ratio() float64 {
	if m.BytesRaw == 0 {
		return 0
	}
	return float64(m.BytesPacked) / float64(m.BytesRaw)
}

// WriteManifest writes the manifest to the output directory.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFilename), data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a table set directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
