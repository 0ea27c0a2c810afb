package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestName is the adapter-owned build record written after a successful
// index build. Its presence is the authoritative "index already built"
// signal.
const ManifestName = "lightpipe.manifest.json"

// legacyMarkerName is the engine-internal artifact older deployments left
// behind. Accepted as a build signal for directories populated before the
// manifest existed; new builds always write the manifest.
const legacyMarkerName = "index.faiss"

// Manifest records what an index build fetched and how it was chunked.
type Manifest struct {
	SourceURL    string    `json:"source_url"`
	Documents    int       `json:"documents"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	BuiltAt      time.Time `json:"built_at"`
}

// ReadManifest loads the build manifest from the working directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func writeManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// indexBuilt reports whether the working directory already holds a built
// index: either our manifest or the legacy engine marker.
func indexBuilt(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, legacyMarkerName)); err == nil {
		return true
	}
	return false
}
