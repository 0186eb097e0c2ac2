// Package metadata reads the manifest and the patch index of bundle artifacts.
//
// An artifact is a zip archive carrying a manifest.json with the bundle's declared
// attributes and a patches.json listing its patches. The parsed patch index is
// kept in the bundle's derived cache directory so later loads skip the archive.
package metadata

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

const (
	// ManifestEntry is the archive entry holding the bundle manifest
	ManifestEntry = "manifest.json"
	// PatchesEntry is the archive entry holding the patch list
	PatchesEntry = "patches.json"
	// IndexFile is the derived index written into the cache directory
	IndexFile = "index.json"

	// DefaultType is the type tag of artifacts that do not declare one
	DefaultType = "rvp"

	maxEntrySize = 32 * 1024 * 1024
)

type index struct {
	Type    string                    `json:"type"`
	Patches []bundles.PatchDescriptor `json:"patches"`
}

// Loader implements bundles.MetadataLoader over zip artifacts
type Loader struct{}

// NewLoader creates a metadata loader
func NewLoader() *Loader {
	return &Loader{}
}

// ReadManifest returns the attributes the artifact declares
func (*Loader) ReadManifest(artifactPath string) (*bundles.Manifest, error) {
	zr, err := zip.OpenReader(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bundles.ErrUnrecognizedFormat, err)
	}
	defer func() {
		_ = zr.Close()
	}()

	raw, err := readEntry(&zr.Reader, ManifestEntry)
	if err != nil {
		return nil, err
	}
	return parseManifest(raw)
}

// LoadMetadata returns the type tag and patch list, reading the derived index from
// cacheDir when present and writing it otherwise
func (l *Loader) LoadMetadata(ctx context.Context, artifactPath, cacheDir string) (string, []bundles.PatchDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	if idx, ok := readIndex(cacheDir); ok {
		return idx.Type, idx.Patches, nil
	}

	zr, err := zip.OpenReader(artifactPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", bundles.ErrUnrecognizedFormat, err)
	}
	defer func() {
		_ = zr.Close()
	}()

	rawManifest, err := readEntry(&zr.Reader, ManifestEntry)
	if err != nil {
		return "", nil, err
	}
	manifest, err := parseManifest(rawManifest)
	if err != nil {
		return "", nil, err
	}

	rawPatches, err := readEntry(&zr.Reader, PatchesEntry)
	if err != nil {
		return "", nil, err
	}
	var patches []bundles.PatchDescriptor
	if err := json.Unmarshal(rawPatches, &patches); err != nil {
		return "", nil, fmt.Errorf("%w: invalid patch list: %v", bundles.ErrUnrecognizedFormat, err)
	}

	idx := index{Type: manifest.Type, Patches: patches}
	if idx.Type == "" {
		idx.Type = DefaultType
	}
	if err := writeIndex(cacheDir, idx); err != nil {
		return "", nil, err
	}
	return idx.Type, idx.Patches, nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer func() {
			_ = rc.Close()
		}()
		data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(data) > maxEntrySize {
			return nil, fmt.Errorf("%s exceeds %d bytes", name, maxEntrySize)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: missing %s", bundles.ErrUnrecognizedFormat, name)
}

// parseManifest accepts the attribute spellings used by the different bundle
// formats in the wild
func parseManifest(raw []byte) (*bundles.Manifest, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid manifest", bundles.ErrUnrecognizedFormat)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: manifest is not an object", bundles.ErrUnrecognizedFormat)
	}
	pick := func(paths ...string) string {
		for _, p := range paths {
			if v := strings.TrimSpace(doc.Get(p).String()); v != "" {
				return v
			}
		}
		return ""
	}
	return &bundles.Manifest{
		Name:        pick("name", "Name", "bundleName"),
		Version:     pick("version", "Version", "bundleVersion"),
		Description: pick("description", "Description"),
		Author:      pick("author", "Author"),
		License:     pick("license", "License"),
		Source:      pick("source", "Source"),
		Website:     pick("website", "Website"),
		Type:        pick("type", "Type"),
	}, nil
}

func readIndex(cacheDir string) (index, bool) {
	data, err := os.ReadFile(filepath.Join(cacheDir, IndexFile))
	if err != nil {
		return index{}, false
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil || idx.Type == "" {
		return index{}, false
	}
	return idx, true
}

func writeIndex(cacheDir string, idx index) error {
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return fmt.Errorf("failed to create derived cache: %w", err)
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal patch index: %w", err)
	}
	path := filepath.Join(cacheDir, IndexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write patch index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move patch index into place: %w", err)
	}
	return nil
}

// IsUnrecognized reports whether err means the artifact is not a known bundle format
func IsUnrecognized(err error) bool {
	return errors.Is(err, bundles.ErrUnrecognizedFormat)
}
