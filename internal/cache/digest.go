// Package cache decides when a bundle's derived cache can be reused. Content
// drift is detected through a per-bundle digest sidecar; an app upgrade purges
// every derived cache once.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DigestFileName is the sidecar recording the last hashed state of an artifact
const DigestFileName = "patches.digest"

// DigestInfo is the last recorded state of an artifact
type DigestInfo struct {
	Hash string
	Size int64
	// LastModified is in unix milliseconds
	LastModified int64
}

// String encodes the sidecar line
func (d DigestInfo) String() string {
	return fmt.Sprintf("%s|%d|%d", d.Hash, d.Size, d.LastModified)
}

// matchesStat reports whether size and modification time are unchanged
func (d DigestInfo) matchesStat(info os.FileInfo) bool {
	return d.Size == info.Size() && d.LastModified == info.ModTime().UnixMilli()
}

// ParseDigestInfo decodes a sidecar line
func ParseDigestInfo(line string) (DigestInfo, error) {
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) != 3 || parts[0] == "" {
		return DigestInfo{}, fmt.Errorf("malformed digest record %q", line)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return DigestInfo{}, fmt.Errorf("malformed digest size: %w", err)
	}
	modified, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return DigestInfo{}, fmt.Errorf("malformed digest timestamp: %w", err)
	}
	return DigestInfo{Hash: parts[0], Size: size, LastModified: modified}, nil
}

// readDigest returns nil when no usable sidecar exists
func readDigest(bundleDir string) *DigestInfo {
	data, err := os.ReadFile(filepath.Join(bundleDir, DigestFileName))
	if err != nil {
		return nil
	}
	d, err := ParseDigestInfo(string(data))
	if err != nil {
		return nil
	}
	return &d
}

func writeDigest(bundleDir string, d DigestInfo) error {
	path := filepath.Join(bundleDir, DigestFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(d.String()), 0600); err != nil {
		return fmt.Errorf("failed to write digest record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move digest record into place: %w", err)
	}
	return nil
}

func removeDigest(bundleDir string) error {
	err := os.Remove(filepath.Join(bundleDir, DigestFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
