// Package bundles defines patch bundle configurations, the sealed set of bundle
// source variants and the loader that turns a stored configuration into a source.
package bundles

import (
	"errors"
	"time"
)

const (
	// DefaultUID is the identity reserved for the official bundle
	DefaultUID = 0

	// OfficialDisplayName is the canonical label of the official bundle
	OfficialDisplayName = "Official ReVanced Patches"

	// DefaultName is used when the official bundle record has no name yet
	DefaultName = "ReVanced Patches"

	// FallbackName is used for any other bundle without a name
	FallbackName = "Unnamed patches"

	// ArtifactFileName is the cached artifact inside a bundle directory
	ArtifactFileName = "patches.rvp"

	// CacheDirName is the derived cache sub-directory inside a bundle directory
	CacheDirName = "cache"
)

var (
	// ErrNotFound is returned when a bundle uid is unknown
	ErrNotFound = errors.New("bundle not found")

	// ErrUnrecognizedFormat is returned when an artifact is not a known bundle format
	ErrUnrecognizedFormat = errors.New("unrecognized bundle format")

	// ErrEmptyArtifact is returned when a download or import produced no bytes
	ErrEmptyArtifact = errors.New("bundle artifact is empty")

	// ErrNoArtifactURL is returned when release info carries no usable download URL
	ErrNoArtifactURL = errors.New("release does not contain a downloadable artifact URL")

	// ErrTokenRequired is returned when a pull request artifact is requested without a GitHub token
	ErrTokenRequired = errors.New("a GitHub personal access token is required")
)

// Config is the durable record of a bundle
type Config struct {
	UID                 int       `json:"uid"`
	Name                string    `json:"name"`
	DisplayName         string    `json:"displayName,omitempty"`
	Origin              Origin    `json:"origin"`
	VersionSignature    string    `json:"versionSignature,omitempty"`
	AutoUpdate          bool      `json:"autoUpdate"`
	SearchUpdate        bool      `json:"searchUpdate"`
	Enabled             bool      `json:"enabled"`
	SortOrder           int       `json:"sortOrder"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	LastNotifiedVersion string    `json:"lastNotifiedVersion,omitempty"`
}

// IsDefault reports whether the record is the official bundle
func (c Config) IsDefault() bool {
	return c.UID == DefaultUID
}

// DefaultConfig returns the record the official bundle is recreated from
func DefaultConfig(now time.Time) Config {
	return Config{
		UID:          DefaultUID,
		Origin:       APIOrigin(),
		AutoUpdate:   false,
		SearchUpdate: true,
		Enabled:      true,
		SortOrder:    0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Availability describes whether a bundle's artifact can be used
type Availability int

const (
	// Missing means no artifact has been downloaded or imported yet
	Missing Availability = iota
	// Available means the artifact is present and loaded
	Available
	// Failed means loading the artifact failed; Err carries the cause
	Failed
)

// String returns the availability name
func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Failed:
		return "failed"
	default:
		return "missing"
	}
}

// MarshalText implements encoding.TextMarshaler
func (a Availability) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Manifest holds the attributes a bundle artifact declares about itself
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	License     string `json:"license,omitempty"`
	Source      string `json:"source,omitempty"`
	Website     string `json:"website,omitempty"`
	Type        string `json:"type,omitempty"`
}

// CompatiblePackage names an app package and the versions a patch supports
type CompatiblePackage struct {
	Name     string   `json:"name"`
	Versions []string `json:"versions,omitempty"`
}

// PatchDescriptor describes one patch in a bundle
type PatchDescriptor struct {
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Use                bool                `json:"use"`
	CompatiblePackages []CompatiblePackage `json:"compatiblePackages,omitempty"`
}

// Info is the derived metadata of an available bundle
type Info struct {
	UID     int               `json:"uid"`
	Name    string            `json:"name"`
	Version string            `json:"version,omitempty"`
	Type    string            `json:"type"`
	Patches []PatchDescriptor `json:"patches"`
}

// ReleaseInfo describes the latest release of a remote bundle
type ReleaseInfo struct {
	Version      string    `json:"version"`
	DownloadURL  string    `json:"downloadUrl"`
	SignatureURL string    `json:"signatureUrl,omitempty"`
	PageURL      string    `json:"pageUrl,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DownloadResult is returned after a new artifact was stored
type DownloadResult struct {
	VersionSignature string
	// AssetCreatedAt is zero when the release did not carry a timestamp
	AssetCreatedAt time.Time
	Release        ReleaseInfo
}

// ProgressFunc receives byte progress; total is <= 0 when unknown.
// Returning an error aborts the transfer with that error.
type ProgressFunc func(read, total int64) error
