package v1

import (
	"time"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

// BundleResponse is one bundle in the list
type BundleResponse struct {
	UID              int                   `json:"uid"`
	Name             string                `json:"name"`
	DisplayName      string                `json:"displayName,omitempty"`
	Title            string                `json:"title"`
	Origin           bundles.Origin        `json:"origin"`
	Availability     string                `json:"availability"`
	Version          string                `json:"version,omitempty"`
	Error            string                `json:"error,omitempty"`
	Enabled          bool                  `json:"enabled"`
	IsDefault        bool                  `json:"isDefault"`
	Remote           bool                  `json:"remote"`
	AutoUpdate       bool                  `json:"autoUpdate,omitempty"`
	InstalledVersion string                `json:"installedVersion,omitempty"`
	PatchCount       int                   `json:"patchCount"`
	ManualUpdate     *pkgsync.ManualUpdate `json:"manualUpdate,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// ListBundlesResponse is the body of GET /v1/bundles
type ListBundlesResponse struct {
	Bundles []BundleResponse `json:"bundles"`
}

// CreateBundleRequest is the body of POST /v1/bundles
type CreateBundleRequest struct {
	URL        string `json:"url"`
	AutoUpdate bool   `json:"autoUpdate"`
}

// CreateBundleResponse reports the uid of a new bundle. Error is set when the
// bundle was recorded but its first download failed.
type CreateBundleResponse struct {
	UID   int    `json:"uid"`
	Error string `json:"error,omitempty"`
}

// UpdateBundleRequest is the body of PATCH /v1/bundles/{uid}; nil fields are left alone
type UpdateBundleRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	AutoUpdate  *bool   `json:"autoUpdate,omitempty"`
}

// ReorderRequest is the body of POST /v1/bundles/reorder
type ReorderRequest struct {
	Order []int `json:"order"`
}

// UpdatesRequest is the body of POST /v1/updates
type UpdatesRequest struct {
	Force              bool  `json:"force"`
	ShowToast          bool  `json:"showToast"`
	AllowUnsafeNetwork bool  `json:"allowUnsafeNetwork"`
	UIDs               []int `json:"uids,omitempty"`
	// Wait blocks until the pass finished and reports its errors
	Wait bool `json:"wait"`
}

// UIDsRequest names bundles; an empty list means all of them where that applies
type UIDsRequest struct {
	UIDs []int `json:"uids"`
}

// ImportRequest is the body of POST /v1/discovery/imports
type ImportRequest struct {
	Snapshot   bundles.ExternalSnapshot `json:"snapshot"`
	Channel    string                   `json:"channel,omitempty"`
	AutoUpdate bool                     `json:"autoUpdate"`
}

// ImportResponse reports what the queue did with an import
type ImportResponse struct {
	Outcome string `json:"outcome"`
}

// SearchResponse is the body of GET /v1/discovery/search
type SearchResponse struct {
	Bundles []bundles.ExternalSnapshot `json:"bundles"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}

// ForegroundRequest is the body of PUT /v1/push/foreground
type ForegroundRequest struct {
	Foreground bool `json:"foreground"`
}
