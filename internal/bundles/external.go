package bundles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ExternalMetadataFile is written next to the artifact of discovery-sourced bundles
const ExternalMetadataFile = "external_bundle.json"

// ExternalSnapshot is one bundle as reported by the discovery service
type ExternalSnapshot struct {
	BundleID             int    `json:"bundleId"`
	OwnerName            string `json:"ownerName"`
	OwnerAvatarURL       string `json:"ownerAvatarUrl,omitempty"`
	RepoName             string `json:"repoName"`
	RepoDescription      string `json:"repoDescription,omitempty"`
	SourceURL            string `json:"sourceUrl,omitempty"`
	RepoStars            int    `json:"repoStars,omitempty"`
	RepoPushedAt         string `json:"repoPushedAt,omitempty"`
	LastRefreshedAt      string `json:"lastRefreshedAt,omitempty"`
	IsRepoArchived       bool   `json:"isRepoArchived,omitempty"`
	BundleType           string `json:"bundleType,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`
	Description          string `json:"description,omitempty"`
	Version              string `json:"version"`
	DownloadURL          string `json:"downloadUrl,omitempty"`
	SignatureDownloadURL string `json:"signatureDownloadUrl,omitempty"`
	IsPrerelease         bool   `json:"isPrerelease"`
	PatchCount           int    `json:"patchCount,omitempty"`
}

// ExternalMetadata is what a discovery-sourced bundle remembers about its origin
type ExternalMetadata struct {
	BundleID             int    `json:"bundleId"`
	DownloadURL          string `json:"downloadUrl,omitempty"`
	SignatureDownloadURL string `json:"signatureDownloadUrl,omitempty"`
	Version              string `json:"version,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`
	Description          string `json:"description,omitempty"`
	OwnerName            string `json:"ownerName,omitempty"`
	RepoName             string `json:"repoName,omitempty"`
	// IsPrerelease pins the channel; nil tracks the newest of both channels
	IsPrerelease *bool `json:"isPrerelease,omitempty"`
}

// MetadataFromSnapshot builds the metadata stored when a discovered bundle is imported
func MetadataFromSnapshot(s ExternalSnapshot, trackLatestAcrossChannels bool) ExternalMetadata {
	m := ExternalMetadata{
		BundleID:             s.BundleID,
		DownloadURL:          s.DownloadURL,
		SignatureDownloadURL: s.SignatureDownloadURL,
		Version:              s.Version,
		CreatedAt:            s.CreatedAt,
		Description:          s.Description,
		OwnerName:            s.OwnerName,
		RepoName:             s.RepoName,
	}
	if !trackLatestAcrossChannels {
		pre := s.IsPrerelease
		m.IsPrerelease = &pre
	}
	return m
}

// ReadExternalMetadata returns nil when the bundle directory has no metadata file
func ReadExternalMetadata(dir string) (*ExternalMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, ExternalMetadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read external bundle metadata: %w", err)
	}
	var m ExternalMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse external bundle metadata: %w", err)
	}
	return &m, nil
}

// WriteExternalMetadata atomically replaces the metadata file of a bundle directory
func WriteExternalMetadata(dir string, m ExternalMetadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal external bundle metadata: %w", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create bundle directory: %w", err)
	}
	path := filepath.Join(dir, ExternalMetadataFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write external bundle metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move external bundle metadata into place: %w", err)
	}
	return nil
}

// DiscoveryEndpoint builds the endpoint stored for a discovered bundle
func DiscoveryEndpoint(host, owner, repo string, prerelease *bool) string {
	u := url.URL{
		Scheme:  "https",
		Host:    host,
		Path:    fmt.Sprintf("/api/v1/bundle/%s/%s", owner, repo),
		RawPath: fmt.Sprintf("/api/v1/bundle/%s/%s", url.PathEscape(owner), url.PathEscape(repo)),
	}
	if prerelease != nil {
		u.RawQuery = url.Values{"prerelease": []string{fmt.Sprint(*prerelease)}}.Encode()
	}
	return u.String()
}

// IsDiscoveryEndpoint reports whether raw points at the discovery API on one of hosts
func IsDiscoveryEndpoint(raw string, hosts []string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	known := false
	for _, h := range hosts {
		if strings.EqualFold(h, host) {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	return strings.HasPrefix(u.Path, "/api/v1/bundle/") || strings.HasPrefix(u.Path, "/bundles/id")
}

// parseDiscoveryEndpoint extracts owner, repository and channel from a discovery endpoint
func parseDiscoveryEndpoint(candidates ...string) (owner, repo string, prerelease *bool) {
	for _, candidate := range candidates {
		u, err := url.Parse(strings.TrimSpace(candidate))
		if err != nil || candidate == "" {
			continue
		}
		var segments []string
		for _, s := range strings.Split(strings.Trim(u.EscapedPath(), "/"), "/") {
			if s != "" {
				segments = append(segments, s)
			}
		}
		if len(segments) < 5 ||
			!strings.EqualFold(segments[0], "api") ||
			!strings.EqualFold(segments[1], "v1") ||
			!strings.EqualFold(segments[2], "bundle") {
			continue
		}
		owner, _ = url.PathUnescape(segments[3])
		repo, _ = url.PathUnescape(segments[4])
		switch strings.ToLower(u.Query().Get("prerelease")) {
		case "true":
			v := true
			prerelease = &v
		case "false":
			v := false
			prerelease = &v
		}
		return owner, repo, prerelease
	}
	return "", "", nil
}

// DiscoveryBundle follows a bundle found through the discovery service
type DiscoveryBundle struct {
	sourceCore
	remoteCore
	meta *externalState
}

// externalState is shared by copies of the same bundle; refreshing the latest
// release rewrites it
type externalState struct {
	mu   sync.Mutex
	data ExternalMetadata
}

func (b *DiscoveryBundle) withCore(c sourceCore) Source {
	cp := *b
	cp.sourceCore = c
	return &cp
}

func (b *DiscoveryBundle) withRemote(r remoteCore) Remote {
	cp := *b
	cp.remoteCore = r
	return &cp
}

// Metadata returns the current discovery metadata
func (b *DiscoveryBundle) Metadata() ExternalMetadata {
	b.meta.mu.Lock()
	defer b.meta.mu.Unlock()
	return b.meta.data
}

func (b *DiscoveryBundle) setMetadata(m ExternalMetadata) {
	b.meta.mu.Lock()
	b.meta.data = m
	b.meta.mu.Unlock()
	if err := WriteExternalMetadata(b.dir, m); err != nil {
		slog.Warn("Failed to persist external bundle metadata", "bundle_uid", b.uid, "error", err)
	}
}

func (b *DiscoveryBundle) latestInfo(ctx context.Context) (ReleaseInfo, error) {
	if b.deps == nil || b.deps.Discovery == nil {
		return ReleaseInfo{}, fmt.Errorf("no discovery API configured")
	}
	meta := b.Metadata()
	endpointOwner, endpointRepo, endpointPrerelease := parseDiscoveryEndpoint(b.endpoint, meta.DownloadURL)

	owner := firstNonBlank(meta.OwnerName, endpointOwner)
	repo := firstNonBlank(meta.RepoName, endpointRepo)
	prerelease := meta.IsPrerelease
	if prerelease == nil {
		prerelease = endpointPrerelease
	}

	if strings.EqualFold(owner, "ReVanced") && strings.EqualFold(repo, "revanced-patches") && b.deps.Patches != nil {
		if info, ok := b.officialLatest(ctx, prerelease); ok {
			meta.DownloadURL = info.DownloadURL
			meta.SignatureDownloadURL = info.SignatureURL
			meta.Version = info.Version
			meta.CreatedAt = info.CreatedAt.UTC().Format(time.RFC3339)
			if info.Description != "" {
				meta.Description = info.Description
			}
			meta.IsPrerelease = prerelease
			b.setMetadata(meta)
			return info, nil
		}
	}

	trackLatest := owner != "" && repo != "" && prerelease == nil
	var latest *ExternalSnapshot
	if owner != "" && repo != "" {
		if prerelease != nil {
			latest, _ = b.deps.Discovery.LatestBundle(ctx, owner, repo, *prerelease)
		} else {
			release, _ := b.deps.Discovery.LatestBundle(ctx, owner, repo, false)
			pre, _ := b.deps.Discovery.LatestBundle(ctx, owner, repo, true)
			latest = pickLatestSnapshot(release, pre)
		}
	}
	if latest == nil && meta.BundleID > 0 {
		latest, _ = b.deps.Discovery.BundleByID(ctx, meta.BundleID)
	}
	if latest != nil {
		meta = b.mergeSnapshot(meta, *latest, trackLatest)
		b.setMetadata(meta)
	}
	return b.snapshotToRelease(latest, meta)
}

func (b *DiscoveryBundle) officialLatest(ctx context.Context, prerelease *bool) (ReleaseInfo, bool) {
	if prerelease != nil {
		info, err := b.deps.Patches.LatestPatches(ctx, *prerelease)
		return info, err == nil
	}
	release, relErr := b.deps.Patches.LatestPatches(ctx, false)
	pre, preErr := b.deps.Patches.LatestPatches(ctx, true)
	switch {
	case relErr != nil && preErr != nil:
		return ReleaseInfo{}, false
	case relErr != nil:
		return pre, true
	case preErr != nil:
		return release, true
	case pre.CreatedAt.After(release.CreatedAt):
		return pre, true
	default:
		return release, true
	}
}

func (b *DiscoveryBundle) mergeSnapshot(meta ExternalMetadata, s ExternalSnapshot, trackLatest bool) ExternalMetadata {
	hosts := b.discoveryHosts()
	if u := safeArtifactURL(s.DownloadURL, hosts); u != "" {
		meta.DownloadURL = u
	}
	if s.SignatureDownloadURL != "" {
		meta.SignatureDownloadURL = s.SignatureDownloadURL
	}
	if strings.TrimSpace(s.Version) != "" {
		meta.Version = s.Version
	}
	if strings.TrimSpace(s.CreatedAt) != "" {
		meta.CreatedAt = s.CreatedAt
	}
	if s.Description != "" {
		meta.Description = s.Description
	}
	meta.OwnerName = firstNonBlank(s.OwnerName, meta.OwnerName)
	meta.RepoName = firstNonBlank(s.RepoName, meta.RepoName)
	if trackLatest {
		meta.IsPrerelease = nil
	} else {
		pre := s.IsPrerelease
		meta.IsPrerelease = &pre
	}
	return meta
}

func (b *DiscoveryBundle) snapshotToRelease(s *ExternalSnapshot, meta ExternalMetadata) (ReleaseInfo, error) {
	hosts := b.discoveryHosts()
	var downloadURL, signature, version, description, createdAt, pageURL string
	if s != nil {
		downloadURL = safeArtifactURL(s.DownloadURL, hosts)
		signature = s.SignatureDownloadURL
		version = strings.TrimSpace(s.Version)
		description = s.Description
		createdAt = s.CreatedAt
		pageURL = s.SourceURL
	}
	if downloadURL == "" {
		downloadURL = safeArtifactURL(meta.DownloadURL, hosts)
	}
	if downloadURL == "" {
		return ReleaseInfo{}, ErrNoArtifactURL
	}
	if signature == "" {
		signature = meta.SignatureDownloadURL
	}
	if version == "" {
		version = meta.Version
	}
	if description == "" {
		description = meta.Description
	}
	if createdAt == "" {
		createdAt = meta.CreatedAt
	}

	return ReleaseInfo{
		Version:      version,
		DownloadURL:  downloadURL,
		SignatureURL: signature,
		PageURL:      pageURL,
		Description:  description,
		CreatedAt:    parseTimestamp(createdAt),
	}, nil
}

func (b *DiscoveryBundle) discoveryHosts() []string {
	if b.deps == nil {
		return nil
	}
	return b.deps.DiscoveryHosts
}

func (b *DiscoveryBundle) download(ctx context.Context, info ReleaseInfo, onProgress ProgressFunc) (*DownloadResult, error) {
	return downloadArtifact(ctx, b.sourceCore, b.deps, info, onProgress)
}

// FetchLatestReleaseInfo implements Remote
func (b *DiscoveryBundle) FetchLatestReleaseInfo(ctx context.Context) (ReleaseInfo, error) {
	return fetchLatest(ctx, b)
}

// Update implements Remote
func (b *DiscoveryBundle) Update(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	return runUpdate(ctx, b, onProgress)
}

// DownloadLatest implements Remote
func (b *DiscoveryBundle) DownloadLatest(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	info, err := b.FetchLatestReleaseInfo(ctx)
	if err != nil {
		return nil, err
	}
	return b.download(ctx, info, onProgress)
}

// safeArtifactURL rejects URLs that point back at the discovery API itself
func safeArtifactURL(raw string, hosts []string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || IsDiscoveryEndpoint(trimmed, hosts) {
		return ""
	}
	return trimmed
}

func pickLatestSnapshot(release, prerelease *ExternalSnapshot) *ExternalSnapshot {
	if release == nil {
		return prerelease
	}
	if prerelease == nil {
		return release
	}
	relAt, relOK := snapshotInstant(release)
	preAt, preOK := snapshotInstant(prerelease)
	switch {
	case !relOK:
		return prerelease
	case !preOK:
		return release
	case preAt.After(relAt):
		return prerelease
	default:
		return release
	}
}

func snapshotInstant(s *ExternalSnapshot) (time.Time, bool) {
	for _, raw := range []string{s.RepoPushedAt, s.LastRefreshedAt, s.CreatedAt} {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseTimestamp accepts RFC 3339 instants and zone-less local timestamps; zero when neither parses
func parseTimestamp(raw string) time.Time {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", trimmed); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
