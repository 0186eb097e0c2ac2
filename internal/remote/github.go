package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/httpclient"
	"github.com/stacklok/toolhive-bundle-sync/internal/versions"
)

// TokenSource returns the GitHub token to send; empty means anonymous
type TokenSource func() string

// Repository identifies a GitHub repository
type Repository struct {
	Owner string
	Name  string
}

// HTMLURL is the browser URL of the repository
func (r Repository) HTMLURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Name)
}

// CloneURL is the smart HTTP URL of the repository
func (r Repository) CloneURL() string {
	return r.HTMLURL() + ".git"
}

// ParseRepositoryURL accepts https://github.com/<owner>/<repo> and
// https://api.github.com/repos/<owner>/<repo>, with or without a .git suffix
func ParseRepositoryURL(raw string) (Repository, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Repository{}, fmt.Errorf("invalid repository URL %q: %w", raw, err)
	}
	var parts []string
	for _, p := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	switch strings.ToLower(u.Hostname()) {
	case "github.com":
		if len(parts) >= 2 {
			return Repository{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, nil
		}
	case "api.github.com":
		if len(parts) >= 3 && parts[0] == "repos" {
			return Repository{Owner: parts[1], Name: strings.TrimSuffix(parts[2], ".git")}, nil
		}
	}
	return Repository{}, fmt.Errorf("unsupported repository URL %q", raw)
}

// GitHubClient talks to the GitHub REST API
type GitHubClient struct {
	http    httpclient.Client
	apiBase string
	token   TokenSource
}

// NewGitHubClient creates a client for the REST API at apiBase
func NewGitHubClient(client httpclient.Client, apiBase string, token TokenSource) *GitHubClient {
	if token == nil {
		token = func() string { return "" }
	}
	return &GitHubClient{http: client, apiBase: strings.TrimRight(apiBase, "/"), token: token}
}

func (c *GitHubClient) get(ctx context.Context, repo Repository, path string) (gjson.Result, error) {
	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if token := strings.TrimSpace(c.token()); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/%s", c.apiBase,
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name), strings.TrimLeft(path, "/"))
	body, err := c.http.GetWithHeader(ctx, endpoint, header)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("GitHub response for %s is not valid JSON", endpoint)
	}
	return gjson.ParseBytes(body), nil
}

// AssetMatcher selects a release asset by name and content type
type AssetMatcher func(name, contentType string) bool

// IsManagerAsset matches Android application packages
func IsManagerAsset(name, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".apk") ||
		strings.Contains(strings.ToLower(contentType), "android.package-archive")
}

// LatestRelease returns the first non-draft release carrying a matching asset.
// Prereleases are skipped unless includePrerelease is set.
func (c *GitHubClient) LatestRelease(
	ctx context.Context, repo Repository, includePrerelease bool, match AssetMatcher,
) (bundles.ReleaseInfo, error) {
	releases, err := c.get(ctx, repo, "releases")
	if err != nil {
		return bundles.ReleaseInfo{}, fmt.Errorf("failed to list releases: %w", err)
	}

	for _, release := range releases.Array() {
		if release.Get("draft").Bool() || (!includePrerelease && release.Get("prerelease").Bool()) {
			continue
		}
		assets := release.Get("assets").Array()
		for _, asset := range assets {
			name := asset.Get("name").String()
			if !match(name, asset.Get("content_type").String()) {
				continue
			}
			return releaseToInfo(repo, release, asset, assets)
		}
	}
	return bundles.ReleaseInfo{}, fmt.Errorf("no matching release found in %s/%s", repo.Owner, repo.Name)
}

func releaseToInfo(repo Repository, release, asset gjson.Result, assets []gjson.Result) (bundles.ReleaseInfo, error) {
	tag := release.Get("tag_name").String()
	stamp := release.Get("published_at").String()
	if stamp == "" {
		stamp = release.Get("created_at").String()
	}
	createdAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return bundles.ReleaseInfo{}, fmt.Errorf("release %s does not contain a timestamp", tag)
	}
	description := strings.TrimSpace(release.Get("body").String())
	if description == "" {
		description = release.Get("name").String()
	}
	return bundles.ReleaseInfo{
		Version:      tag,
		DownloadURL:  asset.Get("browser_download_url").String(),
		SignatureURL: signatureURL(asset.Get("name").String(), assets),
		PageURL:      fmt.Sprintf("%s/releases/tag/%s", repo.HTMLURL(), tag),
		Description:  description,
		CreatedAt:    createdAt.UTC(),
	}, nil
}

func signatureURL(assetName string, assets []gjson.Result) string {
	base := assetName
	if i := strings.LastIndex(assetName, "."); i > 0 {
		base = assetName[:i]
	}
	candidates := map[string]bool{
		assetName + ".sig": true,
		assetName + ".asc": true,
		base + ".sig":      true,
		base + ".asc":      true,
	}
	for _, a := range assets {
		if candidates[a.Get("name").String()] {
			return a.Get("browser_download_url").String()
		}
	}
	return ""
}

// ManagerChecker reports self-updates of the manager application
type ManagerChecker struct {
	github  *GitHubClient
	repo    Repository
	current string
}

// NewManagerChecker creates a checker for repoURL; current is the running version
func NewManagerChecker(github *GitHubClient, repoURL, current string) (*ManagerChecker, error) {
	repo, err := ParseRepositoryURL(repoURL)
	if err != nil {
		return nil, err
	}
	return &ManagerChecker{github: github, repo: repo, current: current}, nil
}

// Check returns the latest release when it differs from the running version, nil otherwise
func (m *ManagerChecker) Check(ctx context.Context, includePrerelease bool) (*bundles.ReleaseInfo, error) {
	info, err := m.github.LatestRelease(ctx, m.repo, includePrerelease, IsManagerAsset)
	if err != nil {
		return nil, err
	}
	if !versions.IsUpdate(info.Version, m.current) {
		return nil, nil
	}
	return &info, nil
}
