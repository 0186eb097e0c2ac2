package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/httpclient"
)

// DefaultLookupTimeout bounds one discovery query against one endpoint
const DefaultLookupTimeout = 15 * time.Second

const bundleFields = `
    id
    bundle_type
    created_at
    description
    download_url
    signature_download_url
    is_prerelease
    version
    source {
      url
      source_metadatum {
        owner_name
        owner_avatar_url
        repo_name
        repo_description
        repo_stars
        repo_pushed_at
        is_repo_archived
      }
    }
    patches_aggregate {
      aggregate {
        count
      }
    }`

const bundleLatestQuery = `query BundleLatest($owner: String!, $repo: String!, $prerelease: Boolean!) {
  bundle(
    where: {
      is_prerelease: { _eq: $prerelease }
      source: { source_metadatum: { owner_name: { _eq: $owner }, repo_name: { _eq: $repo } } }
    }
    order_by: { created_at: desc }
    limit: 1
  ) {` + bundleFields + `
  }
}`

const bundleByIDQuery = `query BundleById($id: Int!) {
  bundle(where: { id: { _eq: $id } }) {` + bundleFields + `
  }
}`

const bundleSearchQuery = `query BundleDiscovery($where: bundle_bool_exp, $limit: Int, $offset: Int) {
  bundle(where: $where, order_by: { created_at: desc }, limit: $limit, offset: $offset) {` + bundleFields + `
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// DiscoveryClient queries the external bundle GraphQL service. Every query tries
// the endpoints in order and returns the first successful answer.
type DiscoveryClient struct {
	http      httpclient.Client
	endpoints []string
	timeout   time.Duration
}

// NewDiscoveryClient creates a client over the given endpoints, stable first
func NewDiscoveryClient(client httpclient.Client, endpoints []string, timeout time.Duration) *DiscoveryClient {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &DiscoveryClient{http: client, endpoints: endpoints, timeout: timeout}
}

// LatestBundle implements bundles.DiscoveryAPI
func (c *DiscoveryClient) LatestBundle(
	ctx context.Context, owner, repo string, prerelease bool,
) (*bundles.ExternalSnapshot, error) {
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, nil
	}
	snapshots, err := c.query(ctx, bundleLatestQuery, map[string]any{
		"owner":      owner,
		"repo":       repo,
		"prerelease": prerelease,
	})
	if err != nil || len(snapshots) == 0 {
		return nil, err
	}
	return &snapshots[0], nil
}

// BundleByID implements bundles.DiscoveryAPI
func (c *DiscoveryClient) BundleByID(ctx context.Context, id int) (*bundles.ExternalSnapshot, error) {
	snapshots, err := c.query(ctx, bundleByIDQuery, map[string]any{"id": id})
	if err != nil || len(snapshots) == 0 {
		return nil, err
	}
	return &snapshots[0], nil
}

// Search lists bundles whose patches target a package matching packageName.
// An empty name lists every bundle.
func (c *DiscoveryClient) Search(
	ctx context.Context, packageName string, limit, offset int,
) ([]bundles.ExternalSnapshot, error) {
	where := map[string]any{}
	if name := strings.TrimSpace(packageName); name != "" {
		where = map[string]any{
			"patches": map[string]any{
				"patch_packages": map[string]any{
					"package": map[string]any{
						"name": map[string]any{"_ilike": "%" + name + "%"},
					},
				},
			},
		}
	}
	if limit <= 0 {
		limit = 30
	}
	return c.query(ctx, bundleSearchQuery, map[string]any{"where": where, "limit": limit, "offset": offset})
}

// Hosts returns the hostnames of the configured endpoints
func (c *DiscoveryClient) Hosts() []string {
	hosts := make([]string, 0, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		if u, err := url.Parse(endpoint); err == nil && u.Hostname() != "" {
			hosts = append(hosts, u.Hostname())
		}
	}
	return hosts
}

func (c *DiscoveryClient) query(
	ctx context.Context, query string, variables map[string]any,
) ([]bundles.ExternalSnapshot, error) {
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("no discovery endpoints configured")
	}
	var errs []error
	for _, endpoint := range c.endpoints {
		snapshots, err := c.queryEndpoint(ctx, endpoint, query, variables)
		if err == nil {
			return snapshots, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("Discovery endpoint failed", "endpoint", endpoint, "error", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("failed to query discovery service: %w", errors.Join(errs...))
}

func (c *DiscoveryClient) queryEndpoint(
	ctx context.Context, endpoint, query string, variables map[string]any,
) ([]bundles.ExternalSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.http.PostJSON(ctx, endpoint, graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", endpoint)
	}
	doc := gjson.ParseBytes(body)

	var messages []string
	for _, e := range doc.Get("errors").Array() {
		if msg := strings.TrimSpace(e.Get("message").String()); msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) > 0 {
		return nil, fmt.Errorf("%s: %s", endpoint, strings.Join(messages, "\n"))
	}
	data := doc.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, fmt.Errorf("%s: response is missing data", endpoint)
	}

	host := ""
	if u, err := url.Parse(endpoint); err == nil {
		host = u.Host
	}
	nodes := data.Get("bundle").Array()
	snapshots := make([]bundles.ExternalSnapshot, 0, len(nodes))
	for _, node := range nodes {
		snapshots = append(snapshots, toSnapshot(node, host))
	}
	return snapshots, nil
}

func toSnapshot(node gjson.Result, host string) bundles.ExternalSnapshot {
	meta := node.Get("source.source_metadatum")
	patchCount := int(node.Get("patches_aggregate.aggregate.count").Int())
	if patchCount == 0 {
		patchCount = len(node.Get("patches").Array())
	}
	return bundles.ExternalSnapshot{
		BundleID:             int(node.Get("id").Int()),
		OwnerName:            meta.Get("owner_name").String(),
		OwnerAvatarURL:       meta.Get("owner_avatar_url").String(),
		RepoName:             meta.Get("repo_name").String(),
		RepoDescription:      meta.Get("repo_description").String(),
		SourceURL:            node.Get("source.url").String(),
		RepoStars:            int(meta.Get("repo_stars").Int()),
		RepoPushedAt:         meta.Get("repo_pushed_at").String(),
		IsRepoArchived:       meta.Get("is_repo_archived").Bool(),
		BundleType:           strings.TrimSpace(node.Get("bundle_type").String()),
		CreatedAt:            node.Get("created_at").String(),
		Description:          node.Get("description").String(),
		Version:              strings.TrimSpace(node.Get("version").String()),
		DownloadURL:          NormalizeBundleURL(node.Get("download_url").String(), host),
		SignatureDownloadURL: NormalizeBundleURL(node.Get("signature_download_url").String(), host),
		IsPrerelease:         node.Get("is_prerelease").Bool(),
		PatchCount:           patchCount,
	}
}

// NormalizeBundleURL resolves a relative artifact URL against the host that
// returned it. Absolute http(s) URLs are returned unchanged.
func NormalizeBundleURL(raw, host string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return "https://" + host + trimmed
}
