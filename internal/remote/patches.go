// Package remote implements the upstream services bundle sources are refreshed from:
// the official patches API, the external bundle discovery service and GitHub.
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/httpclient"
)

// PatchesClient reads the latest official patches release
type PatchesClient struct {
	http    httpclient.Client
	baseURL string
}

// NewPatchesClient creates a client for the API rooted at baseURL
func NewPatchesClient(client httpclient.Client, baseURL string) *PatchesClient {
	return &PatchesClient{http: client, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// LatestPatches implements bundles.PatchesAPI
func (c *PatchesClient) LatestPatches(ctx context.Context, prerelease bool) (bundles.ReleaseInfo, error) {
	endpoint := fmt.Sprintf("%s/v4/patches?%s", c.baseURL,
		url.Values{"prerelease": []string{strconv.FormatBool(prerelease)}}.Encode())
	body, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return bundles.ReleaseInfo{}, fmt.Errorf("failed to fetch latest patches: %w", err)
	}
	info, err := httpclient.ParseRelease(body)
	if err != nil {
		return bundles.ReleaseInfo{}, fmt.Errorf("failed to parse latest patches: %w", err)
	}
	return info, nil
}
