package remote

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// PullRequestClient resolves the CI artifact of a pull request: the head commit
// comes from the git remote, the workflow run and its artifact from the Actions API
type PullRequestClient struct {
	github *GitHubClient
	heads  HeadResolver
}

// NewPullRequestClient creates a pull request artifact resolver
func NewPullRequestClient(github *GitHubClient, heads HeadResolver) *PullRequestClient {
	return &PullRequestClient{github: github, heads: heads}
}

// PullRequestArtifact implements bundles.PullRequestAPI
func (c *PullRequestClient) PullRequestArtifact(
	ctx context.Context, owner, repo string, number int,
) (bundles.ReleaseInfo, error) {
	repository := Repository{Owner: owner, Name: repo}

	sha, err := c.heads.PullRequestHead(ctx, repository.CloneURL(), number)
	if err != nil {
		return bundles.ReleaseInfo{}, err
	}

	runs, err := c.github.get(ctx, repository, "actions/runs?"+url.Values{"head_sha": []string{sha}}.Encode())
	if err != nil {
		return bundles.ReleaseInfo{}, fmt.Errorf("failed to list workflow runs: %w", err)
	}
	var runID int64
	for _, run := range runs.Get("workflow_runs").Array() {
		if run.Get("conclusion").String() == "success" {
			runID = run.Get("id").Int()
			break
		}
	}
	if runID == 0 {
		return bundles.ReleaseInfo{}, fmt.Errorf("no successful workflow run for %s", shortSHA(sha))
	}

	artifacts, err := c.github.get(ctx, repository, fmt.Sprintf("actions/runs/%d/artifacts", runID))
	if err != nil {
		return bundles.ReleaseInfo{}, fmt.Errorf("failed to list workflow artifacts: %w", err)
	}
	for _, artifact := range artifacts.Get("artifacts").Array() {
		if artifact.Get("expired").Bool() {
			continue
		}
		info := bundles.ReleaseInfo{
			Version:     shortSHA(sha),
			DownloadURL: artifact.Get("archive_download_url").String(),
			PageURL:     fmt.Sprintf("%s/pull/%d", repository.HTMLURL(), number),
			Description: artifact.Get("name").String(),
		}
		if t, err := time.Parse(time.RFC3339, artifact.Get("created_at").String()); err == nil {
			info.CreatedAt = t.UTC()
		}
		return info, nil
	}
	return bundles.ReleaseInfo{}, fmt.Errorf("workflow run %d has no downloadable artifact: %w", runID, bundles.ErrNoArtifactURL)
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
