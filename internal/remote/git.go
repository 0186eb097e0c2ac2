package remote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// HeadResolver resolves the head commit of a pull request
type HeadResolver interface {
	PullRequestHead(ctx context.Context, cloneURL string, number int) (string, error)
}

// gitHeadResolver lists the remote's references without cloning anything
type gitHeadResolver struct {
	token TokenSource
}

// NewGitHeadResolver creates a resolver that authenticates with token when it is set
func NewGitHeadResolver(token TokenSource) HeadResolver {
	if token == nil {
		token = func() string { return "" }
	}
	return &gitHeadResolver{token: token}
}

// PullRequestHead implements HeadResolver
func (r *gitHeadResolver) PullRequestHead(ctx context.Context, cloneURL string, number int) (string, error) {
	rem := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{cloneURL},
	})

	opts := &git.ListOptions{}
	if token := strings.TrimSpace(r.token()); token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
		slog.Debug("Using Git HTTP token authentication", "url", cloneURL)
	}

	refs, err := rem.ListContext(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("failed to list remote references: %w", err)
	}
	return findPullHead(refs, number)
}

func findPullHead(refs []*plumbing.Reference, number int) (string, error) {
	name := plumbing.ReferenceName(fmt.Sprintf("refs/pull/%d/head", number))
	for _, ref := range refs {
		if ref.Name() == name && ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
	}
	return "", fmt.Errorf("pull request #%d not found", number)
}
