package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/otel"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

var errIncompleteItem = errors.New("discovered bundle has no owner or repository")

// importOne creates the remote bundle for entry and downloads it
func (q *Queue) importOne(ctx context.Context, entry queued) (err error) {
	ctx, span := otel.StartSpan(ctx, q.tracer, "discovery.import",
		trace.WithAttributes(
			otel.AttrImportKey.String(entry.key),
			otel.AttrImportChan.String(string(entry.item.Channel)),
		),
	)
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	snapshot, err := q.resolve(ctx, entry.item)
	if err != nil {
		return err
	}
	owner, repo := strings.TrimSpace(snapshot.OwnerName), strings.TrimSpace(snapshot.RepoName)
	if owner == "" || repo == "" {
		return errIncompleteItem
	}

	channel := entry.item.Channel
	if channel == "" {
		channel = ChannelLatest
	}
	endpoint := bundles.DiscoveryEndpoint(q.host, owner, repo, channel.prerelease())
	meta := bundles.MetadataFromSnapshot(snapshot, channel == ChannelLatest)

	remote, err := q.repo.AddRemote(ctx, endpoint, entry.item.AutoUpdate, func(dir string) error {
		return bundles.WriteExternalMetadata(dir, meta)
	})
	if err != nil {
		return fmt.Errorf("failed to add bundle: %w", err)
	}

	uid := remote.UID()
	span.SetAttributes(otel.AttrBundleUID.Int(uid))
	q.mu.Lock()
	q.currentUID = uid
	q.mu.Unlock()

	return q.manager.RequestAndWait(ctx, pkgsync.Request{
		Force:              true,
		AllowUnsafeNetwork: true,
		Predicate:          pkgsync.ForUIDs(uid),
		OnBundleProgress: func(progressUID int, read, total int64) {
			if progressUID != uid {
				return
			}
			q.updateProgress(func(p *Progress) {
				if p.ImportID == entry.id {
					p.BytesRead, p.BytesTotal = read, total
				}
			})
		},
	})
}

// resolve fills a bare bundle id from the discovery service
func (q *Queue) resolve(ctx context.Context, item Item) (bundles.ExternalSnapshot, error) {
	s := item.Snapshot
	if s.OwnerName != "" && s.RepoName != "" {
		return s, nil
	}
	if s.BundleID <= 0 || q.lookup == nil {
		return s, nil
	}
	found, err := q.lookup.BundleByID(ctx, s.BundleID)
	if err != nil {
		return s, fmt.Errorf("failed to look up bundle %d: %w", s.BundleID, err)
	}
	if found == nil {
		return s, fmt.Errorf("bundle %d: %w", s.BundleID, bundles.ErrNotFound)
	}
	return *found, nil
}
