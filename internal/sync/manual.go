package sync

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/network"
)

// manualCheckConcurrency bounds the release lookups of one manual check
const manualCheckConcurrency = 4

// CheckManualUpdates implements Manager
func (p *Pipeline) CheckManualUpdates(ctx context.Context, uids ...int) error {
	var wanted map[int]struct{}
	if len(uids) > 0 {
		wanted = make(map[int]struct{}, len(uids))
		for _, uid := range uids {
			wanted[uid] = struct{}{}
		}
	}

	state := p.repo.State()
	var targets []bundles.Remote
	for _, remote := range state.Remotes() {
		if wanted != nil {
			if _, ok := wanted[remote.UID()]; ok {
				targets = append(targets, remote)
			}
		} else if !remote.AutoUpdate() {
			targets = append(targets, remote)
		}
	}

	if len(targets) == 0 {
		if wanted != nil {
			p.ForgetManual(uids...)
		} else {
			p.RetainManual(func(uid int) bool {
				src, ok := state.Source(uid)
				if !ok {
					return false
				}
				remote, ok := bundles.AsRemote(src)
				return ok && !remote.AutoUpdate()
			})
		}
		return nil
	}

	if !p.prefs.AllowMeteredUpdates() && !network.Usable(ctx, p.monitor, false) {
		slog.Debug("Skipping manual update check because the network is down or metered")
		return nil
	}

	found := make([]*ManualUpdate, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(manualCheckConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			info, err := target.FetchLatestReleaseInfo(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("Failed to check manual update", "bundle_uid", target.UID(), "error", err)
				return nil
			}
			latest := strings.TrimSpace(info.Version)
			if latest != "" && bundles.SameVersion(latest, target.InstalledVersion()) {
				return nil
			}
			if latest == "" {
				latest = target.Version()
			}
			found[i] = &ManualUpdate{LatestVersion: latest, PageURL: info.PageURL}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	checked := make(map[int]struct{}, len(targets))
	for _, t := range targets {
		checked[t.UID()] = struct{}{}
	}

	p.manualMu.Lock()
	defer p.manualMu.Unlock()
	next := make(map[int]ManualUpdate, len(targets))
	for uid, info := range p.manual {
		if _, ok := checked[uid]; ok || wanted == nil {
			continue
		}
		next[uid] = info
	}
	for i, t := range targets {
		if found[i] != nil {
			next[t.UID()] = *found[i]
		}
	}
	p.manual = next
	return nil
}

// ManualUpdates implements Manager
func (p *Pipeline) ManualUpdates() map[int]ManualUpdate {
	p.manualMu.Lock()
	defer p.manualMu.Unlock()
	return maps.Clone(p.manual)
}

// ForgetManual implements repository.Updater
func (p *Pipeline) ForgetManual(uids ...int) {
	p.manualMu.Lock()
	defer p.manualMu.Unlock()
	for _, uid := range uids {
		delete(p.manual, uid)
	}
}

// RetainManual implements repository.Updater
func (p *Pipeline) RetainManual(keep func(uid int) bool) {
	p.manualMu.Lock()
	defer p.manualMu.Unlock()
	maps.DeleteFunc(p.manual, func(uid int, _ ManualUpdate) bool {
		return !keep(uid)
	})
}
