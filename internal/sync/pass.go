package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/changelog"
	"github.com/stacklok/toolhive-bundle-sync/internal/network"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/otel"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	"github.com/stacklok/toolhive-bundle-sync/internal/status"
)

// Notice texts
const (
	noticeUnavailable = "Patch bundle updates are unavailable on the current network"
	noticeNoUpdates   = "No patch bundle updates available"
	noticeUpdated     = "Patch bundles updated"
)

// outcome is what happened to one target
type outcome struct {
	phase   status.SyncPhase
	message string
	version string
}

// pass holds the bookkeeping of one run
type pass struct {
	id       string
	req      Request
	logger   *slog.Logger
	results  []repository.UpdateResult
	failures []error
	outcomes map[int]outcome
}

// runPass executes one update pass and returns the joined per-bundle failures
func (p *Pipeline) runPass(ctx context.Context, req Request) error {
	run := &pass{
		id:       uuid.NewString(),
		req:      req,
		outcomes: map[int]outcome{},
	}
	run.logger = slog.With("pass_id", run.id, "force", req.Force)
	start := p.now()

	ctx, span := otel.StartSpan(ctx, p.tracer, "sync.pass",
		trace.WithAttributes(otel.AttrPassID.String(run.id), otel.AttrPassForce.Bool(req.Force)),
	)
	defer span.End()

	err := p.executePass(ctx, run)
	otel.RecordError(span, err)

	p.metrics.RecordPassDuration(ctx, req.Force, p.now().Sub(start), err == nil)
	return err
}

func (p *Pipeline) executePass(ctx context.Context, run *pass) error {
	req := run.req

	if !req.AllowUnsafeNetwork && !p.prefs.AllowMeteredUpdates() && !network.Usable(ctx, p.monitor, false) {
		run.logger.Info("Skipping update pass because the network is down or metered")
		if req.ShowToast {
			p.notifier.Notify(notify.LevelInfo, noticeUnavailable)
		}
		return ErrNetworkUnavailable
	}

	var targets []bundles.Remote
	for _, remote := range p.repo.State().Remotes() {
		if req.selects(remote) {
			targets = append(targets, remote)
		}
	}
	if len(targets) == 0 {
		run.logger.Debug("No bundles selected for update")
		if req.ShowToast {
			p.notifier.Notify(notify.LevelInfo, noticeNoUpdates)
		}
		return nil
	}

	uids := make([]int, len(targets))
	for i, t := range targets {
		uids[i] = t.UID()
	}
	p.markActive(uids)
	defer p.clearActive(uids)

	trace.SpanFromContext(ctx).SetAttributes(otel.AttrTargetCount.Int(len(targets)))
	run.logger.Info("Starting update pass", "targets", len(targets))
	if req.ReportProgress {
		p.setProgress(&Progress{
			PassID:     run.id,
			Total:      len(targets),
			Phase:      PhaseChecking,
			CurrentUID: -1,
		})
	}

	completed := 0
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			p.finishProgress(run, PhaseFailed, completed)
			return err
		}
		if p.isCancelled(target.UID()) {
			run.logger.Debug("Skipping cancelled bundle", "bundle_uid", target.UID())
			run.outcomes[target.UID()] = outcome{phase: status.SyncPhaseCancelled}
			continue
		}

		if err := p.updateTarget(ctx, run, target, completed); err != nil {
			p.finishProgress(run, PhaseFailed, completed)
			return err
		}
		completed++
	}

	if len(run.results) > 0 {
		if err := p.repo.ApplyUpdateResults(ctx, run.results); err != nil {
			run.logger.Error("Failed to apply update results", "error", err)
			p.notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to update patches: %s", shortCause(err)))
			for _, res := range run.results {
				run.outcomes[res.UID] = outcome{phase: status.SyncPhaseFailed, message: err.Error()}
			}
			run.failures = append(run.failures, fmt.Errorf("failed to apply update results: %w", err))
			run.results = nil
		}
	}

	if len(run.results) > 0 {
		updated := make([]int, len(run.results))
		for i, res := range run.results {
			updated[i] = res.UID
		}
		p.ForgetManual(updated...)
	}

	if req.ShowToast {
		switch {
		case len(run.results) > 0:
			p.notifier.Notify(notify.LevelSuccess, noticeUpdated)
		case len(run.failures) == 0:
			p.notifier.Notify(notify.LevelInfo, noticeNoUpdates)
		}
	}

	p.persistOutcomes(ctx, run)
	p.recordBundleCounts(ctx)

	terminal := PhaseCompleted
	if len(run.failures) > 0 {
		terminal = PhaseFailed
	}
	p.finishProgress(run, terminal, completed)

	run.logger.Info("Update pass finished",
		"updated", len(run.results),
		"failed", len(run.failures),
	)
	return errors.Join(run.failures...)
}

// updateTarget refreshes one bundle. Only a cancelled pass context is returned;
// bundle failures are collected on run.
func (p *Pipeline) updateTarget(ctx context.Context, run *pass, target bundles.Remote, completed int) error {
	uid := target.UID()
	label := progressLabel(target)
	logger := run.logger.With("bundle_uid", uid)
	phase := PhaseChecking

	ctx, span := otel.StartSpan(ctx, p.tracer, "sync.update_bundle",
		trace.WithAttributes(otel.AttrBundleUID.Int(uid), otel.AttrBundleOrigin.String(target.Origin().String())),
	)
	defer func() {
		otel.EndWithOutcome(span, string(run.outcomes[uid].phase))
	}()

	p.publish(run, func(pr *Progress) {
		pr.Phase = PhaseChecking
		pr.Current = label
		pr.CurrentUID = uid
		pr.Completed = completed
		pr.BytesRead, pr.BytesTotal = 0, 0
	})

	onProgress := func(read, total int64) error {
		if p.isCancelled(uid) {
			return errBundleCancelled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		phase = PhaseDownloading
		p.publish(run, func(pr *Progress) {
			pr.Phase = PhaseDownloading
			pr.Current = label
			pr.CurrentUID = uid
			pr.BytesRead, pr.BytesTotal = read, max(total, 0)
		})
		if run.req.OnBundleProgress != nil {
			run.req.OnBundleProgress(uid, read, total)
		}
		return nil
	}

	var (
		result *bundles.DownloadResult
		err    error
	)
	if run.req.Force {
		result, err = target.DownloadLatest(ctx, onProgress)
	} else {
		result, err = target.Update(ctx, onProgress)
	}

	switch {
	case errors.Is(err, errBundleCancelled) || (err != nil && p.isCancelled(uid)):
		logger.Info("Bundle update cancelled")
		run.outcomes[uid] = outcome{phase: status.SyncPhaseCancelled}
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		cause := shortCause(err)
		otel.RecordError(span, err)
		logger.Error("Failed to update bundle", "phase", phase, "error", err)
		p.notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to update %s: %s", label, cause))
		run.failures = append(run.failures, &Error{
			UID:     uid,
			Phase:   phase,
			Message: fmt.Sprintf("failed to update bundle %d: %s", uid, cause),
			Err:     err,
		})
		run.outcomes[uid] = outcome{phase: status.SyncPhaseFailed, message: cause}
		return nil
	case result == nil:
		logger.Debug("Bundle already up to date")
		run.outcomes[uid] = outcome{phase: status.SyncPhaseUpToDate, version: target.InstalledVersion()}
		p.publish(run, func(pr *Progress) {
			pr.Completed = min(completed+1, max(pr.Total, 1))
		})
		return nil
	}

	name := p.downloadedName(target)
	if name != "" {
		label = name
	}
	p.publish(run, func(pr *Progress) {
		pr.Phase = PhaseFinalizing
		pr.Current = label
		pr.CurrentUID = uid
		pr.Completed = min(completed+1, max(pr.Total, 1))
		pr.BytesRead, pr.BytesTotal = 0, 0
	})

	run.results = append(run.results, repository.UpdateResult{UID: uid, Result: result, Name: name})
	run.outcomes[uid] = outcome{phase: status.SyncPhaseComplete, version: result.VersionSignature}
	span.SetAttributes(otel.AttrBundleVer.String(result.VersionSignature))
	p.recordChangelog(logger, target, result)
	logger.Info("Bundle updated", "version", result.VersionSignature)
	return nil
}

// downloadedName reads the name the new artifact declares
func (p *Pipeline) downloadedName(target bundles.Remote) string {
	manifest, err := p.repo.Manifest(target.ArtifactPath())
	if err != nil || manifest == nil {
		return ""
	}
	return strings.TrimSpace(manifest.Name)
}

func (p *Pipeline) recordChangelog(logger *slog.Logger, target bundles.Remote, result *bundles.DownloadResult) {
	if p.history == nil {
		return
	}
	entry := changelog.EntryFromRelease(result.Release)
	if entry.Version == "" {
		entry.Version = strings.TrimSpace(result.VersionSignature)
	}
	if entry.Version == "" && entry.Description == "" {
		return
	}
	if _, err := p.history.Record(target.Dir(), entry); err != nil {
		logger.Warn("Failed to record changelog entry", "error", err)
	}
}

func (p *Pipeline) persistOutcomes(ctx context.Context, run *pass) {
	if p.statuses == nil {
		return
	}
	at := p.now().UTC()
	for uid, o := range run.outcomes {
		st, err := p.statuses.LoadStatus(ctx, uid)
		if err != nil {
			run.logger.Warn("Failed to load bundle status", "bundle_uid", uid, "error", err)
			st = &status.BundleStatus{}
		}
		st.Record(o.phase, o.message, o.version, at)
		if err := p.statuses.SaveStatus(ctx, uid, st); err != nil {
			run.logger.Warn("Failed to save bundle status", "bundle_uid", uid, "error", err)
		}
	}
}

func (p *Pipeline) recordBundleCounts(ctx context.Context) {
	if p.bundles == nil {
		return
	}
	counts := map[bundles.Availability]int64{}
	for _, src := range p.repo.State().Ordered() {
		counts[src.Availability()]++
	}
	for _, a := range []bundles.Availability{bundles.Missing, bundles.Available, bundles.Failed} {
		p.bundles.RecordBundles(ctx, a.String(), counts[a])
	}
}

// publish changes the progress of run when it reports progress. Total always
// follows the active set.
func (p *Pipeline) publish(run *pass, fn func(*Progress)) {
	if !run.req.ReportProgress {
		return
	}
	total := p.activeCount()
	p.updateProgress(func(pr *Progress) {
		if pr.PassID != run.id {
			return
		}
		pr.Total = total
		fn(pr)
		pr.Completed = min(pr.Completed, pr.Total)
	})
}

func (p *Pipeline) finishProgress(run *pass, phase Phase, completed int) {
	if !run.req.ReportProgress {
		return
	}
	p.updateProgress(func(pr *Progress) {
		if pr.PassID != run.id {
			return
		}
		pr.Phase = phase
		pr.Completed = min(completed, pr.Total)
		pr.Current = ""
		pr.CurrentUID = -1
		pr.BytesRead, pr.BytesTotal = 0, 0
	})
	p.dismissLater(run.id)
}
