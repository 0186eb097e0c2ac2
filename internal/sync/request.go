package sync

import (
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// Request describes one update pass
type Request struct {
	// Force downloads the latest release even when it is installed
	Force bool
	// ShowToast publishes pass-level notices
	ShowToast bool
	// AllowUnsafeNetwork runs the pass on metered or unprobed networks
	AllowUnsafeNetwork bool
	// ReportProgress publishes the pass through Progress
	ReportProgress bool
	// OnBundleProgress receives the download progress of each bundle
	OnBundleProgress func(uid int, read, total int64)
	// Predicate selects the bundles to update; nil selects every Remote bundle
	Predicate func(bundles.Remote) bool

	waiters []chan error
}

// ForUIDs returns a predicate selecting the given bundles
func ForUIDs(uids ...int) func(bundles.Remote) bool {
	set := make(map[int]struct{}, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	return func(r bundles.Remote) bool {
		_, ok := set[r.UID()]
		return ok
	}
}

func (r Request) selects(remote bundles.Remote) bool {
	return r.Predicate == nil || r.Predicate(remote)
}

// merge combines two requests into one pass: flags are ORed, predicates are
// unioned and progress callbacks are chained
func (r Request) merge(o Request) Request {
	merged := Request{
		Force:              r.Force || o.Force,
		ShowToast:          r.ShowToast || o.ShowToast,
		AllowUnsafeNetwork: r.AllowUnsafeNetwork || o.AllowUnsafeNetwork,
		ReportProgress:     r.ReportProgress || o.ReportProgress,
		waiters:            append(append([]chan error(nil), r.waiters...), o.waiters...),
	}

	if r.Predicate != nil && o.Predicate != nil {
		a, b := r.Predicate, o.Predicate
		merged.Predicate = func(remote bundles.Remote) bool { return a(remote) || b(remote) }
	}
	// a nil predicate already selects everything

	switch {
	case r.OnBundleProgress == nil:
		merged.OnBundleProgress = o.OnBundleProgress
	case o.OnBundleProgress == nil:
		merged.OnBundleProgress = r.OnBundleProgress
	default:
		a, b := r.OnBundleProgress, o.OnBundleProgress
		merged.OnBundleProgress = func(uid int, read, total int64) {
			a(uid, read, total)
			b(uid, read, total)
		}
	}
	return merged
}

// finish delivers the outcome of the pass to everyone waiting on it
func (r Request) finish(err error) {
	for _, w := range r.waiters {
		w <- err
	}
}
