// Package sync runs the remote update pipeline for patch bundles.
//
// # Passes
//
// A pass refreshes the Remote bundles selected by a Request, one bundle at a
// time and in sort order. At most one pass runs at any moment. Requests that
// arrive while a pass is running are merged into a single pending Request
// (flags are ORed, predicates are unioned) which becomes the next pass as soon
// as the current one finishes.
//
// Each pass:
//
//   - skips itself when the network is unavailable or metered and neither the
//     request nor the user preferences allow that
//   - marks its targets active so that Cancel can stop one bundle without
//     stopping the pass
//   - calls Update, or DownloadLatest when the request is forced, publishing
//     Checking, Downloading and Finalizing progress
//   - records a changelog entry and the bundle status for every outcome
//   - applies every downloaded result to the repository in one action
//
// # Manual updates
//
// Bundles with auto-update turned off are never downloaded by a regular pass.
// CheckManualUpdates compares their latest release with the installed
// signature and keeps a {LatestVersion, PageURL} entry for each bundle that is
// behind.
//
// # Coordinator Package
//
// The sync/coordinator subpackage schedules the periodic bundle and manager
// update checks.
package sync
