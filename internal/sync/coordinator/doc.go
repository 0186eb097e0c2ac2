// Package coordinator schedules the periodic update checks.
//
// Two loops run while the coordinator is started:
//
//   - the bundle loop asks the update pipeline for a pass over the bundles with
//     auto-update turned on and refreshes the manual update entries, every
//     bundle check interval
//   - the manager loop looks for a newer release of the manager itself, every
//     manager check interval
//
// Intervals come from the user preferences and are re-read whenever the
// preferences change. The interval "never" parks a loop until it is changed.
// Every wait is jittered by up to ±10%.
//
// # Usage Example
//
//	coord := coordinator.New(pipeline, prefsStore,
//	    coordinator.WithManagerChecker(checker),
//	    coordinator.WithNotifier(ring),
//	)
//	go func() { _ = coord.Start(ctx) }()
//	defer coord.Stop()
package coordinator
