// Package push keeps a GraphQL subscription to the bundle refresh feed open and
// turns completed refresh jobs into update checks, so updates arrive sooner
// than the polling intervals allow.
package push

import (
	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
)

// DesiredState is what the push machinery should be doing for the current
// preferences and foreground flag
type DesiredState struct {
	ShouldRunSocket           bool `json:"shouldRunSocket"`
	RequiresForegroundService bool `json:"requiresForegroundService"`
	ListenForBundle           bool `json:"listenForBundle"`
	ListenForManager          bool `json:"listenForManager"`
}

// None keeps the socket closed and the foreground service stopped
var None = DesiredState{}

// Derive computes the desired state. Nothing runs when both checks are
// disabled or the delivery mode is polling only.
func Derive(managerInterval, bundleInterval prefs.Interval, mode prefs.DeliveryMode, foreground bool) DesiredState {
	listenBundle := !bundleInterval.IsNever()
	listenManager := !managerInterval.IsNever()
	if !listenBundle && !listenManager {
		return None
	}

	switch mode {
	case prefs.DeliveryAuto:
		return DesiredState{
			ShouldRunSocket:  foreground,
			ListenForBundle:  listenBundle,
			ListenForManager: listenManager,
		}
	case prefs.DeliveryWebsocketPreferred:
		return DesiredState{
			ShouldRunSocket:           true,
			RequiresForegroundService: true,
			ListenForBundle:           listenBundle,
			ListenForManager:          listenManager,
		}
	default:
		return None
	}
}
