package status

import "time"

// SyncPhase represents the outcome of the last update attempt of a bundle
type SyncPhase string

const (
	// SyncPhaseSyncing means an update is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means a new artifact was downloaded
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseUpToDate means the installed artifact already was the latest
	SyncPhaseUpToDate SyncPhase = "UpToDate"

	// SyncPhaseFailed means the update failed
	SyncPhaseFailed SyncPhase = "Failed"

	// SyncPhaseCancelled means the update of this bundle was cancelled
	SyncPhaseCancelled SyncPhase = "Cancelled"
)

// BundleStatus represents the sync state of one bundle
type BundleStatus struct {
	// Phase represents the outcome of the last attempt
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the outcome
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last update attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of failed attempts since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful attempt
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// Version is the version signature installed by the last successful attempt
	Version string `json:"version,omitempty"`
}

// Record folds the outcome of an attempt made at into the status
func (s *BundleStatus) Record(phase SyncPhase, message, version string, at time.Time) {
	at = at.UTC()
	s.Phase = phase
	s.Message = message
	s.LastAttempt = &at
	switch phase {
	case SyncPhaseComplete, SyncPhaseUpToDate:
		s.AttemptCount = 0
		s.LastSyncTime = &at
		if version != "" {
			s.Version = version
		}
	case SyncPhaseFailed:
		s.AttemptCount++
	}
}
