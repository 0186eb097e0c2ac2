package prefs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Preference keys
const (
	KeyAllowMeteredUpdates       = "allow_metered_updates"
	KeyUsePatchesPrereleases     = "use_patches_prereleases"
	KeyGitHubPAT                 = "github_pat"
	KeyBundleCheckInterval       = "bundle_check_interval"
	KeyManagerCheckInterval      = "manager_check_interval"
	KeyUpdateDeliveryMode        = "update_delivery_mode"
	KeyManagerPrereleases        = "use_manager_prereleases"
	KeyOfficialSortOrder         = "official.sort_order"
	KeyOfficialRemoved           = "official.removed"
	KeyOfficialCustomDisplayName = "official.custom_display_name"
	KeyCacheAppVersion           = "cache.app_version"
	KeyLastRefreshCursor         = "bundle_update_websocket.last_completed_refresh_started_at"
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindInterval
	kindDeliveryMode
)

type keySpec struct {
	kind kind
	def  string
	// secret values are masked when listed
	secret bool
}

var known = map[string]keySpec{
	KeyAllowMeteredUpdates:       {kind: kindBool, def: "false"},
	KeyUsePatchesPrereleases:     {kind: kindBool, def: "false"},
	KeyGitHubPAT:                 {kind: kindString, secret: true},
	KeyBundleCheckInterval:       {kind: kindInterval, def: "1h"},
	KeyManagerCheckInterval:      {kind: kindInterval, def: "1d"},
	KeyUpdateDeliveryMode:        {kind: kindDeliveryMode, def: string(DeliveryAuto)},
	KeyManagerPrereleases:        {kind: kindBool, def: "false"},
	KeyOfficialSortOrder:         {kind: kindInt},
	KeyOfficialRemoved:           {kind: kindBool, def: "false"},
	KeyOfficialCustomDisplayName: {kind: kindString},
	KeyCacheAppVersion:           {kind: kindString},
	KeyLastRefreshCursor:         {kind: kindString},
}

// Keys returns every known preference key
func Keys() []string {
	keys := make([]string, 0, len(known))
	for k := range known {
		keys = append(keys, k)
	}
	return keys
}

// IsSecret reports whether a key holds a credential
func IsSecret(key string) bool {
	return known[key].secret
}

func validate(key, value string) error {
	spec, ok := known[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	switch spec.kind {
	case kindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
	case kindInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
	case kindInterval:
		if _, err := ParseInterval(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	case kindDeliveryMode:
		if _, err := ParseDeliveryMode(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Interval is a check interval; Never disables the check
type Interval struct {
	raw      string
	duration time.Duration
}

// Never is the disabled interval
var Never = Interval{raw: "never"}

// ParseInterval accepts "never", Go durations and whole days such as "1d"
func ParseInterval(raw string) (Interval, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "never" || s == "" {
		return Never, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return Interval{}, fmt.Errorf("invalid interval %q", raw)
		}
		return Interval{raw: s, duration: time.Duration(n) * 24 * time.Hour}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return Interval{}, fmt.Errorf("invalid interval %q", raw)
	}
	return Interval{raw: s, duration: d}, nil
}

// IsNever reports whether the check is disabled
func (i Interval) IsNever() bool {
	return i.duration <= 0
}

// Duration is zero for Never
func (i Interval) Duration() time.Duration {
	return i.duration
}

func (i Interval) String() string {
	return i.raw
}

// DeliveryMode selects how update notifications reach the service
type DeliveryMode string

const (
	// DeliveryPollingOnly never opens the push connection
	DeliveryPollingOnly DeliveryMode = "polling_only"
	// DeliveryAuto opens the push connection while in the foreground
	DeliveryAuto DeliveryMode = "auto"
	// DeliveryWebsocketPreferred keeps the push connection open with a foreground service
	DeliveryWebsocketPreferred DeliveryMode = "websocket_preferred"
)

// ParseDeliveryMode validates a delivery mode
func ParseDeliveryMode(raw string) (DeliveryMode, error) {
	switch m := DeliveryMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case DeliveryPollingOnly, DeliveryAuto, DeliveryWebsocketPreferred:
		return m, nil
	default:
		return "", fmt.Errorf("unknown delivery mode %q", raw)
	}
}
