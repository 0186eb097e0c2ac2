package sync

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// progressLabel names a bundle for progress reporting: the display name, else
// the name its artifact declares, else a guess from the endpoint
func progressLabel(r bundles.Remote) string {
	if dn := strings.TrimSpace(r.DisplayName()); dn != "" {
		return dn
	}
	if m := r.Manifest(); m != nil {
		if name := strings.TrimSpace(m.Name); name != "" {
			return name
		}
	}
	if guess := labelFromEndpoint(r.Endpoint()); guess != "" {
		return guess
	}
	return r.Name()
}

// labelFromEndpoint guesses a readable name from a bundle URL
func labelFromEndpoint(endpoint string) string {
	if owner, repo, number, err := bundles.ParsePullRequestURL(endpoint); err == nil {
		return fmt.Sprintf("%s/%s #%d", owner, repo, number)
	}
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Host == "" {
		return ""
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i, s := range segments {
		if strings.EqualFold(s, "bundle") && i+2 < len(segments) {
			return segments[i+1] + "/" + segments[i+2]
		}
	}
	if len(segments) >= 2 && strings.EqualFold(u.Hostname(), "github.com") {
		return segments[0] + "/" + segments[1]
	}
	return u.Hostname()
}

// shortCause returns the message of the innermost error
func shortCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
