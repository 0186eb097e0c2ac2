package bundles

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// OriginKind tags where a bundle comes from
type OriginKind string

const (
	// OriginLocal is an artifact imported from a local file
	OriginLocal OriginKind = "local"
	// OriginRemote is a JSON release endpoint, or an external discovery endpoint
	OriginRemote OriginKind = "remote"
	// OriginAPI is the official patches API
	OriginAPI OriginKind = "api"
	// OriginPullRequest is a GitHub pull request whose CI artifact carries the bundle
	OriginPullRequest OriginKind = "github_pr"
)

// APISentinel is the endpoint value stored for the official API origin
const APISentinel = "api"

// Origin is the tagged origin descriptor stored with a bundle
type Origin struct {
	Kind OriginKind `json:"kind"`
	URL  string     `json:"url,omitempty"`
}

// LocalOrigin returns the local origin
func LocalOrigin() Origin {
	return Origin{Kind: OriginLocal}
}

// APIOrigin returns the official API origin
func APIOrigin() Origin {
	return Origin{Kind: OriginAPI, URL: APISentinel}
}

// OriginFromURL classifies a user supplied URL
func OriginFromURL(raw string) Origin {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, APISentinel) {
		return APIOrigin()
	}
	if _, _, _, err := ParsePullRequestURL(trimmed); err == nil {
		return Origin{Kind: OriginPullRequest, URL: trimmed}
	}
	return Origin{Kind: OriginRemote, URL: trimmed}
}

// IsRemote reports whether bundles of this origin are refreshed from the network
func (o Origin) IsRemote() bool {
	return o.Kind != OriginLocal
}

// String encodes the origin for storage
func (o Origin) String() string {
	switch o.Kind {
	case OriginLocal:
		return string(OriginLocal)
	case OriginAPI:
		return string(OriginAPI)
	default:
		return string(o.Kind) + ":" + o.URL
	}
}

// ParseOrigin decodes a value produced by Origin.String
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case string(OriginLocal):
		return LocalOrigin(), nil
	case string(OriginAPI):
		return APIOrigin(), nil
	}

	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return Origin{}, fmt.Errorf("invalid origin %q", s)
	}
	switch OriginKind(kind) {
	case OriginRemote, OriginPullRequest:
		return Origin{Kind: OriginKind(kind), URL: rest}, nil
	default:
		return Origin{}, fmt.Errorf("unknown origin kind %q", kind)
	}
}

// UnmarshalJSON accepts both the object form and the encoded string form
func (o *Origin) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		parsed, err := ParseOrigin(encoded)
		if err != nil {
			return err
		}
		*o = parsed
		return nil
	}

	type plain Origin
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Origin(p)
	return nil
}

// ParsePullRequestURL extracts owner, repository and number from
// https://github.com/<owner>/<repo>/pull/<number>
func ParsePullRequestURL(raw string) (owner, repo string, number int, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid pull request URL: %w", err)
	}
	if !strings.EqualFold(u.Host, "github.com") {
		return "", "", 0, fmt.Errorf("not a GitHub URL: %s", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return "", "", 0, fmt.Errorf("not a pull request URL: %s", raw)
	}
	number, err = strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("invalid pull request number in %s", raw)
	}
	return parts[0], parts[1], number, nil
}
