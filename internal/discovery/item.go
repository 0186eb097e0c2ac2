package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// Channel selects which releases an imported bundle follows
type Channel string

const (
	// ChannelRelease follows stable releases only
	ChannelRelease Channel = "release"
	// ChannelPrerelease follows prereleases only
	ChannelPrerelease Channel = "prerelease"
	// ChannelLatest follows the newest release of either channel
	ChannelLatest Channel = "latest"
)

// ParseChannel maps a blank value to ChannelLatest
func ParseChannel(raw string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(raw))); c {
	case "":
		return ChannelLatest, nil
	case ChannelRelease, ChannelPrerelease, ChannelLatest:
		return c, nil
	default:
		return "", fmt.Errorf("unknown channel %q", raw)
	}
}

// prerelease returns the channel pin stored in the endpoint; nil tracks both channels
func (c Channel) prerelease() *bool {
	switch c {
	case ChannelRelease:
		v := false
		return &v
	case ChannelPrerelease:
		v := true
		return &v
	default:
		return nil
	}
}

// Item is one discovered bundle waiting to be imported
type Item struct {
	Snapshot   bundles.ExternalSnapshot `json:"snapshot"`
	Channel    Channel                  `json:"channel,omitempty"`
	AutoUpdate bool                     `json:"autoUpdate"`
}

// Key identifies an item for deduplication. The first available of bundle id,
// repository, source URL and download URL is used.
func (it Item) Key() string {
	channel := it.Channel
	if channel == "" {
		channel = ChannelLatest
	}
	s := it.Snapshot
	owner, repo := strings.TrimSpace(s.OwnerName), strings.TrimSpace(s.RepoName)
	switch {
	case s.BundleID > 0:
		return "bundle:" + strconv.Itoa(s.BundleID) + ":" + string(channel)
	case owner != "" && repo != "":
		return strings.ToLower(fmt.Sprintf("repo:%s/%s:%s", owner, repo, channel))
	case strings.TrimSpace(s.SourceURL) != "":
		return "source:" + strings.TrimSpace(s.SourceURL)
	default:
		return "download:" + strings.TrimSpace(s.DownloadURL)
	}
}

// Label is the name shown while the item is imported
func (it Item) Label() string {
	s := it.Snapshot
	switch {
	case s.OwnerName != "" && s.RepoName != "":
		return s.OwnerName + "/" + s.RepoName
	case s.SourceURL != "":
		return s.SourceURL
	case s.BundleID > 0:
		return "bundle #" + strconv.Itoa(s.BundleID)
	default:
		return s.DownloadURL
	}
}
