package httpclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// ParseRelease reads a release document. Both snake_case and camelCase keys are
// accepted, and documents wrapped in a "data" object are unwrapped.
func ParseRelease(body []byte) (bundles.ReleaseInfo, error) {
	if !gjson.ValidBytes(body) {
		return bundles.ReleaseInfo{}, fmt.Errorf("release document is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if data := doc.Get("data"); data.IsObject() {
		doc = data
	}

	info := bundles.ReleaseInfo{
		Version:      firstString(doc, "version", "tag_name", "tagName"),
		DownloadURL:  firstString(doc, "download_url", "downloadUrl"),
		SignatureURL: firstString(doc, "signature_download_url", "signatureDownloadUrl"),
		PageURL:      firstString(doc, "page_url", "pageUrl", "html_url"),
		Description:  firstString(doc, "description", "body"),
	}
	if raw := firstString(doc, "created_at", "createdAt", "published_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			info.CreatedAt = t
		}
	}
	if strings.TrimSpace(info.Version) == "" {
		return bundles.ReleaseInfo{}, fmt.Errorf("release document has no version")
	}
	return info, nil
}

func firstString(doc gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(doc.Get(key).String()); v != "" {
			return v
		}
	}
	return ""
}
