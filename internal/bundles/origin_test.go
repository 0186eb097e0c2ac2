package bundles_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

func TestOriginFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected bundles.Origin
	}{
		{
			name:     "api sentinel",
			raw:      " API ",
			expected: bundles.APIOrigin(),
		},
		{
			name:     "pull request url",
			raw:      "https://github.com/acme/patches/pull/42",
			expected: bundles.Origin{Kind: bundles.OriginPullRequest, URL: "https://github.com/acme/patches/pull/42"},
		},
		{
			name:     "json endpoint",
			raw:      "https://example.com/patches.json",
			expected: bundles.Origin{Kind: bundles.OriginRemote, URL: "https://example.com/patches.json"},
		},
		{
			name:     "github url that is not a pull request",
			raw:      "https://github.com/acme/patches/releases",
			expected: bundles.Origin{Kind: bundles.OriginRemote, URL: "https://github.com/acme/patches/releases"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, bundles.OriginFromURL(tt.raw))
		})
	}
}

func TestParseOrigin(t *testing.T) {
	t.Parallel()

	origin, err := bundles.ParseOrigin("remote:https://example.com/a:b")
	require.NoError(t, err)
	assert.Equal(t, bundles.OriginRemote, origin.Kind)
	assert.Equal(t, "https://example.com/a:b", origin.URL)

	origin, err = bundles.ParseOrigin("local")
	require.NoError(t, err)
	assert.False(t, origin.IsRemote())

	_, err = bundles.ParseOrigin("ftp:somewhere")
	require.Error(t, err)

	_, err = bundles.ParseOrigin("remote:")
	require.Error(t, err)
}

func TestOrigin_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var fromString bundles.Origin
	require.NoError(t, json.Unmarshal([]byte(`"api"`), &fromString))
	assert.Equal(t, bundles.APIOrigin(), fromString)

	var fromObject bundles.Origin
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"github_pr","url":"https://github.com/a/b/pull/1"}`), &fromObject))
	assert.Equal(t, bundles.OriginPullRequest, fromObject.Kind)

	var invalid bundles.Origin
	require.Error(t, json.Unmarshal([]byte(`"nope:"`), &invalid))
}

func TestParsePullRequestURL(t *testing.T) {
	t.Parallel()

	owner, repo, number, err := bundles.ParsePullRequestURL("https://github.com/ReVanced/revanced-patches/pull/1234/files")
	require.NoError(t, err)
	assert.Equal(t, "ReVanced", owner)
	assert.Equal(t, "revanced-patches", repo)
	assert.Equal(t, 1234, number)

	for _, raw := range []string{
		"https://gitlab.com/a/b/pull/1",
		"https://github.com/a/b/issues/1",
		"https://github.com/a/b/pull/zero",
		"https://github.com/a/b/pull/0",
	} {
		_, _, _, err := bundles.ParsePullRequestURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestNormalizeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "", expected: ""},
		{raw: "   ", expected: ""},
		{raw: "v1.2.3", expected: "1.2.3"},
		{raw: " V5.0.0 ", expected: "5.0.0"},
		{raw: "1.2.3+build5", expected: "1.2.3"},
		{raw: "v2.0.0-dev.1", expected: "2.0.0-dev.1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, bundles.NormalizeVersion(tt.raw))
		})
	}

	assert.True(t, bundles.SameVersion("v1.2.3+build5", "1.2.3"))
	assert.False(t, bundles.SameVersion("", ""))
	assert.False(t, bundles.SameVersion("1.2.3", "1.2.4"))
}
