package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestShouldTrigger(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":            true,
		"  ":          true,
		"SUCCESS":     true,
		"completed":   true,
		"done":        true,
		"finished_ok": true,
		"running":     false,
		"failed":      false,
		"queued":      false,
	}
	for status, want := range tests {
		assert.Equal(t, want, shouldTrigger(status), "status %q", status)
	}
}

func TestProtocolFromHeader(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProtocolTransport, protocolFromHeader("graphql-transport-ws"))
	assert.Equal(t, ProtocolTransport, protocolFromHeader(" Graphql-Transport-WS "))
	assert.Equal(t, ProtocolLegacy, protocolFromHeader("graphql-ws"))
	assert.Equal(t, ProtocolLegacy, protocolFromHeader(""))
}

func TestSubscribeFrames(t *testing.T) {
	t.Parallel()

	legacy := subscribe(ProtocolLegacy)
	assert.Equal(t, "start", gjson.GetBytes(legacy, "type").String())
	assert.Equal(t, subscriptionID, gjson.GetBytes(legacy, "id").String())
	assert.Equal(t, refreshJobsQuery, gjson.GetBytes(legacy, "payload.query").String())

	transport := subscribe(ProtocolTransport)
	assert.Equal(t, "subscribe", gjson.GetBytes(transport, "type").String())

	assert.JSONEq(t, `{"type":"connection_init","payload":{}}`, string(connectionInit()))
}

func TestParseRefreshJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want refreshJob
		ok   bool
	}{
		{
			name: "job with status",
			raw:  `{"type":"next","payload":{"data":{"refresh_jobs":[{"started_at":"2026-03-01T10:00:00Z","status":"success"}]}}}`,
			want: refreshJob{StartedAt: "2026-03-01T10:00:00Z", Status: "success"},
			ok:   true,
		},
		{
			name: "job without status",
			raw:  `{"type":"data","payload":{"data":{"refresh_jobs":[{"started_at":"2026-03-01T10:00:00Z"}]}}}`,
			want: refreshJob{StartedAt: "2026-03-01T10:00:00Z"},
			ok:   true,
		},
		{
			name: "no jobs",
			raw:  `{"type":"next","payload":{"data":{"refresh_jobs":[]}}}`,
		},
		{
			name: "null start time",
			raw:  `{"type":"next","payload":{"data":{"refresh_jobs":[{"started_at":null,"status":"done"}]}}}`,
		},
		{
			name: "not json",
			raw:  `garbage`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseRefreshJob([]byte(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
