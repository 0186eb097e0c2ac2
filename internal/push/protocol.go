package push

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	subscriptionID = "bundle-refresh-jobs"

	refreshJobsQuery = `subscription BundleRefreshJobs {
  refresh_jobs(order_by: { started_at: desc }, limit: 1) {
    started_at
    status
  }
}`
)

// subprotocols are offered in this order on every dial
var subprotocols = []string{"graphql-transport-ws", "graphql-ws"}

// Protocol is the GraphQL-over-websocket dialect negotiated with the server
type Protocol int

const (
	// ProtocolLegacy is the subscriptions-transport-ws dialect (graphql-ws)
	ProtocolLegacy Protocol = iota
	// ProtocolTransport is the graphql-transport-ws dialect
	ProtocolTransport
)

func (p Protocol) String() string {
	if p == ProtocolTransport {
		return "graphql-transport-ws"
	}
	return "graphql-ws"
}

// protocolFromHeader picks the dialect from the negotiated subprotocol
func protocolFromHeader(header string) Protocol {
	if strings.Contains(strings.ToLower(strings.TrimSpace(header)), "transport") {
		return ProtocolTransport
	}
	return ProtocolLegacy
}

type frame struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func connectionInit() []byte {
	data, _ := json.Marshal(frame{Type: "connection_init", Payload: map[string]any{}})
	return data
}

func subscribe(p Protocol) []byte {
	kind := "start"
	if p == ProtocolTransport {
		kind = "subscribe"
	}
	data, _ := json.Marshal(frame{
		ID:      subscriptionID,
		Type:    kind,
		Payload: map[string]string{"query": refreshJobsQuery},
	})
	return data
}

func pong() []byte {
	return []byte(`{"type":"pong"}`)
}

// refreshJob is the newest refresh job carried by a data frame
type refreshJob struct {
	StartedAt string
	Status    string
}

// parseRefreshJob returns false when the frame carries no job with a start time
func parseRefreshJob(raw []byte) (refreshJob, bool) {
	job := gjson.GetBytes(raw, "payload.data.refresh_jobs.0")
	if !job.IsObject() {
		return refreshJob{}, false
	}
	startedAt := job.Get("started_at")
	if !startedAt.Exists() || startedAt.Type == gjson.Null {
		return refreshJob{}, false
	}
	return refreshJob{StartedAt: startedAt.String(), Status: job.Get("status").String()}, true
}

// shouldTrigger accepts a blank status or one reporting completion
func shouldTrigger(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return true
	}
	for _, word := range []string{"success", "complete", "done", "finish"} {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
