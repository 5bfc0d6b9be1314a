package api

import (
	"github.com/danielpatrickdp/stimloop/internal/scheduler"
	"github.com/danielpatrickdp/stimloop/internal/sessionlog"
	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

// #region deps
// SnapshotSource is the scheduler view the API reads. Snapshot must be safe
// to call from any goroutine.
type SnapshotSource interface {
	Snapshot() scheduler.Snapshot
}

// SignalSource is the receiver view the API reads and injects into.
type SignalSource interface {
	Inject(payload []byte) error
	Stats() signal.Stats
	Status() signal.Status
}

// LogSource reports session logger counters.
type LogSource interface {
	Stats() sessionlog.Stats
}

// Deps wires the handler. Nil sources are omitted from /status.
type Deps struct {
	SessionID string
	Catalog   *stimulus.Catalog
	Scheduler SnapshotSource
	Signals   SignalSource
	Log       LogSource
	Hub       *Hub
}

// #endregion deps

// #region responses
// TransportStatus is the JSON form of signal.Status.
type TransportStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	SessionID string              `json:"session_id,omitempty"`
	Scheduler *scheduler.Snapshot `json:"scheduler,omitempty"`
	Transport *TransportStatus    `json:"transport,omitempty"`
	Signals   *signal.Stats       `json:"signals,omitempty"`
	Log       *sessionlog.Stats   `json:"log,omitempty"`
	Clients   int                 `json:"event_clients"`
}

// SignalResponse is returned by POST /signal.
type SignalResponse struct {
	Accepted bool   `json:"accepted"`
	Payload  string `json:"payload"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// #endregion responses
