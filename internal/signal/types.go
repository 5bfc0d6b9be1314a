package signal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// #region signal
// Signal is one decoded message from the classification publisher.
type Signal struct {
	Label      string    // class label as sent, e.g. "1" or "stim1"
	Values     []float64 // numeric fields, if any
	Raw        string
	ReceivedAt time.Time
}

// Value returns the i-th numeric field.
func (s Signal) Value(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// String returns the trigger value used in logs.
func (s Signal) String() string {
	return s.Label
}

// #endregion signal

// #region transport
// Transport is the subscribe side of the message channel. Run blocks until
// ctx is cancelled, calling deliver for each payload and status whenever the
// connection changes (nil meaning connected). Reconnecting is up to the
// transport.
type Transport interface {
	Run(ctx context.Context, deliver func(payload []byte), status func(err error)) error
	Close() error
}

// #endregion transport

// #region errors
// ErrTransportDisconnected marks a transient connection loss. It is never fatal.
var ErrTransportDisconnected = errors.New("transport disconnected")

// DecodeError reports a malformed payload.
type DecodeError struct {
	Payload string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode signal %q: %s", e.Payload, e.Reason)
}

// #endregion errors

// #region status
// Status is the receiver's view of the transport connection.
type Status struct {
	Connected bool
	Err       error // wraps ErrTransportDisconnected when not connected
}

// Stats counts what happened to incoming messages.
type Stats struct {
	Received     uint64 `json:"received"`
	Dropped      uint64 `json:"dropped"` // overwritten before being polled
	DecodeErrors uint64 `json:"decode_errors"`
	Disconnects  uint64 `json:"disconnects"`
}

// #endregion status
