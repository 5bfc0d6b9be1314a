package sessionlog

import "time"

// #region record
// Record is one switch as written to a sink.
type Record struct {
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"time"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Trigger   string    `json:"trigger"`
	Reason    string    `json:"reason"`
	Params    string    `json:"params,omitempty"` // JSON of the target's motion params
}

// #endregion record

// #region sink
// Sink receives records in order from the logger goroutine.
type Sink interface {
	Write(rec Record) error
	Close() error
}

// #endregion sink

// #region stats
// Stats counts logger activity.
type Stats struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"` // buffer full
	Failed  uint64 `json:"failed"`  // sink returned an error
}

// #endregion stats
