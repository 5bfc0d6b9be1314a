package store

import "time"

// #region session
// Session is one experiment run.
type Session struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time // zero while running
	ConfigJSON string
	Stats      SessionStats
}

// SessionStats are the message and log counters recorded at session end.
type SessionStats struct {
	Received     uint64 `json:"received"`
	Dropped      uint64 `json:"dropped"`
	DecodeErrors uint64 `json:"decode_errors"`
	Disconnects  uint64 `json:"disconnects"`
	LogDropped   uint64 `json:"log_dropped"`
	Frames       uint64 `json:"frames"`
}

// #endregion session

// #region switch-row
// SwitchRow is one logged stimulus switch.
type SwitchRow struct {
	SessionID  string
	Seq        uint64
	Time       time.Time
	From       string
	To         string
	Trigger    string
	Reason     string
	ParamsJSON string
}

// #endregion switch-row
