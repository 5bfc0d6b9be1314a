package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/danielpatrickdp/stimloop/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", envOr("STIMLOOP_DB", ""), "path to stimloop.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	session := flag.String("session", "", "show single session detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/stimloop.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *session != "" {
		err = runDetailMode(st, *session, *jsonOut)
	} else {
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID    string `json:"session_id"`
	StartedAt    string `json:"started_at"`
	Duration     string `json:"duration"`
	Switches     int    `json:"switches"`
	Frames       uint64 `json:"frames"`
	Received     uint64 `json:"received"`
	Dropped      uint64 `json:"dropped"`
	DecodeErrors uint64 `json:"decode_errors"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	sessions, err := st.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	// store returns newest first, reverse for chronological
	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		switches, err := st.ListSwitches(s.ID)
		if err != nil {
			return err
		}
		rows[len(sessions)-1-i] = listRow{
			SessionID:    s.ID,
			StartedAt:    s.StartedAt.Format(time.RFC3339),
			Duration:     sessionDuration(s),
			Switches:     countSwitches(switches),
			Frames:       s.Stats.Frames,
			Received:     s.Stats.Received,
			Dropped:      s.Stats.Dropped,
			DecodeErrors: s.Stats.DecodeErrors,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-20s  %10s  %8s  %8s  %8s  %7s  %s\n",
		"Session", "Started", "Duration", "Switches", "Frames", "Received", "Dropped", "Bad")
	fmt.Printf("%-10s+-%-20s+-%10s+-%8s+-%8s+-%8s+-%7s+-%s\n",
		"----------", "--------------------", "----------", "--------", "--------", "--------", "-------", "---")
	for _, r := range rows {
		fmt.Printf("%-10s  %-20s  %10s  %8d  %8d  %8d  %7d  %d\n",
			shortID(r.SessionID), r.StartedAt, r.Duration, r.Switches, r.Frames, r.Received, r.Dropped, r.DecodeErrors)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	SessionID string             `json:"session_id"`
	StartedAt string             `json:"started_at"`
	EndedAt   string             `json:"ended_at,omitempty"`
	Stats     store.SessionStats `json:"stats"`
	Switches  []switchOut        `json:"switches"`
	TimeIn    map[string]float64 `json:"time_in_seconds"`
	Config    json.RawMessage    `json:"config,omitempty"`
}

type switchOut struct {
	Seq     uint64 `json:"seq"`
	Time    string `json:"time"`
	From    string `json:"from"`
	To      string `json:"to"`
	Trigger string `json:"trigger"`
	Reason  string `json:"reason"`
}

func runDetailMode(st *store.Store, sessionID string, jsonOut bool) error {
	s, err := st.GetSession(sessionID)
	if err != nil {
		return err
	}
	rows, err := st.ListSwitches(s.ID)
	if err != nil {
		return err
	}

	out := detailOutput{
		SessionID: s.ID,
		StartedAt: s.StartedAt.Format(time.RFC3339Nano),
		Stats:     s.Stats,
		Switches:  make([]switchOut, len(rows)),
		TimeIn:    timeIn(s, rows),
	}
	if !s.EndedAt.IsZero() {
		out.EndedAt = s.EndedAt.Format(time.RFC3339Nano)
	}
	if json.Valid([]byte(s.ConfigJSON)) {
		out.Config = json.RawMessage(s.ConfigJSON)
	}
	for i, r := range rows {
		out.Switches[i] = switchOut{
			Seq:     r.Seq,
			Time:    r.Time.Format(time.RFC3339Nano),
			From:    r.From,
			To:      r.To,
			Trigger: r.Trigger,
			Reason:  r.Reason,
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:   %s\n", out.SessionID)
	fmt.Printf("Started:   %s\n", out.StartedAt)
	fmt.Printf("Ended:     %s\n", orDash(out.EndedAt))
	fmt.Printf("Frames:    %d\n", s.Stats.Frames)
	fmt.Printf("Signals:   %d received, %d dropped, %d malformed, %d disconnects\n",
		s.Stats.Received, s.Stats.Dropped, s.Stats.DecodeErrors, s.Stats.Disconnects)
	fmt.Printf("Log drops: %d\n", s.Stats.LogDropped)

	fmt.Printf("\n%-5s  %-30s  %-12s  %-12s  %-10s  %s\n", "Seq", "Time", "From", "To", "Trigger", "Reason")
	for _, sw := range out.Switches {
		fmt.Printf("%-5d  %-30s  %-12s  %-12s  %-10s  %s\n",
			sw.Seq, sw.Time, orDash(sw.From), sw.To, orDash(sw.Trigger), sw.Reason)
	}

	fmt.Printf("\nTime per stimulus:\n")
	ids := make([]string, 0, len(out.TimeIn))
	for id := range out.TimeIn {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %-12s %8.2fs\n", id, out.TimeIn[id])
	}
	return nil
}

// #endregion detail-mode

// #region metrics

// timeIn sums how long each stimulus was active. The last stimulus runs
// until the session end, or is left open when the session never ended.
func timeIn(s store.Session, rows []store.SwitchRow) map[string]float64 {
	out := make(map[string]float64)
	for i, r := range rows {
		var end time.Time
		switch {
		case i+1 < len(rows):
			end = rows[i+1].Time
		case !s.EndedAt.IsZero():
			end = s.EndedAt
		default:
			continue
		}
		if end.After(r.Time) {
			out[r.To] += end.Sub(r.Time).Seconds()
		} else if _, ok := out[r.To]; !ok {
			out[r.To] = 0
		}
	}
	return out
}

// countSwitches excludes the initial event, which has no From.
func countSwitches(rows []store.SwitchRow) int {
	n := 0
	for _, r := range rows {
		if r.From != "" {
			n++
		}
	}
	return n
}

func sessionDuration(s store.Session) string {
	if s.EndedAt.IsZero() {
		return "running"
	}
	return s.EndedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
}

// #endregion metrics

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion output
