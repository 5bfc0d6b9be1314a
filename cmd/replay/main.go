package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/stimloop/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print frames spent per stimulus")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}
	os.Exit(run(*fixturePath, *verbose))
}

// #endregion main

// #region run

func run(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	res, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	code := printComparison(res.Switches, f.Expected)

	s := replay.Summarize(res)
	fmt.Printf("Signals: %d received, %d dropped, %d malformed\n", s.Received, s.Dropped, s.DecodeErrors)
	if f.Stats != nil {
		if s.Received != f.Stats.Received || s.Dropped != f.Stats.Dropped || s.DecodeErrors != f.Stats.DecodeErrors {
			fmt.Printf("Signal stats DIFF: want %d received, %d dropped, %d malformed\n",
				f.Stats.Received, f.Stats.Dropped, f.Stats.DecodeErrors)
			code = 1
		}
	}

	if verbose {
		fmt.Printf("\nFrames per stimulus (%d total):\n", res.Frames)
		for _, id := range res.Stimuli() {
			fmt.Printf("  %-12s %6d\n", id, res.TimeIn[id])
		}
	}
	return code
}

// #endregion run

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(got []replay.Switch, want []replay.FixtureSwitch) int {
	fmt.Printf("%-6s| %-28s| %-28s| %s\n", "Frame", "Expected", "Replayed", "Match")
	fmt.Printf("%-6s+%-29s+%-29s+%s\n",
		"------", "-----------------------------", "-----------------------------", "------")

	n := len(got)
	if len(want) > n {
		n = len(want)
	}
	matches := 0
	for i := 0; i < n; i++ {
		exp, rep, frame := "-", "-", -1
		if i < len(want) {
			w := want[i]
			exp = describe(w.From, w.To, w.Reason)
			frame = w.Frame
		}
		if i < len(got) {
			g := got[i]
			rep = describe(string(g.From), string(g.To), string(g.Reason))
			if frame < 0 {
				frame = g.Frame
			}
		}
		match := "DIFF"
		if i < len(want) && i < len(got) && len(replay.Compare(got[i:i+1], want[i:i+1])) == 0 {
			match = "OK"
			matches++
		}
		fmt.Printf("%-6d| %-28s| %-28s| %s\n", frame, exp, rep, match)
	}

	diverge := n - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", n, matches, diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

func describe(from, to, reason string) string {
	if from == "" {
		from = "-"
	}
	return fmt.Sprintf("%s->%s (%s)", from, to, reason)
}

// #endregion output
