package main

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
)

// scoreboard collects session results. It is read from ssh sessions while
// the runner appends to it.
type scoreboard struct {
	mu      sync.Mutex
	results []result
	planned int
}

func newScoreboard(planned int) *scoreboard {
	return &scoreboard{planned: planned}
}

func (b *scoreboard) Add(r result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, r)
}

func (b *scoreboard) Snapshot() []result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.results)
}

// Best returns the highest single player score recorded so far.
func (b *scoreboard) Best() int {
	best := 0
	for _, r := range b.Snapshot() {
		for _, s := range r.Scores {
			best = max(best, s)
		}
	}
	return best
}

func (b *scoreboard) WriteTo(w io.Writer) (int64, error) {
	results := b.Snapshot()
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "session\tseed\tscores\tstages\tcleared\tdestroyed\tdeaths\tepisodes\treward\tgame time\tdone\n")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%v\t%v\t%d\t%d\t%d\t%d\t%.2f\t%s\t%t\n",
			r.Session, r.Seed, r.Scores, r.Stages, r.Cleared, r.Destroyed, r.Deaths, r.Episodes, r.Reward, r.Elapsed, r.Finished)
	}
	if err := tw.Flush(); err != nil {
		return cw.n, err
	}
	_, err := fmt.Fprintf(cw, "%d/%d sessions, best score %d\n", len(results), b.planned, b.Best())
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
