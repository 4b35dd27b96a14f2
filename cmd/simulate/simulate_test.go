package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/swarm/prefabs"
)

func TestScoreboardWriteTo(t *testing.T) {
	board := newScoreboard(3)
	board.Add(result{Session: 0, Seed: 1, Scores: []int{1200}, Stages: []int{2}, Finished: true})
	board.Add(result{Session: 1, Seed: 2, Scores: []int{300, 4500}, Stages: []int{1, 3}, Finished: true})

	var buf bytes.Buffer
	n, err := board.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{"session", "[300 4500]", "2/3 sessions, best score 4500"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScoreboardSnapshotIsCopy(t *testing.T) {
	board := newScoreboard(1)
	board.Add(result{Session: 0})
	snap := board.Snapshot()
	snap[0].Session = 9
	if got := board.Snapshot()[0].Session; got != 0 {
		t.Fatalf("snapshot aliased board storage, session=%d", got)
	}
}

func TestRunSessionRespectsLimit(t *testing.T) {
	spec, err := prefabs.DefaultGameSpec()
	if err != nil {
		t.Fatalf("DefaultGameSpec: %v", err)
	}
	wave, err := prefabs.DefaultWave()
	if err != nil {
		t.Fatalf("DefaultWave: %v", err)
	}

	tests := []struct {
		name     string
		training bool
		players  int
	}{
		{name: "arcade", players: 1},
		{name: "training", training: true, players: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := *spec
			s.Training = tt.training
			cfg := runConfig{
				spec:      &s,
				wave:      wave,
				players:   tt.players,
				episodes:  1,
				seed:      3,
				autopilot: "player",
				limit:     20 * time.Second,
			}
			res, err := runSession(cfg, 0)
			if err != nil {
				t.Fatalf("runSession: %v", err)
			}
			if res.Elapsed > cfg.limit {
				t.Fatalf("elapsed %s past limit %s", res.Elapsed, cfg.limit)
			}
			if !res.Finished && res.Elapsed != cfg.limit {
				t.Fatalf("stopped early at %s without finishing", res.Elapsed)
			}
			wantPlayers := tt.players
			if tt.training {
				wantPlayers = 1
			}
			if len(res.Scores) != wantPlayers {
				t.Fatalf("got %d scores, want %d", len(res.Scores), wantPlayers)
			}
		})
	}
}
