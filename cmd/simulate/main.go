// Command simulate plays headless sessions with scripted pilots and reports
// the results, optionally serving the scoreboard over ssh.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/milk9111/swarm/prefabs"
)

func main() {
	seed := flag.Int64("seed", 1, "base random seed; session n uses seed+n")
	sessions := flag.Int("sessions", 10, "number of sessions to play")
	players := flag.Int("players", 1, "players per session (1 or 2)")
	training := flag.Bool("training", false, "run training episodes instead of arcade sessions")
	episodes := flag.Int("episodes", 5, "episodes per training session")
	alienScript := flag.String("alien-script", "", "decision script for diving units (random when empty)")
	autopilot := flag.String("autopilot", "player", "decision script that flies the player ship")
	limit := flag.Duration("limit", 30*time.Minute, "game time cap per session")
	sshAddr := flag.String("ssh", "", "serve the scoreboard over ssh on this address")
	hostKey := flag.String("host-key", "", "ssh host key file (generated when empty)")
	flag.Parse()

	spec, err := prefabs.DefaultGameSpec()
	if err != nil {
		log.Fatal(err)
	}
	spec.Training = spec.Training || *training
	wave, err := prefabs.DefaultWave()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	board := newScoreboard(*sessions)
	served := make(chan error, 1)
	if *sshAddr != "" {
		go func() {
			served <- serveScoreboard(ctx, *sshAddr, *hostKey, board)
		}()
	}

	cfg := runConfig{
		spec:        spec,
		wave:        wave,
		players:     *players,
		episodes:    *episodes,
		seed:        *seed,
		alienScript: *alienScript,
		autopilot:   *autopilot,
		limit:       *limit,
	}
	for n := 0; n < *sessions && ctx.Err() == nil; n++ {
		res, err := runSession(cfg, n)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("simulate: session %d scores=%v stages=%v game time=%s", n, res.Scores, res.Stages, res.Elapsed)
		board.Add(res)
	}

	if _, err := board.WriteTo(os.Stdout); err != nil {
		log.Fatal(err)
	}

	if *sshAddr != "" {
		log.Printf("simulate: runs finished, serving scoreboard until interrupted")
		if err := <-served; err != nil {
			log.Fatal(err)
		}
	}
}
