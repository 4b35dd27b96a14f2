package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug mode")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	players := flag.Int("players", 0, "start a 1 or 2 player session right away")
	seed := flag.Int64("seed", 1, "random seed for attack selection and unit decisions")
	autopilot := flag.String("autopilot", "", "decision script in prefabs/scripts that flies the player ship")
	alienScript := flag.String("alien-script", "", "decision script in prefabs/scripts for diving units (random when empty)")
	highScore := flag.String("highscore", "", "file the high score is kept in (memory only when empty)")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("swarm")

	game, err := NewGame(Options{
		Debug:         *debug,
		Players:       *players,
		Seed:          *seed,
		Autopilot:     *autopilot,
		AlienScript:   *alienScript,
		HighScorePath: *highScore,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
