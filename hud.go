package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/swarm/ecs"
	"github.com/milk9111/swarm/ecs/system"
)

const hudLogLines = 6

// HUD is the on-screen presentation. Banners are drawn until the flow leaves
// the stage text state; the timing itself lives in the executor.
type HUD struct {
	scores    [2]int
	lives     [2]int
	stages    [2]int
	highScore int
	players   int
	current   int
	banner    string
	gameOver  bool
	state     system.FlowState
	log       []string

	face ebtext.Face
}

func NewHUD() *HUD {
	return &HUD{face: ebtext.NewGoXFace(basicfont.Face7x13)}
}

func (h *HUD) ShowPlayerBanner(player int, done func()) {
	h.banner = fmt.Sprintf("PLAYER %d", player)
	h.current = player
	if done != nil {
		done()
	}
}

func (h *HUD) ShowStageBanner(stage int, done func()) {
	h.banner = fmt.Sprintf("STAGE %d", stage)
	if done != nil {
		done()
	}
}

func (h *HUD) UpdateScore(player, score int) {
	if i, ok := slot(player); ok {
		h.scores[i] = score
	}
}

func (h *HUD) UpdateLives(player, lives int) {
	if i, ok := slot(player); ok {
		h.lives[i] = lives
	}
}

func (h *HUD) UpdateStage(player, stage int) {
	if i, ok := slot(player); ok {
		h.stages[i] = stage
	}
}

func (h *HUD) UpdateHighScore(score int) {
	h.highScore = score
}

func (h *HUD) ShowGameOver() {
	h.gameOver = true
}

// SetState follows flow transitions so banners and the game over text clear
// at the right time.
func (h *HUD) SetState(to system.FlowState, players, current int) {
	h.state = to
	h.players = players
	h.current = current
	if to != system.DisplayStageText {
		h.banner = ""
	}
	if to == system.PlayerSelect {
		h.gameOver = false
		h.scores = [2]int{}
	}
}

// slot maps a 1-based player number onto the score columns.
func slot(player int) (int, bool) {
	return player - 1, player >= 1 && player <= 2
}

// Log records an outcome event for the event strip.
func (h *HUD) Log(evt ecs.Event) {
	var line string
	switch evt.Type {
	case ecs.EventWaveCleared:
		line = fmt.Sprintf("stage %d cleared", evt.Stage)
	case ecs.EventEntityDestroyed:
		verb := "holding"
		if evt.WasAttacking {
			verb = "diving"
		}
		line = fmt.Sprintf("%s %s down +%d", verb, evt.Kind, evt.Points)
	case ecs.EventPlayerDied:
		line = fmt.Sprintf("player %d hit", evt.Player)
	case ecs.EventSessionOver:
		line = fmt.Sprintf("session over %v", evt.Scores)
	default:
		return
	}
	h.log = append(h.log, line)
	if len(h.log) > hudLogLines {
		h.log = h.log[len(h.log)-hudLogLines:]
	}
}

func (h *HUD) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("1UP %06d", h.scores[0]), 16, 8)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("HIGH SCORE %06d", h.highScore), baseWidth/2-56, 8)
	if h.players == 2 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("2UP %06d", h.scores[1]), baseWidth-120, 8)
	}
	if i, ok := slot(h.current); ok {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("PLAYER %d  LIVES %d  STAGE %d", h.current, h.lives[i], h.stages[i]), 16, baseHeight-24)
	}

	for i, line := range h.log {
		ebitenutil.DebugPrintAt(screen, line, baseWidth-220, 40+i*16)
	}

	switch {
	case h.gameOver:
		h.drawCentered(screen, "GAME OVER", color.NRGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff})
		h.drawLine(screen, "press 1 or 2 to play again", baseHeight/2+32)
	case h.state == system.PlayerSelect:
		h.drawCentered(screen, "PRESS 1 OR 2", color.White)
	case h.banner != "":
		h.drawCentered(screen, h.banner, color.NRGBA{R: 0x40, G: 0xc0, B: 0xff, A: 0xff})
	}
}

func (h *HUD) drawCentered(screen *ebiten.Image, s string, clr color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Scale(3, 3)
	op.GeoM.Translate(baseWidth/2, baseHeight/2-24)
	op.ColorScale.ScaleWithColor(clr)
	op.PrimaryAlign = ebtext.AlignCenter
	ebtext.Draw(screen, s, h.face, op)
}

func (h *HUD) drawLine(screen *ebiten.Image, s string, y int) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(baseWidth/2, float64(y))
	op.ColorScale.ScaleWithColor(color.White)
	op.PrimaryAlign = ebtext.AlignCenter
	ebtext.Draw(screen, s, h.face, op)
}
