package api

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/fogleman/gg"

	"handsim/internal/court"
	"handsim/internal/sim"
)

// Frame rendering: a top-down PNG of the latest snapshot, used by the
// /frame endpoint for quick visual inspection of a running match.

// FrameConfig is the output geometry for rendered frames.
type FrameConfig struct {
	Width  int
	Height int
}

// DefaultFrameConfig matches the default server configuration.
var DefaultFrameConfig = FrameConfig{Width: 1280, Height: 720}

const frameMargin = 40.0

// RenderFrame draws the snapshot to PNG. Coordinates are court metres mapped
// into the frame with a uniform scale.
func RenderFrame(w io.Writer, snap *sim.MatchSnapshot, cfg FrameConfig) error {
	start := time.Now()
	dc := gg.NewContext(cfg.Width, cfg.Height)

	scaleX := (float64(cfg.Width) - 2*frameMargin) / court.Length
	scaleY := (float64(cfg.Height) - 2*frameMargin) / court.Width
	scale := math.Min(scaleX, scaleY)
	toPx := func(x, y float64) (float64, float64) {
		return frameMargin + x*scale, frameMargin + y*scale
	}

	// Background and floor.
	dc.SetRGB(0.08, 0.09, 0.11)
	dc.Clear()
	x0, y0 := toPx(0, 0)
	x1, y1 := toPx(court.Length, court.Width)
	dc.SetRGB(0.82, 0.55, 0.25)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Fill()

	// Court lines.
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(2)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()
	mx, _ := toPx(court.Length/2, 0)
	dc.DrawLine(mx, y0, mx, y1)
	dc.Stroke()

	// Goal areas and 9m arcs at both ends.
	for _, gx := range []float64{0, court.Length} {
		cx, cy := toPx(gx, court.Width/2)
		a0, a1 := -math.Pi/2, math.Pi/2
		if gx > 0 {
			a0, a1 = math.Pi/2, 3*math.Pi/2
		}
		dc.DrawArc(cx, cy, court.GoalAreaRadius*scale, a0, a1)
		dc.Stroke()
		dc.SetDash(6, 6)
		dc.DrawArc(cx, cy, court.FreeThrowRadius*scale, a0, a1)
		dc.Stroke()
		dc.SetDash()

		// Goal mouth.
		gy0 := court.Width/2 - court.GoalWidth/2
		px0, py0 := toPx(gx, gy0)
		_, py1 := toPx(gx, gy0+court.GoalWidth)
		dc.SetLineWidth(5)
		dc.SetRGB(0.95, 0.2, 0.2)
		dc.DrawLine(px0, py0, px0, py1)
		dc.Stroke()
		dc.SetLineWidth(2)
		dc.SetRGB(1, 1, 1)
	}

	// Players.
	for _, p := range snap.Players {
		if p.Suspended {
			continue
		}
		px, py := toPx(p.X, p.Y)
		if p.Side == "home" {
			dc.SetRGB(0.20, 0.45, 0.95)
		} else {
			dc.SetRGB(0.95, 0.75, 0.15)
		}
		r := 7.0
		if p.Position == "GK" {
			r = 8.5
		}
		dc.DrawCircle(px, py, r)
		dc.Fill()
		if p.HasBall {
			dc.SetRGB(1, 1, 1)
			dc.DrawCircle(px, py, r+3)
			dc.Stroke()
		}
	}

	// Ball, scaled up slightly when airborne.
	bx, by := toPx(snap.Ball.X, snap.Ball.Y)
	dc.SetRGB(0.95, 0.95, 0.90)
	dc.DrawCircle(bx, by, 4+snap.Ball.Z*1.5)
	dc.Fill()

	// Scoreboard.
	dc.SetRGB(1, 1, 1)
	score := formatScore(snap)
	dc.DrawStringAnchored(score, float64(cfg.Width)/2, frameMargin/2, 0.5, 0.5)

	err := dc.EncodePNG(w)
	RecordRender(time.Since(start))
	return err
}

func formatScore(snap *sim.MatchSnapshot) string {
	return fmt.Sprintf("%d - %d   %02d:%02d  [%s]",
		snap.HomeScore, snap.AwayScore,
		int(snap.Clock)/60, int(snap.Clock)%60, snap.Phase)
}
