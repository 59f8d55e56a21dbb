package commands

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/rules"
	termbox "github.com/nsf/termbox-go"
	"github.com/pkg/errors"
)

const (
	defaultColor = termbox.ColorDefault
	bgColor      = termbox.ColorDefault
	foodRune     = '●'
	portalRune   = '◎'
	left         = 2
	top          = 2
)

// board is the drawable size of an arena, in cells.
type board struct {
	cols, rows int
}

func boardOf(cfg config.Arena) board {
	return board{cols: cfg.ScreenWidth / cfg.CellSize, rows: cfg.ScreenHeight / cfg.CellSize}
}

func initTerm() error {
	if err := termbox.Init(); err != nil {
		return err
	}
	termbox.SetOutputMode(termbox.Output256)
	return nil
}

func render(b board, frame *rules.Frame, status string) error {
	if frame == nil {
		return errors.New("received nil frame")
	}
	if err := termbox.Clear(defaultColor, defaultColor); err != nil {
		return err
	}

	renderTitle(frame, status)
	renderBoard(b)
	for _, p := range frame.Portals {
		if p.State == rules.StateAlive {
			termbox.SetCell(left+p.X, top+p.Y+1, portalRune, termbox.ColorMagenta, bgColor)
		}
	}
	for _, f := range frame.Food {
		if f.State == rules.StateAlive {
			termbox.SetCell(left+f.X, top+f.Y+1, foodRune, termbox.ColorRed, bgColor)
		}
	}

	for i, s := range frame.Snakes {
		color := snakeColor(s.Color)
		for _, seg := range s.Body {
			ch := ' '
			if seg.Joint == rules.JointHead {
				ch = '@'
			}
			termbox.SetCell(left+seg.X, top+seg.Y+1, ch, defaultColor, color)
		}

		text := fmt.Sprintf("%s %d pts, length %d", s.Name, s.Score, s.Length)
		if s.Player {
			text += " (player)"
		}
		if s.Death != nil {
			text = fmt.Sprintf("%s - %s", text, s.Death.Cause)
		}
		termbox.SetCell(left+b.cols+3, top+1+2*i, ' ', color, color)
		tbprint(left+b.cols+5, top+1+2*i, defaultColor, defaultColor, text)
	}

	return termbox.Flush()
}

// cubeLevels are the channel values of the xterm 256 color cube.
var cubeLevels = [6]float64{0, 95, 135, 175, 215, 255}

// snakeColor maps a "#rrggbb" snake color onto the closest xterm cube entry.
func snakeColor(hex string) termbox.Attribute {
	c, err := colorful.Hex(hex)
	if err != nil {
		return termbox.ColorGreen
	}
	r, g, b := c.RGB255()
	idx := 16 + 36*nearestLevel(r) + 6*nearestLevel(g) + nearestLevel(b)
	return termbox.Attribute(idx + 1)
}

func nearestLevel(v uint8) int {
	best, dist := 0, math.MaxFloat64
	for i, l := range cubeLevels {
		if d := math.Abs(float64(v) - l); d < dist {
			best, dist = i, d
		}
	}
	return best
}

func renderBoard(b board) {
	bottom := top + b.rows + 1
	for i := top + 1; i < bottom; i++ {
		termbox.SetCell(left-1, i, '│', defaultColor, bgColor)
		termbox.SetCell(left+b.cols, i, '│', defaultColor, bgColor)
	}

	termbox.SetCell(left-1, top, '┌', defaultColor, bgColor)
	termbox.SetCell(left-1, bottom, '└', defaultColor, bgColor)
	termbox.SetCell(left+b.cols, top, '┐', defaultColor, bgColor)
	termbox.SetCell(left+b.cols, bottom, '┘', defaultColor, bgColor)

	fill(left, top, b.cols, 1, termbox.Cell{Ch: '─'})
	fill(left, bottom, b.cols, 1, termbox.Cell{Ch: '─'})
}

func renderTitle(frame *rules.Frame, status string) {
	title := fmt.Sprintf("Arena - Turn %d", frame.Turn)
	if status != "" {
		title += " - " + status
	}
	tbprint(left, top-1, defaultColor, defaultColor, title)
}

func fill(x, y, w, h int, cell termbox.Cell) {
	for ly := 0; ly < h; ly++ {
		for lx := 0; lx < w; lx++ {
			termbox.SetCell(x+lx, y+ly, cell.Ch, cell.Fg, cell.Bg)
		}
	}
}

func tbprint(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x += runewidth.RuneWidth(c)
	}
}

func setupEventQueue() <-chan termbox.Event {
	eventQueue := make(chan termbox.Event)
	go func(ev chan<- termbox.Event) {
		for {
			ev <- termbox.PollEvent()
		}
	}(eventQueue)
	return eventQueue
}
