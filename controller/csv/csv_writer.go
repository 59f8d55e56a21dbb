// Package csv exports the moves of a stored game as CSV. The first line is a
// '#' prefixed JSON header so standard CSV tools skip it:
//
//	#{"id":"1234","turns":3,"snakes":[{"id":"a","name":"ai-1","color":"#ff0000"}]}
//	turn,ai-1
//	1,l
//	2,t
//	3,_
//
// Moves are u, r, d and l for a one cell step, t for a teleport, . for a
// snake that did not move this turn and _ for a snake that is absent or dead.
package csv

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/nmurphy101/arena/rules"
)

// Move letters.
const (
	MoveUp       = "u"
	MoveRight    = "r"
	MoveDown     = "d"
	MoveLeft     = "l"
	MoveTeleport = "t"
	MoveStill    = "."
	MoveNone     = "_"
)

type snakeArchive struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type gameArchive struct {
	ID     string         `json:"id"`
	Turns  int            `json:"turns"`
	Snakes []snakeArchive `json:"snakes"`
}

func findHead(snakeID string, frame *rules.Frame) (rules.Segment, bool) {
	s, ok := frame.Snake(snakeID)
	if !ok || s.Death != nil {
		return rules.Segment{}, false
	}
	return s.Head()
}

func directionBetween(a, b rules.Segment) string {
	dx, dy := b.X-a.X, b.Y-a.Y
	switch {
	case dx == 0 && dy == 0:
		return MoveStill
	case abs(dx)+abs(dy) > 1:
		return MoveTeleport
	case dx < 0:
		return MoveLeft
	case dx > 0:
		return MoveRight
	case dy < 0:
		return MoveUp
	default:
		return MoveDown
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func findMove(snakeID string, thisFrame, previousFrame *rules.Frame) string {
	thisHead, ok := findHead(snakeID, thisFrame)
	if !ok {
		return MoveNone
	}
	previousHead, ok := findHead(snakeID, previousFrame)
	if !ok {
		return MoveNone
	}
	return directionBetween(previousHead, thisHead)
}

// getSnakes lists every snake in order of first appearance, respawns
// included.
func getSnakes(frames []*rules.Frame) []snakeArchive {
	snakes := []snakeArchive{}
	seen := map[string]bool{}
	for _, f := range frames {
		for _, s := range f.Snakes {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			snakes = append(snakes, snakeArchive{ID: s.ID, Name: s.Name, Color: s.Color})
		}
	}
	return snakes
}

func getTurns(snakes []snakeArchive, frames []*rules.Frame) [][]string {
	turns := [][]string{}
	for i := 1; i < len(frames); i++ {
		row := []string{strconv.FormatInt(frames[i].Turn, 10)}
		for _, s := range snakes {
			row = append(row, findMove(s.ID, frames[i], frames[i-1]))
		}
		turns = append(turns, row)
	}
	return turns
}

// Write writes the moves of frames, which must be ordered by turn.
func Write(w io.Writer, game *rules.Game, frames []*rules.Frame) error {
	snakes := getSnakes(frames)
	meta := gameArchive{ID: game.ID, Turns: len(frames) - 1, Snakes: snakes}
	if meta.Turns < 0 {
		meta.Turns = 0
	}
	j, err := json.Marshal(&meta)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "#"+string(j)+"\n"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"turn"}
	for _, s := range snakes {
		header = append(header, s.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(getTurns(snakes, frames)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
