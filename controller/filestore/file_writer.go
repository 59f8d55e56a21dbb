package filestore

import (
	"encoding/json"
	"os"

	"github.com/nmurphy101/arena/rules"
)

var openFileWriter = appendOnlyFileWriter

type writer interface {
	WriteString(s string) (int, error)
	Close() error
}

// record is one line of a game archive. Exactly one field is set.
type record struct {
	Game   *rules.Game  `json:"game,omitempty"`
	Frame  *rules.Frame `json:"frame,omitempty"`
	Status string       `json:"status,omitempty"`
	Score  *rules.Score `json:"score,omitempty"`
}

func writeLine(w writer, data interface{}) error {
	j, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.WriteString(string(j) + "\n")
	return err
}

func writeGame(w writer, g *rules.Game) error {
	return writeLine(w, &record{Game: g})
}

func writeFrame(w writer, f *rules.Frame) error {
	return writeLine(w, &record{Frame: f})
}

func writeStatus(w writer, status string) error {
	return writeLine(w, &record{Status: status})
}

func writeScore(w writer, s rules.Score) error {
	return writeLine(w, &record{Score: &s})
}

func appendOnlyFileWriter(directory, id string, mustCreate bool) (writer, error) {
	if err := os.MkdirAll(directory, 0775); err != nil {
		return nil, err
	}

	flags := os.O_APPEND | os.O_WRONLY | os.O_CREATE
	if mustCreate {
		flags |= os.O_EXCL
	}
	return os.OpenFile(getFilePath(directory, id), flags, 0644)
}
