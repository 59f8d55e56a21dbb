package csv

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

var errWrongSnakeCount = errors.New("csv: wrong snake count")

// Archive is an exported game read back.
type Archive struct {
	ID     string
	Snakes []string
	// Moves holds one row per turn, one move per snake.
	Moves [][]string
}

// readMetadata extracts the metadata from the json on the first line of the
// file. The line is expected to start with a '#'.
func readMetadata(reader *bufio.Reader) (*gameArchive, error) {
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != '#' {
		return nil, errors.New("csv: invalid metadata line")
	}

	meta := &gameArchive{}
	err = json.Unmarshal(line[1:], meta)
	return meta, err
}

// Read parses what Write produced.
func Read(r io.Reader) (*Archive, error) {
	reader := bufio.NewReader(r)
	meta, err := readMetadata(reader)
	if err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = len(meta.Snakes) + 1
	rows, err := cr.ReadAll()
	if err != nil {
		if _, ok := err.(*csv.ParseError); ok {
			return nil, errors.Wrap(errWrongSnakeCount, err.Error())
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("csv: missing header")
	}

	a := &Archive{ID: meta.ID, Snakes: rows[0][1:]}
	for _, row := range rows[1:] {
		a.Moves = append(a.Moves, row[1:])
	}
	if len(a.Moves) != meta.Turns {
		return nil, errors.Errorf("csv: %d turns, header says %d", len(a.Moves), meta.Turns)
	}
	return a, nil
}
