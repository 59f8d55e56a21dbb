package filestore

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
)

var openFileReader = fileReader

type reader interface {
	ReadBytes(delimiter byte) ([]byte, error)
	Close() error
}

type bufferedFile struct {
	*bufio.Reader
	f *os.File
}

func (b *bufferedFile) Close() error { return b.f.Close() }

func fileReader(directory, id string) (reader, error) {
	f, err := os.Open(getFilePath(directory, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, controller.ErrNotFound
		}
		return nil, err
	}
	return &bufferedFile{Reader: bufio.NewReader(f), f: f}, nil
}

// readRecords calls fn for every line of the archive.
func readRecords(r reader, fn func(record) error) error {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) > 0 {
			var rec record
			if jerr := json.Unmarshal(line, &rec); jerr != nil {
				return errors.Wrap(jerr, "corrupt archive line")
			}
			if ferr := fn(rec); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

type gameArchive struct {
	game   *rules.Game
	frames []*rules.Frame
}

func readArchive(directory, id string) (*gameArchive, error) {
	r, err := openFileReader(directory, id)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	archive := &gameArchive{frames: []*rules.Frame{}}
	err = readRecords(r, func(rec record) error {
		switch {
		case rec.Game != nil:
			archive.game = rec.Game
		case rec.Frame != nil:
			archive.frames = append(archive.frames, rec.Frame)
		case rec.Status != "" && archive.game != nil:
			archive.game.Status = rec.Status
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read game %s", id)
	}
	if archive.game == nil {
		return nil, errors.Wrapf(controller.ErrNotFound, "game %s has no header", id)
	}
	return archive, nil
}

// ReadGame loads the game stored in directory with the given id.
func ReadGame(directory, id string) (*rules.Game, []*rules.Frame, error) {
	archive, err := readArchive(directory, id)
	if err != nil {
		return nil, nil, err
	}
	return archive.game, archive.frames, nil
}

func readScores(directory string) ([]rules.Score, error) {
	r, err := openFileReader(directory, leaderboardID)
	if errors.Cause(err) == controller.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var scores []rules.Score
	err = readRecords(r, func(rec record) error {
		if rec.Score != nil {
			scores = append(scores, *rec.Score)
		}
		return nil
	})
	return scores, err
}
