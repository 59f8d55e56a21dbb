package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
)

// Client talks to an arena API server.
type Client struct {
	APIURL string
	HTTP   *http.Client
}

// NewClient returns a client for the API at apiURL, e.g.
// http://localhost:3005.
func NewClient(apiURL string) *Client {
	return &Client{
		APIURL: strings.TrimSuffix(apiURL, "/"),
		HTTP:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "marshal request")
		}
	}
	req, err := http.NewRequest(method, c.APIURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e := errorResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return errors.Wrapf(statusError(resp.StatusCode), "%s %s: %s", method, path, e.Error)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

// statusError maps an API status code back to the sentinel it came from.
func statusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return controller.ErrNotFound
	case http.StatusBadRequest:
		return config.ErrConfiguration
	case http.StatusConflict:
		return controller.ErrFinished
	}
	return errors.Errorf("unexpected status %d", code)
}

// Create stores a new game from cfg and returns its id.
func (c *Client) Create(cfg config.Arena) (string, error) {
	resp := CreateResponse{}
	if err := c.do("POST", "/games", cfg, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Start marks a game running so a worker picks it up.
func (c *Client) Start(id string) error {
	return c.do("POST", "/games/"+id+"/start", nil, nil)
}

// Status returns the game and its newest frame.
func (c *Client) Status(id string) (*controller.Status, error) {
	st := &controller.Status{}
	if err := c.do("GET", "/games/"+id, nil, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Frames lists stored frames, limit 0 for all of them.
func (c *Client) Frames(id string, limit, offset int) ([]*rules.Frame, error) {
	resp := FramesResponse{}
	path := fmt.Sprintf("/games/%s/frames?limit=%d&offset=%d", id, limit, offset)
	if err := c.do("GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Frames, nil
}

// Leaderboard returns the best limit scores.
func (c *Client) Leaderboard(limit int) ([]rules.Score, error) {
	var scores []rules.Score
	if err := c.do("GET", fmt.Sprintf("/leaderboard?limit=%d", limit), nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// Stream follows a game over its websocket and calls fn with every frame in
// turn order. It returns nil once the server closes the stream normally.
func (c *Client) Stream(ctx context.Context, id string, fn func(*rules.Frame)) error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return errors.Wrap(err, "api url")
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/games/" + id + "/stream"

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "dial %s", u)
	}
	defer ws.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()

	for {
		f := &rules.Frame{}
		if err := ws.ReadJSON(f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "read frame")
		}
		fn(f)
	}
}
