package rules

import "sort"

// Score is a leaderboard entry for one snake.
type Score struct {
	GameID  string `json:"gameId"`
	SnakeID string `json:"snakeId"`
	Name    string `json:"name"`
	Player  bool   `json:"player"`
	Points  int    `json:"points"`
	Length  int    `json:"length"`
	Turn    int64  `json:"turn"`
	Cause   string `json:"cause,omitempty"`
}

func (s *Snake) score() Score {
	sc := Score{
		SnakeID: s.ID,
		Name:    s.Name,
		Player:  s.Player,
		Points:  s.Score,
		Length:  s.Length(),
	}
	if s.Death != nil {
		sc.Turn = s.Death.Turn
		sc.Cause = s.Death.Cause
	}
	return sc
}

// Scores returns an entry for every snake that took part, best first.
// Living snakes are scored as they stand.
func (w *World) Scores() []Score {
	scores := make([]Score, 0, len(w.results)+len(w.Snakes))
	scores = append(scores, w.results...)
	for _, s := range w.Snakes {
		if s.Alive() {
			sc := s.score()
			sc.Turn = w.Turn
			scores = append(scores, sc)
		}
	}
	for i := range scores {
		scores[i].GameID = w.ID
	}
	SortScores(scores)
	return scores
}

// SortScores orders by points, then length, then name.
func SortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		return a.Name < b.Name
	})
}
