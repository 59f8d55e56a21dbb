package rules

// CheckForGameOver checks if the game has ended. End condition is dependent on game mode.
func CheckForGameOver(mode GameMode, f *Frame) bool {
	alive := f.AliveSnakes()
	if mode == GameModeSinglePlayer {
		players, playersAlive := 0, 0
		for _, s := range f.Snakes {
			if s.Player {
				players++
				if s.Death == nil {
					playersAlive++
				}
			}
		}
		if players > 0 {
			return playersAlive == 0
		}
		return len(alive) == 0
	}
	return len(alive) <= 1
}
