package rules

var (
	// GameStatusStopped is a created game nobody started yet
	GameStatusStopped = "stopped"
	// GameStatusRunning is a game a worker may pick up
	GameStatusRunning = "running"
	// GameStatusError represents a game that ended because of an error
	GameStatusError = "error"
	// GameStatusComplete represents a game that is done
	GameStatusComplete = "complete"
)
