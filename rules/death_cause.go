package rules

const (
	// DeathCauseSnakeCollision is the death reason when a snake runs into another snake's body
	DeathCauseSnakeCollision = "snake-collision"
	// DeathCauseSnakeSelfCollision is when a snake runs into its own tail
	DeathCauseSnakeSelfCollision = "snake-self-collision"
	// DeathCauseHeadToHeadCollision is when a snake runs into another snake's head
	DeathCauseHeadToHeadCollision = "head-collision"
	// DeathCauseWallCollision is when a snake runs off the board
	DeathCauseWallCollision = "wall-collision"
	// DeathCauseGameOver is when the game was ended while the snake was alive
	DeathCauseGameOver = "game-over"
)
