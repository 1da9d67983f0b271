package sim

// PlayerAction is what a player has decided to do this decision interval.
// Movement and action resolution interpret the action together with the
// player's target position / target player.
type PlayerAction int

const (
	ActionIdle PlayerAction = iota
	ActionMovingToPosition
	ActionMovingWithBall
	ActionPreparingPass
	ActionPassing
	ActionPreparingShot
	ActionShooting
	ActionJumpShot
	ActionLanding
	ActionTackling
	ActionBlocking
	ActionIntercepting
	ActionDefendingPlayer
	ActionReceivingPass
	ActionWaitingForPass
	ActionReturningToDefense
	ActionTakingSetPiece
	ActionTakingPenalty
	ActionDefendingSetPiece
	ActionGoalkeeping
	ActionCelebrating
	ActionArguing
)

var actionNames = map[PlayerAction]string{
	ActionIdle:               "idle",
	ActionMovingToPosition:   "moving_to_position",
	ActionMovingWithBall:     "moving_with_ball",
	ActionPreparingPass:      "preparing_pass",
	ActionPassing:            "passing",
	ActionPreparingShot:      "preparing_shot",
	ActionShooting:           "shooting",
	ActionJumpShot:           "jump_shot",
	ActionLanding:            "landing",
	ActionTackling:           "tackling",
	ActionBlocking:           "blocking",
	ActionIntercepting:       "intercepting",
	ActionDefendingPlayer:    "defending_player",
	ActionReceivingPass:      "receiving_pass",
	ActionWaitingForPass:     "waiting_for_pass",
	ActionReturningToDefense: "returning_to_defense",
	ActionTakingSetPiece:     "taking_set_piece",
	ActionTakingPenalty:      "taking_penalty",
	ActionDefendingSetPiece:  "defending_set_piece",
	ActionGoalkeeping:        "goalkeeping",
	ActionCelebrating:        "celebrating",
	ActionArguing:            "arguing",
}

// String returns the snake_case action name used in snapshots and logs.
func (a PlayerAction) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// OffensiveAction reports whether the action releases or advances the ball.
func (a PlayerAction) OffensiveAction() bool {
	switch a {
	case ActionMovingWithBall, ActionPreparingPass, ActionPassing,
		ActionPreparingShot, ActionShooting, ActionJumpShot,
		ActionTakingSetPiece, ActionTakingPenalty:
		return true
	}
	return false
}
