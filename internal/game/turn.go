package game

import appErr "mahjong-service/pkg/errors"

// TurnController validates and rotates seat order for one session. Manual
// mode bypasses the turn check entirely so an operator can hand-construct
// arbitrary mid-game scenarios without turn-order friction.
type TurnController struct {
	State *GameState
}

func NewTurnController(s *GameState) TurnController {
	return TurnController{State: s}
}

func (tc TurnController) Authorize(seat int) error {
	if tc.State.ManualMode {
		return nil
	}
	if seat != tc.State.CurrentPlayer {
		return appErr.ErrNotYourTurn
	}
	return nil
}

func (tc TurnController) Advance() {
	tc.State.CurrentPlayer = (tc.State.CurrentPlayer + 1) % SeatCount
}
