package session

// Conversation memory: an ordered log of sanitized turns, truncated to the
// most recent window entries for model-context purposes. The turn counter and
// person metadata derive from full history and are unaffected by trimming.

// AppendTurn stores a sanitized turn and drops the oldest entries once the
// retained window is exceeded.
func (s *State) AppendTurn(turn Turn) {
	s.history = append(s.history, turn)
	s.totalMessages++
	if s.window > 0 && len(s.history) > s.window {
		drop := len(s.history) - s.window
		s.history = append([]Turn(nil), s.history[drop:]...)
	}
}

// History returns the retained window, oldest first. The slice is a copy;
// mutating it cannot reach the session state.
func (s *State) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// TotalMessages reports how many turns were ever appended, including those
// the window has dropped.
func (s *State) TotalMessages() int {
	return s.totalMessages
}
