package dashboard

import (
	"sync"

	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
)

// SelectionState is a point-in-time read of the selection.
type SelectionState struct {
	StationID domain.StationID
	Selected  bool
	Seq       uint64 // bumped on every transition
}

// Selection holds at most one selected station. Transitions are serialized,
// so concurrent Select calls resolve last-write-wins in arrival order.
type Selection struct {
	mu    sync.Mutex
	state SelectionState
}

// Select moves to Selected(id), replacing any previous selection.
func (s *Selection) Select(id domain.StationID) SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SelectionState{StationID: id, Selected: true, Seq: s.state.Seq + 1}
	return s.state
}

// Clear moves to Unselected.
func (s *Selection) Clear() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SelectionState{Seq: s.state.Seq + 1}
	return s.state
}

// Current returns the selected station id, if any.
func (s *Selection) Current() (domain.StationID, bool) {
	st := s.State()
	return st.StationID, st.Selected
}

// State returns the full selection state.
func (s *Selection) State() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
