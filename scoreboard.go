package main

import (
	"sort"
	"sync"
)

// Point values for round outcomes.
const (
	pointsCorrect   = 10
	pointsIncorrect = -10
	pointsPenalty   = -20
)

// Scoreboard is the per-client score ledger. Entries are created when a
// session is admitted and removed when the session is reaped; the game
// orchestrator, the round controller, and the web interface all read it
// concurrently.
type Scoreboard struct {
	mu     sync.RWMutex
	scores map[int]int
}

func newScoreboard() *Scoreboard {
	return &Scoreboard{
		scores: make(map[int]int),
	}
}

// Track creates a zero entry for the given client, if one does not exist.
func (s *Scoreboard) Track(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scores[clientID]; !ok {
		s.scores[clientID] = 0
	}
}

// Forget drops the ledger entry for a permanently discarded client.
func (s *Scoreboard) Forget(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scores, clientID)
}

// Apply adjusts one client's score by the value for the given outcome.
// Unknown outcome statuses leave the ledger untouched.
func (s *Scoreboard) Apply(clientID int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scores[clientID]; !ok {
		return
	}

	switch status {
	case msgCorrect:
		s.scores[clientID] += pointsCorrect
	case msgIncorrect:
		s.scores[clientID] += pointsIncorrect
	case msgPenalty:
		s.scores[clientID] += pointsPenalty
	}
}

// Score returns the current score for a client; untracked clients score zero.
func (s *Scoreboard) Score(clientID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scores[clientID]
}

// Snapshot returns a copy of the whole ledger for the web interface.
func (s *Scoreboard) Snapshot() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]int, len(s.scores))
	for id, score := range s.scores {
		out[id] = score
	}
	return out
}

// Winners returns every tracked client tied for the maximum score, in
// ascending id order. An empty ledger yields no winners.
func (s *Scoreboard) Winners() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.scores) == 0 {
		return nil
	}

	best := 0
	first := true
	for _, score := range s.scores {
		if first || score > best {
			best = score
			first = false
		}
	}

	var winners []int
	for id, score := range s.scores {
		if score == best {
			winners = append(winners, id)
		}
	}
	sort.Ints(winners)

	return winners
}
