package main

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"
)

type sessionState int

const (
	stateConnected sessionState = iota
	stateWaiting                // admitted mid-game, waiting for the next question
	stateActive                 // participating in the current round
	stateAnswering              // won the race, answer pending
	stateKilled                 // client requested termination
	stateDisconnected           // transport failed
)

// Session owns one client's control channel: framed sends, the receive
// loop, and the answer handoff to the round controller. Each session has
// exactly one reader goroutine; sends may come from any goroutine.
type Session struct {
	id   int
	conn net.Conn
	cfg  *Config

	writeMu sync.Mutex

	mu       sync.Mutex
	state    sessionState
	pending  *string
	awaiting bool
	answered chan struct{}
}

func newSession(cfg *Config, conn net.Conn, id int) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		cfg:      cfg,
		answered: make(chan struct{}, 1),
	}
}

// send transmits one framed message. A transport error marks the session
// disconnected instead of surfacing to the caller; per-client failures never
// abort the round for everyone else.
func (s *Session) send(msg string) {
	if !s.alive() {
		return
	}

	s.writeMu.Lock()
	err := writeFrame(s.conn, msg)
	s.writeMu.Unlock()

	if err != nil {
		logf(s.cfg, "NET: Write to client %d failed: %v", s.id, err)
		s.disconnect()
	}
}

// run is the session's receive loop. Reads use a bounded deadline so the
// loop can notice a terminal state without a dedicated wakeup. Runs as its
// own goroutine; returns when the session reaches a terminal state.
func (s *Session) run() {
	for s.alive() {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.readTimeout))

		msg, err := readFrame(s.conn)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.alive() {
				logf(s.cfg, "NET: Client %d disconnected: %v", s.id, err)
				s.disconnect()
			}
			return
		}

		if msg == msgKill {
			logf(s.cfg, "GAME: Client %d requested termination", s.id)
			s.kill()
			return
		}

		s.storeAnswer(msg)
	}
}

// storeAnswer records a submission if this session's answer window is open.
// Anything received outside the window is accepted and discarded; stray
// messages are never queued for a future round.
func (s *Session) storeAnswer(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.awaiting || s.pending != nil {
		return
	}

	s.pending = &msg

	select {
	case s.answered <- struct{}{}:
	default:
	}
}

// beginAnswer opens the answer window for this session and returns a channel
// that receives one value when a submission arrives.
func (s *Session) beginAnswer() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.awaiting = true
	s.pending = nil
	s.setStateLocked(stateAnswering)

	// Drain any stale signal from a previous round.
	select {
	case <-s.answered:
	default:
	}

	return s.answered
}

// takeAnswer closes the answer window and consumes the submission, or the
// no-answer sentinel if the deadline elapsed with nothing submitted.
func (s *Session) takeAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.awaiting = false
	s.setStateLocked(stateActive)

	if s.pending == nil {
		return msgNoAnswer
	}

	answer := *s.pending
	s.pending = nil
	return answer
}

func (s *Session) setState(state sessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setStateLocked(state)
}

// setStateLocked ignores transitions out of a terminal state.
func (s *Session) setStateLocked(state sessionState) {
	if s.state == stateKilled || s.state == stateDisconnected {
		return
	}
	s.state = state
}

func (s *Session) currentState() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Session) alive() bool {
	state := s.currentState()
	return state != stateKilled && state != stateDisconnected
}

func (s *Session) kill() {
	s.setState(stateKilled)
	_ = s.conn.Close()
}

func (s *Session) disconnect() {
	s.setState(stateDisconnected)
	_ = s.conn.Close()
}

// greet sends the assigned client id, and a wait notice if the game has
// already started.
func (s *Session) greet(inProgress bool) {
	s.send(strconv.Itoa(s.id))

	if inProgress {
		s.setState(stateWaiting)
		s.send(msgWait)
	}
}
