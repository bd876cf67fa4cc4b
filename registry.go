package main

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// Registry tracks every admitted session. It owns the session set: the
// accept loop adds to it, reaping removes from it, and the game loop reads
// snapshots from it for broadcasts.
//
// Id assignment switches policy when the game starts. In the lobby, ids are
// one plus the count of live sessions, so a client that disconnects before
// the game frees its slot for the next arrival. Once the game is in
// progress ids only count upward and are never reused.
type Registry struct {
	cfg   *Config
	board *Scoreboard
	bus   *RaceBus
	hub   *WatchHub

	mu         sync.Mutex
	sessions   []*Session
	nextID     int
	inProgress bool
}

func newRegistry(cfg *Config, board *Scoreboard, bus *RaceBus, hub *WatchHub) *Registry {
	return &Registry{
		cfg:   cfg,
		board: board,
		bus:   bus,
		hub:   hub,
	}
}

// admit creates a session for a freshly accepted connection, assigns its id,
// starts its receive loop, and immediately sends the id (plus a wait notice
// if a game is already running).
func (p *Registry) admit(conn net.Conn) *Session {
	p.mu.Lock()

	p.reapLocked()

	var id int
	if p.inProgress {
		// The counter can walk into an id still held by a lobby-era
		// session if clients left before the game started. Skip past
		// those; the sequence stays monotonic.
		for p.takenLocked(p.nextID) {
			p.nextID++
		}
		id = p.nextID
		p.nextID++
	} else {
		// Lobby policy: one plus the live count, so departures before the
		// game starts free their slot. Bump past any id still held, which
		// can happen when a client from the middle of the order leaves.
		id = len(p.sessions) + 1
		for p.takenLocked(id) {
			id++
		}
	}

	s := newSession(p.cfg, conn, id)
	p.sessions = append(p.sessions, s)
	p.board.Track(id)
	inProgress := p.inProgress

	p.mu.Unlock()

	logf(p.cfg, "NET: Connection accepted from client %d (%s)", id, conn.RemoteAddr())

	s.greet(inProgress)
	go s.run()

	p.hub.publish(watchEvent{Type: eventJoined, ClientID: id})

	return s
}

func (p *Registry) takenLocked(id int) bool {
	for _, s := range p.sessions {
		if s.id == id {
			return true
		}
	}
	return false
}

// freeze ends the lobby id-recycling policy. Called once, when the game
// leaves the lobby.
func (p *Registry) freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reapLocked()
	p.inProgress = true
	p.nextID = len(p.sessions) + 1
	for p.takenLocked(p.nextID) {
		p.nextID++
	}
}

// reap removes sessions in a terminal state and tells the race bus and the
// scoreboard to drop their entries.
func (p *Registry) reap() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reapLocked()
}

func (p *Registry) reapLocked() {
	kept := p.sessions[:0]
	var removed []int

	for _, s := range p.sessions {
		if s.alive() {
			kept = append(kept, s)
			continue
		}

		p.bus.Drop(s.id)
		p.board.Forget(s.id)
		removed = append(removed, s.id)
		p.hub.publish(watchEvent{Type: eventLeft, ClientID: s.id})
	}

	for _, id := range removed {
		logf(p.cfg, "GAME: Removed client %d, %d remaining", id, len(kept))
	}

	// Clear trailing slots so reaped sessions can be collected.
	for i := len(kept); i < len(p.sessions); i++ {
		p.sessions[i] = nil
	}

	p.sessions = kept
}

// live returns a stable snapshot of the sessions currently alive, in
// admission order. Broadcasts iterate the snapshot, so the set mutating
// mid-broadcast can neither skip nor double-send.
func (p *Registry) live() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		if s.alive() {
			out = append(out, s)
		}
	}
	return out
}

// broadcast sends one message to every live session.
func (p *Registry) broadcast(msg string) {
	for _, s := range p.live() {
		s.send(msg)
	}
}

// acceptLoop admits connections until the context is done. Each pass is
// bounded by an accept deadline so reaping interleaves with accepting, and
// so the loop notices cancellation.
func (p *Registry) acceptLoop(ctx context.Context, ln *net.TCPListener) {
	defer ln.Close()

	for {
		if ctx.Err() != nil {
			return
		}

		p.reap()

		_ = ln.SetDeadline(time.Now().Add(p.cfg.acceptTimeout))

		conn, err := ln.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			logf(p.cfg, "NET: Accept loop stopped: %v", err)
			return
		}

		p.admit(conn)
	}
}
