package main

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

type gamePhase int

const (
	phaseLobby gamePhase = iota
	phaseInProgress
	phaseFinished
)

func (p gamePhase) String() string {
	switch p {
	case phaseLobby:
		return "lobby"
	case phaseInProgress:
		return "in_progress"
	case phaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Game is the top-level state machine: Lobby until the operator start
// signal, then one round per question in sequence, then winner
// determination. The phase never returns to Lobby once it has left.
type Game struct {
	cfg   *Config
	clock clockwork.Clock
	reg   *Registry
	bus   *RaceBus
	board *Scoreboard
	hub   *WatchHub

	questions []Question
	startCh   chan struct{}

	mu    sync.Mutex
	phase gamePhase
	round int
}

func newGame(cfg *Config, clock clockwork.Clock, reg *Registry, bus *RaceBus, board *Scoreboard, hub *WatchHub, questions []Question) *Game {
	return &Game{
		cfg:       cfg,
		clock:     clock,
		reg:       reg,
		bus:       bus,
		board:     board,
		hub:       hub,
		questions: questions,
		startCh:   make(chan struct{}),
	}
}

// start fires the start signal. Safe to call once; the console watcher is
// the only caller.
func (g *Game) start() {
	close(g.startCh)
}

func (g *Game) currentPhase() gamePhase {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.phase
}

func (g *Game) currentRound() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.round
}

func (g *Game) setPhase(phase gamePhase) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.phase = phase
}

func (g *Game) setRound(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.round = index
}

// Run blocks until the game has finished or the context is cancelled. The
// accept loop keeps admitting clients the whole time; sessions admitted
// mid-game catch up at the next question broadcast.
func (g *Game) Run(ctx context.Context) {
	select {
	case <-g.startCh:
	case <-ctx.Done():
		return
	}

	// Leaving the lobby freezes the id-recycling policy for good.
	g.reg.freeze()
	g.setPhase(phaseInProgress)

	logf(g.cfg, "GAME: Game started with %d clients and %d questions", len(g.reg.live()), len(g.questions))

	g.reg.broadcast(msgStart)
	g.hub.publish(watchEvent{Type: eventStarted})

	for i, q := range g.questions {
		if ctx.Err() != nil {
			return
		}

		g.reg.reap()
		if len(g.reg.live()) == 0 {
			logf(g.cfg, "GAME: All clients disconnected, ending game early")
			break
		}

		g.setRound(q.Index)

		playRound(ctx, g.cfg, g.clock, g.reg, g.bus, g.board, g.hub, q)

		// Give clients time to show the outcome before moving on.
		g.clock.Sleep(g.cfg.outcomePause)

		if i < len(g.questions)-1 {
			g.reg.broadcast(msgNext)
			g.clock.Sleep(g.cfg.nextPause)
		}
	}

	g.finish()
}

// finish determines the winners and tells every client how their game
// ended: "win" for each top scorer, "end" for everyone else.
func (g *Game) finish() {
	// A client that dropped during the last round must not hold the
	// maximum score when the winners are computed.
	g.reg.reap()

	winners := g.board.Winners()

	won := make(map[int]bool, len(winners))
	for _, id := range winners {
		won[id] = true
	}

	for _, s := range g.reg.live() {
		if won[s.id] {
			s.send(msgWin)
		} else {
			s.send(msgEnd)
		}
	}

	g.hub.publish(watchEvent{Type: eventWinners, Winners: winners})
	g.setPhase(phaseFinished)

	switch len(winners) {
	case 0:
		logf(g.cfg, "GAME: Game over with no remaining clients")
	case 1:
		logf(g.cfg, "GAME: Winner: client %d", winners[0])
	default:
		logf(g.cfg, "GAME: Winners: clients %v", winners)
	}
}
