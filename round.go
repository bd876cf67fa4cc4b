package main

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// roundOutcome summarizes one completed question for the game loop.
type roundOutcome struct {
	winner int    // client id of the race winner, or raceElapsed if nobody buzzed
	status string // msgCorrect, msgIncorrect, or msgPenalty; empty if nobody buzzed
}

// playRound drives one question from broadcast to scored outcome:
//
//	broadcast question -> race open -> race resolved -> awaiting answer -> scored
//
// Every wait is bounded and an elapsed bound is a normal outcome (no buzz,
// no answer), never an error. Rounds are not retried.
func playRound(ctx context.Context, cfg *Config, clock clockwork.Clock, reg *Registry, bus *RaceBus, board *Scoreboard, hub *WatchHub, q Question) roundOutcome {
	// Clear the bus before anyone hears about the round, so a stale
	// sentinel from the previous question cannot close this race early.
	bus.Reset()
	raceDone := bus.Done()

	payload := encodeQuestion(q)
	for _, s := range reg.live() {
		s.setState(stateActive)
		s.send(payload)
	}

	hub.publish(watchEvent{Type: eventQuestion, Round: q.Index, Prompt: q.Prompt})
	logf(cfg, "GAME: Question %d sent, waiting for buzzes", q.Index)

	// Let clients render the question before we start watching the race.
	clock.Sleep(cfg.revealPause)

	// The race closes when the first client reports its window elapsed.
	// The cap only matters when every client vanished mid-race and nobody
	// is left to send the sentinel.
	raceCap := cfg.revealPause + cfg.raceWindow + 2*time.Second

	select {
	case <-raceDone:
	case <-clock.After(raceCap):
		logf(cfg, "GAME: Race window for question %d timed out unclosed", q.Index)
	case <-ctx.Done():
		return roundOutcome{winner: raceElapsed}
	}

	winner := bus.FirstBuzz()

	if winner == raceElapsed {
		logf(cfg, "GAME: Nobody buzzed for question %d", q.Index)
		reg.broadcast(msgNoPoll)
		hub.publish(watchEvent{Type: eventNoPoll, Round: q.Index})
		return roundOutcome{winner: raceElapsed}
	}

	logf(cfg, "GAME: Client %d won the race for question %d", winner, q.Index)
	hub.publish(watchEvent{Type: eventBuzz, Round: q.Index, ClientID: winner})

	sessions := reg.live()

	var winnerSession *Session
	for _, s := range sessions {
		if s.id == winner {
			winnerSession = s
			break
		}
	}

	// The answer window must be open before the ack goes out, or a fast
	// client's submission could land before anyone is listening for it.
	var answered <-chan struct{}
	if winnerSession != nil {
		answered = winnerSession.beginAnswer()
	}

	// Tell the winner to answer and everyone else that they were late.
	for _, s := range sessions {
		if s.id == winner {
			s.send(msgAck)
		} else {
			s.send(msgNegativeAck)
		}
	}

	answer := msgNoAnswer
	if winnerSession != nil {
		// If the winner disconnects here, no submission arrives and the
		// deadline elapses into the penalty path; we never wait on a
		// socket that is gone for longer than the configured bound.
		select {
		case <-answered:
		case <-clock.After(cfg.answerTimeout):
		case <-ctx.Done():
		}

		answer = winnerSession.takeAnswer()
	}

	var status string
	switch answer {
	case q.Answer:
		status = msgCorrect
	case msgNoAnswer:
		status = msgPenalty
	default:
		status = msgIncorrect
	}

	board.Apply(winner, status)
	logf(cfg, "GAME: Question %d: client %d %s, score now %d", q.Index, winner, status, board.Score(winner))

	// The winner hears its own status; bystanders hear who answered and how.
	for _, s := range reg.live() {
		if s.id == winner {
			s.send(status)
		} else {
			s.send(altStatus(status, winner))
		}
	}

	hub.publish(watchEvent{Type: eventOutcome, Round: q.Index, ClientID: winner, Status: status})

	return roundOutcome{winner: winner, status: status}
}
