package main

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func testQuestions() []Question {
	return []Question{
		{
			Index:   1,
			Prompt:  "Capital of France?",
			Options: [4]string{"A. London", "B. Paris", "C. Berlin", "D. Madrid"},
			Answer:  "B",
		},
		{
			Index:   2,
			Prompt:  "Largest planet?",
			Options: [4]string{"A. Earth", "B. Venus", "C. Mars", "D. Jupiter"},
			Answer:  "D",
		},
	}
}

func newTestGame(t *testing.T, questions []Question) (*Game, *Registry, *RaceBus, *Scoreboard) {
	t.Helper()

	cfg := testConfig()
	board := newScoreboard()
	bus := newRaceBus()
	reg := newRegistry(cfg, board, bus, nil)
	game := newGame(cfg, clockwork.NewRealClock(), reg, bus, board, nil, questions)

	return game, reg, bus, board
}

func runGame(t *testing.T, game *Game) <-chan struct{} {
	t.Helper()

	done := make(chan struct{})
	go func() {
		game.Run(context.Background())
		close(done)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("game never finished")
	}
}

func TestGameFullRun(t *testing.T) {
	questions := testQuestions()
	game, reg, bus, board := newTestGame(t, questions)

	_, c1 := admitPipe(t, reg)
	_, c2 := admitPipe(t, reg)
	c1.expect("1")
	c2.expect("2")

	done := runGame(t, game)
	game.start()

	c1.expect(msgStart)
	c2.expect(msgStart)

	// Question 1: client 1 wins the race and answers correctly.
	payload := encodeQuestion(questions[0])
	c1.expect(payload)
	c2.expect(payload)

	bus.Signal(1)
	bus.Signal(raceElapsed)

	c1.expect(msgAck)
	c2.expect(msgNegativeAck)

	c1.submit("B")

	c1.expect(msgCorrect)
	c2.expect("alt_correct1")

	c1.expect(msgNext)
	c2.expect(msgNext)

	// Question 2: nobody buzzes.
	payload = encodeQuestion(questions[1])
	c1.expect(payload)
	c2.expect(payload)

	bus.Signal(raceElapsed)

	c1.expect(msgNoPoll)
	c2.expect(msgNoPoll)

	// Client 1 is the sole top scorer.
	c1.expect(msgWin)
	c2.expect(msgEnd)

	waitDone(t, done)

	if game.currentPhase() != phaseFinished {
		t.Errorf("phase = %v, want finished", game.currentPhase())
	}
	if got := board.Score(1); got != 10 {
		t.Errorf("client 1 score = %d, want 10", got)
	}
	if got := board.Score(2); got != 0 {
		t.Errorf("client 2 score = %d, want 0", got)
	}
}

func TestGameTiedWinners(t *testing.T) {
	questions := testQuestions()[:1]
	game, reg, bus, _ := newTestGame(t, questions)

	_, c1 := admitPipe(t, reg)
	_, c2 := admitPipe(t, reg)
	c1.next()
	c2.next()

	done := runGame(t, game)
	game.start()

	c1.expect(msgStart)
	c2.expect(msgStart)

	payload := encodeQuestion(questions[0])
	c1.expect(payload)
	c2.expect(payload)

	bus.Signal(raceElapsed)

	c1.expect(msgNoPoll)
	c2.expect(msgNoPoll)

	// Equal scores tie for the maximum, so both clients win.
	c1.expect(msgWin)
	c2.expect(msgWin)

	waitDone(t, done)
}

func TestGameEndsEarlyWithNoClients(t *testing.T) {
	game, reg, _, _ := newTestGame(t, testQuestions())

	s1, c1 := admitPipe(t, reg)
	c1.next()

	done := runGame(t, game)

	s1.kill()
	game.start()

	waitDone(t, done)

	if game.currentPhase() != phaseFinished {
		t.Errorf("phase = %v, want finished", game.currentPhase())
	}
}

func TestGameFinishDropsDepartedLeader(t *testing.T) {
	game, reg, _, board := newTestGame(t, testQuestions())

	s1, c1 := admitPipe(t, reg)
	_, c2 := admitPipe(t, reg)
	c1.next()
	c2.next()

	// Client 1 leads, then drops before the winners are computed. The
	// departed leader must not hold the maximum.
	board.Apply(1, msgCorrect)
	s1.kill()

	game.finish()

	c2.expect(msgWin)

	if _, ok := board.Snapshot()[1]; ok {
		t.Error("departed client still on the scoreboard at game end")
	}
}

func TestGamePhaseNeverReturnsToLobby(t *testing.T) {
	game, reg, bus, _ := newTestGame(t, testQuestions()[:1])

	_, c1 := admitPipe(t, reg)
	c1.next()

	if game.currentPhase() != phaseLobby {
		t.Fatalf("initial phase = %v, want lobby", game.currentPhase())
	}

	done := runGame(t, game)
	game.start()

	c1.expect(msgStart)

	eventually(t, func() bool { return game.currentPhase() == phaseInProgress },
		"game never reached in_progress")

	payload := encodeQuestion(testQuestions()[0])
	c1.expect(payload)
	bus.Signal(raceElapsed)
	c1.expect(msgNoPoll)
	c1.expect(msgWin)

	waitDone(t, done)

	if game.currentPhase() != phaseFinished {
		t.Errorf("final phase = %v, want finished", game.currentPhase())
	}
}
