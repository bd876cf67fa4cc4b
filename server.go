package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/jonboulle/clockwork"
)

// Serve wires up the transports and runs one full game session: admit
// clients until the operator starts the game, play every question, announce
// the winners, then return.
//
// Failing to bind either listener or to load the question material is fatal;
// the engine must not come up without its transports or with a malformed
// question that would surface mid-game.
func Serve(ctx context.Context, cfg *Config) error {
	questions, err := loadQuestions(cfg.questions)
	if err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}

	quizAddr := net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.quizPort))
	buzzAddr := net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.buzzPort))

	ln, err := net.Listen("tcp", quizAddr)
	if err != nil {
		return fmt.Errorf("binding control channel: %w", err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return fmt.Errorf("unexpected listener type %T", ln)
	}

	buzzConn, err := net.ListenPacket("udp", buzzAddr)
	if err != nil {
		ln.Close()
		return fmt.Errorf("binding race channel: %w", err)
	}

	logf(cfg, "START: buzzbox v%s", releaseVersion)
	logf(cfg, "SERVE: Control channel on tcp %s, race channel on udp %s", quizAddr, buzzAddr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	board := newScoreboard()
	bus := newRaceBus()
	hub := newWatchHub()
	reg := newRegistry(cfg, board, bus, hub)
	game := newGame(cfg, clockwork.NewRealClock(), reg, bus, board, hub, questions)

	go hub.run(ctx)
	go listenBuzzes(ctx, cfg, buzzConn, bus)
	go reg.acceptLoop(ctx, tcpLn)
	go watchStart(ctx, os.Stdin, game)
	go serveWeb(ctx, cfg, board, game, hub)

	fmt.Println("Server created")
	fmt.Println("Waiting for client connections...")

	game.Run(ctx)

	fmt.Println("Finished")

	return nil
}
