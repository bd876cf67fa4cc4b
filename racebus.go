package main

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// RaceBus collects buzzes from the UDP race channel and resolves which
// client buzzed first for the current question.
//
// Closing policy: every client starts its own buzz timer when it renders a
// question, and sends -1 when that timer elapses unused. The race is treated
// as over as soon as the first -1 arrives. Because all timers are started by
// the same broadcast this is close enough in practice, but it is an
// approximation: a fast client's -1 can shut the window before a slow
// client's genuine buzz lands.
type RaceBus struct {
	mu       sync.Mutex
	arrivals []int
	done     bool
	doneCh   chan struct{}
}

func newRaceBus() *RaceBus {
	return &RaceBus{
		doneCh: make(chan struct{}),
	}
}

// Signal records one race channel arrival in receipt order. Sentinel
// arrivals close the current window instead of being queued.
func (b *RaceBus) Signal(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == raceElapsed {
		if !b.done {
			b.done = true
			close(b.doneCh)
		}
		return
	}

	b.arrivals = append(b.arrivals, id)
}

// Done returns a channel that is closed once the current race window is
// considered over. Reset replaces it, so callers must not cache the result
// across rounds.
func (b *RaceBus) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.doneCh
}

// FirstBuzz returns the earliest recorded buzz since the last Reset, or
// raceElapsed if nobody buzzed. Resolving drains the bus, so a second call
// without new arrivals reports no buzz.
func (b *RaceBus) FirstBuzz() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	first := raceElapsed
	if len(b.arrivals) > 0 {
		first = b.arrivals[0]
	}
	b.arrivals = nil

	return first
}

// Reset clears all arrivals and opens a fresh window. Called before each
// question broadcast so a disconnecting client's final sentinel cannot bleed
// into the next round.
func (b *RaceBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.arrivals = nil
	b.done = false
	b.doneCh = make(chan struct{})
}

// Drop removes any queued buzzes from the given client, so a client that is
// being reaped cannot win a race it can no longer answer.
func (b *RaceBus) Drop(clientID int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.arrivals[:0]
	for _, id := range b.arrivals {
		if id != clientID {
			kept = append(kept, id)
		}
	}
	b.arrivals = kept
}

// listenBuzzes drains the race channel socket until the context is done.
// Malformed datagrams are logged and dropped; the listener never blocks the
// bus and never treats a bad packet as fatal. A best-effort ack is returned
// for each buzz, but clients may not rely on it.
func listenBuzzes(ctx context.Context, cfg *Config, conn net.PacketConn, bus *RaceBus) {
	defer conn.Close()

	buf := make([]byte, 1024)

	for {
		if ctx.Err() != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(cfg.readTimeout))

		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			logf(cfg, "NET: Race channel closed: %v", err)
			return
		}

		id, err := parseBuzz(buf[:n])
		if err != nil {
			logf(cfg, "NET: Dropping race datagram from %s: %v", addr, err)
			continue
		}

		if id != raceElapsed {
			logf(cfg, "GAME: Received buzz from client %d", id)
		}

		bus.Signal(id)

		_, _ = conn.WriteTo([]byte("ok"), addr)
	}
}
