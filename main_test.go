package main

import (
	"net"
	"testing"
	"time"
)

// testConfig returns a Config with timings short enough that full rounds
// finish quickly under test.
func testConfig() *Config {
	return &Config{
		bind:          "127.0.0.1",
		quizPort:      3849,
		buzzPort:      3849,
		webPort:       8080,
		questions:     "questions",
		raceWindow:    250 * time.Millisecond,
		answerTimeout: 500 * time.Millisecond,
		revealPause:   time.Millisecond,
		outcomePause:  time.Millisecond,
		nextPause:     time.Millisecond,
		acceptTimeout: 50 * time.Millisecond,
		readTimeout:   50 * time.Millisecond,
	}
}

// testClient drives the client half of a piped control channel: it drains
// every inbound frame into a channel and can submit frames of its own.
type testClient struct {
	t      *testing.T
	conn   net.Conn
	frames chan string
}

func newTestClient(t *testing.T, conn net.Conn) *testClient {
	t.Helper()

	c := &testClient{
		t:      t,
		conn:   conn,
		frames: make(chan string, 64),
	}

	go func() {
		for {
			msg, err := readFrame(conn)
			if err != nil {
				close(c.frames)
				return
			}
			c.frames <- msg
		}
	}()

	return c
}

// next returns the next received frame, failing the test if none arrives in
// time or the channel has closed.
func (c *testClient) next() string {
	c.t.Helper()

	select {
	case msg, ok := <-c.frames:
		if !ok {
			c.t.Fatal("control channel closed while waiting for a frame")
		}
		return msg
	case <-time.After(2 * time.Second):
		c.t.Fatal("timed out waiting for a frame")
	}
	return ""
}

func (c *testClient) expect(want string) {
	c.t.Helper()

	if got := c.next(); got != want {
		c.t.Fatalf("received frame %q, want %q", got, want)
	}
}

func (c *testClient) submit(msg string) {
	c.t.Helper()

	if err := writeFrame(c.conn, msg); err != nil {
		c.t.Fatalf("writing frame %q: %v", msg, err)
	}
}

// admitPipe admits one piped connection to the registry and returns both
// halves of the conversation.
func admitPipe(t *testing.T, reg *Registry) (*Session, *testClient) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	c := newTestClient(t, client)
	s := reg.admit(server)

	return s, c
}

// eventually polls until the condition holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
