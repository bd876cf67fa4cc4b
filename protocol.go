package main

// Wire protocol for the client control channel.
//
// Every message is a frame: a 4-byte big-endian length followed by that many
// bytes of UTF-8 text. The first frame sent to a freshly accepted client is
// its decimal client id. After that the server sends either a bare control
// token or a question payload; question payloads are the only frames that
// contain newlines, which is how clients tell the two apart.
//
// The race channel is UDP: each datagram is an ASCII decimal integer, the
// sender's client id for a buzz or -1 for "my race window elapsed".

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	msgStart       = "start"
	msgWait        = "wait"
	msgNext        = "next"
	msgAck         = "ack"
	msgNegativeAck = "negative-ack"
	msgNoPoll      = "no-poll"
	msgCorrect     = "correct"
	msgIncorrect   = "incorrect"
	msgPenalty     = "penalty"
	msgWin         = "win"
	msgEnd         = "end"

	// Client -> server.
	msgKill     = "kill"
	msgNoAnswer = "no answer"

	// Race channel sentinel: a client's local buzz timer elapsed unused.
	raceElapsed = -1
)

// altStatus is the bystander variant of a round outcome, e.g. "alt_correct2"
// tells everyone except client 2 that client 2 answered correctly.
func altStatus(status string, clientID int) string {
	return "alt_" + status + strconv.Itoa(clientID)
}

const maxFrameSize = 64 * 1024

var errFrameTooLarge = errors.New("frame exceeds maximum size")

func writeFrame(w io.Writer, payload string) error {
	if len(payload) > maxFrameSize {
		return errFrameTooLarge
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, payload)
	return err
}

func readFrame(r io.Reader) (string, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return "", err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return "", errFrameTooLarge
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", err
	}
	return string(payload), nil
}

// encodeQuestion renders a question as the five-line payload clients expect:
// the prompt followed by the four options.
func encodeQuestion(q Question) string {
	lines := make([]string, 0, 5)
	lines = append(lines, q.Prompt)
	lines = append(lines, q.Options[:]...)
	return strings.Join(lines, "\n")
}

// parseBuzz decodes a race channel datagram. Any payload that is not a bare
// decimal integer is rejected; the race listener drops those and keeps going.
func parseBuzz(payload []byte) (int, error) {
	text := strings.TrimSpace(string(payload))
	id, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("malformed buzz %q: %w", text, err)
	}
	if id < raceElapsed {
		return 0, fmt.Errorf("malformed buzz %q: negative client id", text)
	}
	return id, nil
}
