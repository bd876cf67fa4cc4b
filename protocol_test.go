package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	for _, msg := range []string{"", "ack", "alt_correct12", "line one\nline two"} {
		buf.Reset()

		if err := writeFrame(&buf, msg); err != nil {
			t.Fatalf("writeFrame(%q): %v", msg, err)
		}

		got, err := readFrame(&buf)
		if err != nil {
			t.Fatalf("readFrame(%q): %v", msg, err)
		}
		if got != msg {
			t.Errorf("round trip produced %q, want %q", got, msg)
		}
	}
}

func TestFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer

	if err := writeFrame(&buf, strings.Repeat("x", maxFrameSize+1)); err == nil {
		t.Error("expected an error writing an oversized frame")
	}

	// An oversized length header must be rejected before allocation.
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	if _, err := readFrame(&buf); err == nil {
		t.Error("expected an error reading an oversized frame header")
	}
}

func TestParseBuzz(t *testing.T) {
	tests := []struct {
		payload string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"0", 0, false},
		{"-1", raceElapsed, false},
		{" 7\n", 7, false},
		{"-2", 0, true},
		{"first!", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		got, err := parseBuzz([]byte(tc.payload))
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseBuzz(%q) succeeded, want error", tc.payload)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseBuzz(%q): %v", tc.payload, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseBuzz(%q) = %d, want %d", tc.payload, got, tc.want)
		}
	}
}

func TestEncodeQuestion(t *testing.T) {
	q := Question{
		Index:   1,
		Prompt:  "What is the capital of France?",
		Options: [4]string{"A. London", "B. Paris", "C. Berlin", "D. Madrid"},
	}

	got := encodeQuestion(q)
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("encoded question has %d lines, want 5", len(lines))
	}
	if lines[0] != q.Prompt {
		t.Errorf("first line is %q, want the prompt", lines[0])
	}
	if lines[2] != "B. Paris" {
		t.Errorf("second option is %q", lines[2])
	}
}

func TestAltStatus(t *testing.T) {
	if got := altStatus(msgCorrect, 2); got != "alt_correct2" {
		t.Errorf("altStatus = %q, want alt_correct2", got)
	}
	if got := altStatus(msgPenalty, 12); got != "alt_penalty12" {
		t.Errorf("altStatus = %q, want alt_penalty12", got)
	}
}
