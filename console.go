package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// watchStart reads operator input until the start command arrives, then
// fires the game's start signal and returns. Anything else is rejected with
// a reminder. The prompt always prints, regardless of --verbose; it is the
// operator's interface, not a log line.
func watchStart(ctx context.Context, input io.Reader, g *Game) {
	fmt.Println("Enter 'start' to begin game:")

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "start") {
			g.start()
			return
		}

		fmt.Println("Invalid command. Please enter 'start' to begin.")
	}
}
