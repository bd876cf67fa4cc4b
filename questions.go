package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Question is one entry in the fixed sequence the game walks through.
type Question struct {
	Index   int // 1-based ordinal, matches question<N>.txt on disk
	Prompt  string
	Options [4]string
	Answer  string
}

// loadQuestions reads the answer key and one question file per key entry.
//
// The directory layout matches the quizmaster convention: answer_key.txt
// holds one reference answer per line, and question<N>.txt holds the prompt
// on its first line followed by exactly four option lines. A missing or
// short question file is an error up front, so a malformed question can
// never reach clients mid-game.
func loadQuestions(dir string) ([]Question, error) {
	answers, err := readLines(filepath.Join(dir, "answer_key.txt"))
	if err != nil {
		return nil, fmt.Errorf("reading answer key: %w", err)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("answer key %s is empty", filepath.Join(dir, "answer_key.txt"))
	}

	questions := make([]Question, 0, len(answers))

	for i, answer := range answers {
		index := i + 1
		path := filepath.Join(dir, fmt.Sprintf("question%d.txt", index))

		lines, err := readLines(path)
		if err != nil {
			return nil, fmt.Errorf("reading question %d: %w", index, err)
		}
		if len(lines) < 5 {
			return nil, fmt.Errorf("question %d is short: %s has %d lines, want a prompt and four options", index, path, len(lines))
		}

		q := Question{
			Index:  index,
			Prompt: lines[0],
			Answer: answer,
		}
		copy(q.Options[:], lines[1:5])

		questions = append(questions, q)
	}

	return questions, nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines, scanner.Err()
}
