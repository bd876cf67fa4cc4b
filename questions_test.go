package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeQuestionDir(t *testing.T, answers []string, questions map[int]string) string {
	t.Helper()

	dir := t.TempDir()

	key := strings.Join(answers, "\n")
	if err := os.WriteFile(filepath.Join(dir, "answer_key.txt"), []byte(key), 0o644); err != nil {
		t.Fatalf("writing answer key: %v", err)
	}

	for index, content := range questions {
		name := filepath.Join(dir, fmt.Sprintf("question%d.txt", index))
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatalf("writing question %d: %v", index, err)
		}
	}

	return dir
}

func TestLoadQuestions(t *testing.T) {
	dir := writeQuestionDir(t,
		[]string{"B", "D"},
		map[int]string{
			1: "Capital of France?\nA. London\nB. Paris\nC. Berlin\nD. Madrid\n",
			2: "Largest planet?\nA. Earth\nB. Venus\nC. Mars\nD. Jupiter\n",
		})

	questions, err := loadQuestions(dir)
	if err != nil {
		t.Fatalf("loadQuestions: %v", err)
	}

	if len(questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(questions))
	}
	if questions[0].Index != 1 || questions[1].Index != 2 {
		t.Errorf("question ordinals = %d, %d, want 1, 2", questions[0].Index, questions[1].Index)
	}
	if questions[0].Prompt != "Capital of France?" {
		t.Errorf("prompt = %q", questions[0].Prompt)
	}
	if questions[0].Options[1] != "B. Paris" {
		t.Errorf("option = %q", questions[0].Options[1])
	}
	if questions[1].Answer != "D" {
		t.Errorf("answer = %q, want D", questions[1].Answer)
	}
}

func TestLoadQuestionsMissingFile(t *testing.T) {
	dir := writeQuestionDir(t,
		[]string{"B", "D"},
		map[int]string{
			1: "Capital of France?\nA. London\nB. Paris\nC. Berlin\nD. Madrid\n",
		})

	if _, err := loadQuestions(dir); err == nil {
		t.Error("expected an error with a missing question file")
	}
}

func TestLoadQuestionsShortFile(t *testing.T) {
	dir := writeQuestionDir(t,
		[]string{"B"},
		map[int]string{
			1: "Capital of France?\nA. London\nB. Paris\n",
		})

	if _, err := loadQuestions(dir); err == nil {
		t.Error("expected an error with a short question file")
	}
}

func TestLoadQuestionsEmptyKey(t *testing.T) {
	dir := writeQuestionDir(t, nil, nil)

	if _, err := loadQuestions(dir); err == nil {
		t.Error("expected an error with an empty answer key")
	}
}
