package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Result is the outcome of grading one submission.
type Result struct {
	Score   int `json:"score"`
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Grade scores the submitted answers against the echoed key. It is a pure
// function of its inputs: the same key and answers always produce the same
// result, and mismatched lengths grade the overlapping prefix.
//
// Key entries are the question records previously issued by the questions
// endpoint; they arrive as decoded JSON, so the answer index is recovered
// leniently rather than by strict typing.
func Grade(key []any, answers []any) Result {
	total := len(key)

	n := len(answers)
	if total < n {
		n = total
	}

	correct := 0
	for i := 0; i < n; i++ {
		expected, ok := answerIndex(key[i])
		if !ok {
			continue
		}
		given, ok := toInt(answers[i])
		if !ok {
			continue
		}
		if given == expected {
			correct++
		}
	}

	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return Result{Score: score, Correct: correct, Total: total}
}

// SaveResult persists a small grading record to local storage keyed by job
// id. Quiz records always live on local disk, independent of the media
// storage backend.
func SaveResult(dataDir, jobID string, result Result) error {
	dir := filepath.Join(dataDir, "result", "quiz")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create quiz result directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode quiz result: %w", err)
	}

	path := filepath.Join(dir, jobID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write quiz result: %w", err)
	}
	return nil
}

// answerIndex extracts the correct-answer index from one echoed key entry.
func answerIndex(entry any) (int, bool) {
	record, ok := entry.(map[string]any)
	if !ok {
		return 0, false
	}
	return toInt(record["answer"])
}

// toInt converts decoded JSON values (numbers arrive as float64, but
// clients have been seen sending numeric strings) to an int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
