package quiz

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
)

//go:embed questions.json
var questionsJSON []byte

// Question is one entry of the question bank. Answer is the index of the
// correct option and must never be sent to the client outside the key.
type Question struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// PublicQuestion is the client-visible projection of a Question.
type PublicQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Bank holds the loaded question bank.
type Bank struct {
	questions []Question
}

// NewBank loads the embedded question bank.
func NewBank() (*Bank, error) {
	var questions []Question
	if err := json.Unmarshal(questionsJSON, &questions); err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	return &Bank{questions: questions}, nil
}

// Size returns the number of questions in the bank.
func (b *Bank) Size() int {
	return len(b.questions)
}

// Random returns count randomly selected questions. A non-empty seed makes
// the selection reproducible. Count is clamped to the bank size; zero or
// negative counts select nothing.
func (b *Bank) Random(count int, seed string) []Question {
	if count <= 0 {
		return []Question{}
	}
	if count > len(b.questions) {
		count = len(b.questions)
	}

	rng := rand.New(rand.NewSource(seedValue(seed)))

	picked := make([]Question, len(b.questions))
	copy(picked, b.questions)
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	return picked[:count]
}

// Sanitize strips the answer keys for the client-visible response.
func Sanitize(questions []Question) []PublicQuestion {
	public := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, PublicQuestion{
			ID:       q.ID,
			Question: q.Question,
			Options:  q.Options,
		})
	}
	return public
}

// seedValue derives a deterministic source seed from the seed string,
// falling back to a random seed when none is given.
func seedValue(seed string) int64 {
	if seed == "" {
		return rand.Int63()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int64(h.Sum64())
}
