// Package trivia fetches batches of multiple-choice questions and runs a
// single-player quiz session over them.
package trivia

import (
	"context"
	"slices"
)

const (
	// DefaultCount is the number of questions requested per session.
	DefaultCount = 10
	// DefaultCategory is the OpenTDB id for "Science: Computers".
	DefaultCategory = 18
)

// Request describes a batch of questions to fetch.
type Request struct {
	Count    int
	Category int
}

// DefaultRequest returns the request every session uses unless overridden.
func DefaultRequest() Request {
	return Request{Count: DefaultCount, Category: DefaultCategory}
}

// Source produces a batch of raw questions. Any error is treated by the
// session as a failed fetch.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]RawQuestion, error)
}

// RawQuestion is a question as delivered by a source. Text fields may still
// contain HTML entities.
type RawQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

const (
	TypeMultiple = "multiple"
	TypeBoolean  = "boolean"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is a decoded question ready to be presented. Answers holds the
// correct answer exactly once, at a random position.
type Question struct {
	Category   string
	Type       string
	Difficulty string
	Text       string
	Correct    string
	Answers    []string
}

// CorrectIndex returns the position of the correct answer within Answers.
func (q *Question) CorrectIndex() int {
	return slices.Index(q.Answers, q.Correct)
}

func (q *Question) clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	c.Answers = slices.Clone(q.Answers)
	return &c
}
