package trivia_test

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/jbpratt/quiz/internal/trivia"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDecodesEntities(t *testing.T) {
	raw := []trivia.RawQuestion{{
		Category:         "Entertainment: Books &amp; Comics",
		Type:             trivia.TypeMultiple,
		Difficulty:       "medium",
		Question:         "Who wrote &quot;Dune&quot;? It&#039;s a classic",
		CorrectAnswer:    "Frank Herbert &amp; co",
		IncorrectAnswers: []string{"Isaac Asimov", "Arthur C. Clarke", "&lt;nobody&gt;"},
	}}

	questions, err := trivia.NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]
	require.Equal(t, "Entertainment: Books & Comics", q.Category)
	require.Equal(t, `Who wrote "Dune"? It's a classic`, q.Text)
	require.Equal(t, "Frank Herbert & co", q.Correct)
	require.Equal(t, "medium", q.Difficulty)
	require.Equal(t, trivia.TypeMultiple, q.Type)
	require.ElementsMatch(t, []string{"Frank Herbert & co", "Isaac Asimov", "Arthur C. Clarke", "<nobody>"}, q.Answers)
}

func TestNormalizeAnswersArePermutations(t *testing.T) {
	raw := []trivia.RawQuestion{
		multiple("Q0", "A", "B", "C", "D"),
		{Category: "Science", Type: trivia.TypeBoolean, Difficulty: trivia.DifficultyEasy, Question: "Q1", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
		multiple("Q2", "x", "y", "z", "w"),
	}

	normalizer := trivia.NewNormalizer(trivia.WithShuffler(rand.New(rand.NewSource(42))))
	for range 50 {
		questions, err := normalizer.Normalize(raw)
		require.NoError(t, err)
		require.Len(t, questions, len(raw))

		for i, q := range questions {
			require.Equal(t, raw[i].Question, q.Text, "order must be preserved")
			want := append([]string{raw[i].CorrectAnswer}, raw[i].IncorrectAnswers...)
			require.ElementsMatch(t, want, q.Answers)
			require.Len(t, q.Answers, 1+len(raw[i].IncorrectAnswers))

			count := 0
			for _, a := range q.Answers {
				if a == q.Correct {
					count++
				}
			}
			require.Equal(t, 1, count)
			require.Equal(t, q.Correct, q.Answers[q.CorrectIndex()])
		}
	}
}

func TestNormalizeShuffleIsUnbiased(t *testing.T) {
	const rounds = 20000
	raw := []trivia.RawQuestion{multiple("Q", "A", "B", "C", "D")}
	normalizer := trivia.NewNormalizer(trivia.WithShuffler(rand.New(rand.NewSource(7))))

	positions := make([]int, 4)
	for range rounds {
		questions, err := normalizer.Normalize(raw)
		require.NoError(t, err)
		positions[questions[0].CorrectIndex()]++
	}

	expected := rounds / 4
	for pos, n := range positions {
		// about 8 standard deviations of slack for p=0.25
		require.InDelta(t, expected, n, 0.1*float64(expected), "position %d", pos)
	}
}

func TestNormalizeDefaultShuffler(t *testing.T) {
	raw := []trivia.RawQuestion{multiple("Q", "A", "B", "C", "D")}
	seen := map[int]bool{}
	for range 200 {
		questions, err := trivia.NewNormalizer().Normalize(raw)
		require.NoError(t, err)
		seen[questions[0].CorrectIndex()] = true
	}
	require.Len(t, seen, 4)
}

func TestNormalizeRejectsBadQuestions(t *testing.T) {
	tests := map[string]trivia.RawQuestion{
		"missing question": multiple("", "A", "B", "C", "D"),
		"missing correct":  multiple("Q", "", "B", "C", "D"),
		"too few answers":  multiple("Q", "A", "B"),
		"unknown type":     {Type: "open", Question: "Q", CorrectAnswer: "A", IncorrectAnswers: []string{"B"}},
		"boolean shape":    {Type: trivia.TypeBoolean, Question: "Q", CorrectAnswer: "True", IncorrectAnswers: []string{"False", "Maybe"}},
		"duplicate answer": multiple("Q", "A &amp; B", "A & B", "C", "D"),
		"empty incorrect":  multiple("Q", "A", "B", "", "D"),
		"missing category": func() trivia.RawQuestion {
			q := multiple("Q", "A", "B", "C", "D")
			q.Category = ""
			return q
		}(),
		"missing difficulty": func() trivia.RawQuestion {
			q := multiple("Q", "A", "B", "C", "D")
			q.Difficulty = ""
			return q
		}(),
		"unknown difficulty": func() trivia.RawQuestion {
			q := multiple("Q", "A", "B", "C", "D")
			q.Difficulty = "impossible"
			return q
		}(),
	}

	for name, bad := range tests {
		t.Run(name, func(t *testing.T) {
			raw := []trivia.RawQuestion{multiple("ok", "A", "B", "C", "D"), bad}
			questions, err := trivia.NewNormalizer().Normalize(raw)
			require.Error(t, err)
			require.Contains(t, err.Error(), "question 1")
			require.Nil(t, questions)
		})
	}
}

func TestNormalizeStripsMarkup(t *testing.T) {
	raw := []trivia.RawQuestion{multiple("Which is <b>bold</b>?", "<i>A</i>", "B", "C", "D")}

	questions, err := trivia.NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, "Which is bold?", questions[0].Text)
	require.Equal(t, "A", questions[0].Correct)
}

func TestNormalizeDecoderFailure(t *testing.T) {
	boom := errors.New("bad markup")
	decoder := func(s string) (string, error) {
		if s == "C" {
			return "", boom
		}
		return s, nil
	}

	_, err := trivia.NewNormalizer(trivia.WithDecoder(decoder)).Normalize([]trivia.RawQuestion{multiple("Q", "A", "B", "C", "D")})
	require.ErrorIs(t, err, boom)
}

func TestNormalizeUsesInjectedDecoder(t *testing.T) {
	var decoded []string
	decoder := func(s string) (string, error) {
		decoded = append(decoded, s)
		return s + "!", nil
	}

	questions, err := trivia.NewNormalizer(trivia.WithDecoder(decoder)).Normalize([]trivia.RawQuestion{multiple("Q", "A", "B", "C", "D")})
	require.NoError(t, err)
	require.Equal(t, "Q!", questions[0].Text)
	require.Equal(t, "A!", questions[0].Correct)
	require.True(t, slices.Contains(questions[0].Answers, "D!"))
	require.Len(t, decoded, 6)
}
