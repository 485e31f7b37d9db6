package trivia

import (
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/net/html"
)

// Decoder turns escaped source text into plain text.
type Decoder func(string) (string, error)

// DecodeHTML returns the text content of s as an HTML fragment: entity
// references such as &amp; and &#039; are resolved and markup tags dropped.
func DecodeHTML(s string) (string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}

// Shuffler permutes n elements in place. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// Normalizer converts raw questions into presentable ones.
type Normalizer struct {
	decode Decoder
	rng    Shuffler
}

type NormalizerOption func(*Normalizer)

func WithDecoder(d Decoder) NormalizerOption {
	return func(n *Normalizer) { n.decode = d }
}

func WithShuffler(s Shuffler) NormalizerOption {
	return func(n *Normalizer) { n.rng = s }
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		decode: DecodeHTML,
		rng:    globalShuffler{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes and shuffles every question in raw, preserving order.
// A single bad question fails the whole batch.
func (n *Normalizer) Normalize(raw []RawQuestion) ([]*Question, error) {
	out := make([]*Question, 0, len(raw))
	for i, r := range raw {
		q, err := n.question(r)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (n *Normalizer) question(r RawQuestion) (*Question, error) {
	if err := checkShape(r); err != nil {
		return nil, err
	}

	var err error
	q := &Question{Type: r.Type, Difficulty: r.Difficulty}
	if q.Category, err = n.decodeField("category", r.Category); err != nil {
		return nil, err
	}
	if q.Text, err = n.decodeField("question", r.Question); err != nil {
		return nil, err
	}
	if q.Correct, err = n.decodeField("correct answer", r.CorrectAnswer); err != nil {
		return nil, err
	}

	q.Answers = make([]string, 0, 1+len(r.IncorrectAnswers))
	q.Answers = append(q.Answers, q.Correct)
	for _, raw := range r.IncorrectAnswers {
		value, err := n.decodeField("incorrect answer", raw)
		if err != nil {
			return nil, err
		}
		if value == q.Correct {
			return nil, fmt.Errorf("incorrect answer %q duplicates the correct answer", value)
		}
		q.Answers = append(q.Answers, value)
	}

	// without this the correct answer would always come first
	n.rng.Shuffle(len(q.Answers), func(i, j int) {
		q.Answers[i], q.Answers[j] = q.Answers[j], q.Answers[i]
	})

	return q, nil
}

func (n *Normalizer) decodeField(name, value string) (string, error) {
	decoded, err := n.decode(value)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s %q: %w", name, value, err)
	}
	return decoded, nil
}

func checkShape(r RawQuestion) error {
	if r.Question == "" {
		return fmt.Errorf("missing question text")
	}
	if r.CorrectAnswer == "" {
		return fmt.Errorf("missing correct answer")
	}
	if r.Category == "" {
		return fmt.Errorf("missing category")
	}
	switch r.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	case "":
		return fmt.Errorf("missing difficulty")
	default:
		return fmt.Errorf("unknown difficulty %q", r.Difficulty)
	}

	want := 0
	switch r.Type {
	case TypeMultiple:
		want = 3
	case TypeBoolean:
		want = 1
	default:
		return fmt.Errorf("unknown question type %q", r.Type)
	}

	if len(r.IncorrectAnswers) != want {
		return fmt.Errorf("%s question has %d incorrect answers, expected %d", r.Type, len(r.IncorrectAnswers), want)
	}
	for i, answer := range r.IncorrectAnswers {
		if answer == "" {
			return fmt.Errorf("incorrect answer %d is empty", i)
		}
	}
	return nil
}
