package trivia

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

//go:embed json/questions.json
var embeddedQuestionsJSON []byte

type embeddedCategory struct {
	ID      int           `json:"category_id"`
	Results []RawQuestion `json:"results"`
}

// EmbeddedSource serves questions from a bank compiled into the binary. The
// questions keep their escaped form so they go through the same normalization
// as questions from the API.
type EmbeddedSource struct {
	mu         sync.Mutex
	rng        *rand.Rand
	categories []embeddedCategory
}

func NewEmbeddedSource() (*EmbeddedSource, error) {
	return NewEmbeddedSourceFromJSON(embeddedQuestionsJSON, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewEmbeddedSourceFromJSON builds a source from a bank in the embedded
// format: a list of {"category_id", "results"} objects.
func NewEmbeddedSourceFromJSON(data []byte, rng *rand.Rand) (*EmbeddedSource, error) {
	var categories []embeddedCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question bank: %w", err)
	}
	return &EmbeddedSource{rng: rng, categories: categories}, nil
}

// Fetch samples up to req.Count questions from the requested category, or
// from every category when req.Category is zero.
func (s *EmbeddedSource) Fetch(ctx context.Context, req Request) ([]RawQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Count <= 0 {
		return nil, &ProtocolError{Code: 2, Reason: fmt.Sprintf("invalid question count %d", req.Count)}
	}

	var pool []RawQuestion
	for _, c := range s.categories {
		if req.Category == 0 || c.ID == req.Category {
			pool = append(pool, c.Results...)
		}
	}

	if len(pool) == 0 {
		return nil, &ProtocolError{Code: 1, Reason: openTDBResponseCodes[1]}
	}

	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	n := min(req.Count, len(pool))
	out := make([]RawQuestion, n)
	copy(out, pool[:n])
	return out, nil
}
