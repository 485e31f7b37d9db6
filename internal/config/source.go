package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jbpratt/quiz/internal/trivia"
)

// NewSource builds the question source named by cfg. With session_token set
// an OpenTDB token is requested up front so a session does not see repeats.
func NewSource(ctx context.Context, logger *zap.SugaredLogger, cfg SourceConfig) (trivia.Source, error) {
	switch cfg.Kind {
	case SourceEmbedded:
		source, err := trivia.NewEmbeddedSource()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded questions: %w", err)
		}
		return source, nil
	case SourceOpenTDB:
		source := trivia.NewOpenTDBSource(logger,
			trivia.WithBaseURL(cfg.BaseURL),
			trivia.WithTimeout(cfg.Timeout),
		)
		if cfg.SessionToken {
			if err := source.RequestToken(ctx); err != nil {
				return nil, fmt.Errorf("failed to request session token: %w", err)
			}
		}
		return source, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
