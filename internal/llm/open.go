package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/store"
)

// Open resolves s and builds its provider wrapped as
// timeout → retry → logging → vendor. events and logger may be nil.
func Open(ctx context.Context, s Settings, events store.EventRepo, logger *zap.Logger) (Provider, Settings, error) {
	s, err := s.Resolve()
	if err != nil {
		return nil, Settings{}, err
	}

	var base Provider
	switch s.Provider {
	case ProviderAnthropic:
		base, err = newAnthropic(s)
	case ProviderOpenAI, ProviderOpenRouter:
		base, err = newOpenAI(s)
	case ProviderGemini:
		base, err = newGemini(ctx, s)
	case ProviderFake:
		return NewFake(), s, nil
	}
	if err != nil {
		return nil, Settings{}, fmt.Errorf("init %s provider: %w", s.Provider, err)
	}

	p := WithLogging(base, s.Provider, events, logger)
	p = WithRetry(p, DefaultRetryPolicy(s.Attempts), logger)
	return WithTimeout(p, s.Timeout), s, nil
}
