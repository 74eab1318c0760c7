package portfolio

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"MoexSentinel/internal/model"
)

// Store guards the on-disk portfolio snapshot.
type Store struct {
	mu        sync.Mutex
	portfolio *model.Portfolio
	filePath  string
	log       zerolog.Logger
}

// NewStore loads the portfolio at filePath, or starts empty if there is none.
func NewStore(filePath string, log zerolog.Logger) (*Store, error) {
	p, err := LoadPortfolio(filePath)
	if err != nil {
		return nil, err
	}
	return &Store{portfolio: p, filePath: filePath, log: log}, nil
}

// Snapshot returns a deep copy of the current portfolio.
func (s *Store) Snapshot() model.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.portfolio
	cp.Positions = append([]model.Position(nil), s.portfolio.Positions...)
	return cp
}

// MarkToMarket revalues every position with a known price and persists the result.
// Positions without a price keep their last value.
func (s *Store) MarkToMarket(prices map[string]float64) model.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.portfolio.Positions {
		pos := &s.portfolio.Positions[i]
		price, ok := prices[pos.Symbol]
		if !ok || price <= 0 {
			continue
		}
		pos.CurrentValue = decimal.NewFromInt(pos.Quantity).Mul(decimal.NewFromFloat(price)).Round(2).InexactFloat64()
		changed = true
	}
	if changed {
		if err := SavePortfolio(s.filePath, s.portfolio); err != nil {
			s.log.Error().Err(err).Str("path", s.filePath).Msg("failed to save portfolio")
		}
	}

	cp := *s.portfolio
	cp.Positions = append([]model.Position(nil), s.portfolio.Positions...)
	return cp
}
