package model

import "time"

// Position is a single holding.
type Position struct {
	Symbol       string  `json:"symbol"`
	Quantity     int64   `json:"qty"`
	CurrentValue float64 `json:"current_value"`
}

// Portfolio is the operator's cash and holdings.
type Portfolio struct {
	Cash      float64    `json:"cash"`
	Positions []Position `json:"positions"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Position returns the holding for symbol, or a zero Position.
func (p *Portfolio) Position(symbol string) Position {
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			return pos
		}
	}
	return Position{Symbol: symbol}
}

// TotalValue is cash plus the value of all positions.
func (p *Portfolio) TotalValue() float64 {
	total := p.Cash
	for _, pos := range p.Positions {
		total += pos.CurrentValue
	}
	return total
}

// PersonalizedAction is a Recommendation sized against the portfolio.
type PersonalizedAction struct {
	Recommendation
	QtySuggested    int64   `json:"qty_suggested"`
	CashImpact      float64 `json:"cash_impact"`
	CurrentPosition int64   `json:"current_position"`
	CurrentValue    float64 `json:"current_value"`
}
