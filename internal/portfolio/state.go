package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"MoexSentinel/internal/model"
)

// LoadPortfolio reads the portfolio from a JSON file. A missing file yields an empty portfolio.
func LoadPortfolio(filePath string) (*model.Portfolio, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Portfolio{}, nil
		}
		return nil, fmt.Errorf("reading portfolio: %w", err)
	}
	var p model.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding portfolio %s: %w", filePath, err)
	}
	return &p, nil
}

// SavePortfolio writes the portfolio to a JSON file, creating the directory if needed.
func SavePortfolio(filePath string, p *model.Portfolio) error {
	p.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating portfolio dir: %w", err)
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
