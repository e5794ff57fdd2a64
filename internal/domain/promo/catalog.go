package promo

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.yaml.in/yaml/v3"
)

// catalogFile is the on-disk YAML layout:
//
//	promo_codes:
//	  - code: SAVE10
//	    type: percentage
//	    value: "10"
//	    min_subtotal: "20.00"
//	    expires_at: 2027-01-01T00:00:00Z
type catalogFile struct {
	PromoCodes []catalogEntry `yaml:"promo_codes"`
}

type catalogEntry struct {
	Code        string `yaml:"code"`
	Type        string `yaml:"type"`
	Value       string `yaml:"value"`
	MinSubtotal string `yaml:"min_subtotal"`
	ExpiresAt   string `yaml:"expires_at"`
	Description string `yaml:"description"`
}

// LoadCatalog reads and validates a promo catalog file.
func LoadCatalog(path string) ([]*Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading promo catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]*Code, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing promo catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.PromoCodes))
	codes := make([]*Code, 0, len(file.PromoCodes))
	for i, entry := range file.PromoCodes {
		code, err := entry.toCode()
		if err != nil {
			return nil, fmt.Errorf("promo catalog entry %d: %w", i, err)
		}
		if seen[code.Code] {
			return nil, fmt.Errorf("promo catalog entry %d: %w: duplicate code %s", i, ErrInvalidCode, code.Code)
		}
		seen[code.Code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

func (e catalogEntry) toCode() (*Code, error) {
	code := &Code{
		Code:        Normalize(e.Code),
		Type:        DiscountType(e.Type),
		Description: e.Description,
		MinSubtotal: decimal.Zero,
	}

	value, err := decimal.NewFromString(e.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: value %q", ErrInvalidCode, code.Code, e.Value)
	}
	code.Value = value

	if e.MinSubtotal != "" {
		minSubtotal, err := decimal.NewFromString(e.MinSubtotal)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: min_subtotal %q", ErrInvalidCode, code.Code, e.MinSubtotal)
		}
		code.MinSubtotal = minSubtotal
	}

	if e.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, e.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: expires_at %q", ErrInvalidCode, code.Code, e.ExpiresAt)
		}
		code.ExpiresAt = expiresAt.UTC()
	}

	if err := code.Validate(); err != nil {
		return nil, err
	}
	return code, nil
}
