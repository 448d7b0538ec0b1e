package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a single catalog entry as served by the products backend.
type Product struct {
	ID           string
	Name         string
	Image        string
	Price        decimal.Decimal
	Date         time.Time
	RawDate      string
	Color        string
	Sizes        []string
	Installments Installments
}

// Installments is the "parcelamento" pair: number of installments and the amount of each.
type Installments struct {
	Count  int
	Amount decimal.Decimal
}

// Total returns Count x Amount.
func (i Installments) Total() decimal.Decimal {
	return i.Amount.Mul(decimal.NewFromInt(int64(i.Count)))
}

// HasSize reports whether size is part of the product's size set.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

type productPayload struct {
	ID           json.RawMessage `json:"id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	Date         string          `json:"date"`
	Color        string          `json:"color"`
	Size         []string        `json:"size"`
	Parcelamento []json.Number   `json:"parcelamento"`
}

// UnmarshalJSON decodes the backend payload. parcelamento arrives as a
// two-element array [count, amount].
func (p *Product) UnmarshalJSON(b []byte) error {
	var raw productPayload
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Product{
		ID:      decodeID(raw.ID),
		Name:    strings.TrimSpace(raw.Name),
		Image:   strings.TrimSpace(raw.Image),
		Price:   raw.Price,
		RawDate: strings.TrimSpace(raw.Date),
		Date:    ParseDate(raw.Date),
		Color:   strings.TrimSpace(raw.Color),
		Sizes:   raw.Size,
	}
	if len(raw.Parcelamento) > 0 {
		count, err := raw.Parcelamento[0].Int64()
		if err != nil {
			return fmt.Errorf("catalog: parcelamento count %q: %w", raw.Parcelamento[0], err)
		}
		out.Installments.Count = int(count)
	}
	if len(raw.Parcelamento) > 1 {
		amount, err := decimal.NewFromString(raw.Parcelamento[1].String())
		if err != nil {
			return fmt.Errorf("catalog: parcelamento amount %q: %w", raw.Parcelamento[1], err)
		}
		out.Installments.Amount = amount
	}
	*p = out
	return nil
}

// MarshalJSON writes the product back in the backend shape.
func (p Product) MarshalJSON() ([]byte, error) {
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	return json.Marshal(struct {
		ID           string          `json:"id,omitempty"`
		Name         string          `json:"name"`
		Image        string          `json:"image"`
		Price        decimal.Decimal `json:"price"`
		Date         string          `json:"date"`
		Color        string          `json:"color"`
		Size         []string        `json:"size"`
		Parcelamento []any           `json:"parcelamento"`
	}{
		ID:           p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Price:        p.Price,
		Date:         p.RawDate,
		Color:        p.Color,
		Size:         sizes,
		Parcelamento: []any{p.Installments.Count, p.Installments.Amount},
	})
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// ParseDate accepts the ISO-8601 shapes the backend emits. Unparseable input yields the zero time.
func ParseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DecodeProducts parses a JSON array of products and assigns positional ids
// to entries the backend left unnamed.
func DecodeProducts(b []byte) ([]Product, error) {
	var list []Product
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = fmt.Sprintf("p-%d", i+1)
		}
	}
	return list, nil
}
