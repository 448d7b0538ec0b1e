package cart

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// MaxLines caps the lines kept in the session cookie.
const MaxLines = 20

var (
	// ErrMissingProduct is returned when the buy action carries no product id.
	ErrMissingProduct = errors.New("cart: missing product id")
	// ErrFull is returned once MaxLines is reached.
	ErrFull = errors.New("cart: cart is full")
)

// Line is one "comprar" click.
type Line struct {
	ID        string    `json:"id"`
	ProductID string    `json:"pid"`
	AddedAt   time.Time `json:"at"`
}

// Add appends a line for productID and returns the new slice.
func Add(lines []Line, productID string, now time.Time) ([]Line, Line, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return lines, Line{}, ErrMissingProduct
	}
	if len(lines) >= MaxLines {
		return lines, Line{}, ErrFull
	}
	line := Line{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		ProductID: productID,
		AddedAt:   now.UTC(),
	}
	return append(lines, line), line, nil
}

// Count returns the badge number shown in the header.
func Count(lines []Line) int {
	return len(lines)
}

// Quantities groups lines by product id.
func Quantities(lines []Line) map[string]int {
	out := make(map[string]int, len(lines))
	for _, l := range lines {
		out[l.ProductID]++
	}
	return out
}
