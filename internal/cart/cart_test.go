package cart

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestAddAppendsLines(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	lines, first, err := Add(nil, "p-1", now)
	require.NoError(t, err)
	lines, second, err := Add(lines, "p-1", now.Add(time.Second))
	require.NoError(t, err)
	lines, _, err = Add(lines, "p-2", now.Add(2*time.Second))
	require.NoError(t, err)

	require.Equal(t, 3, Count(lines))
	require.NotEqual(t, first.ID, second.ID)
	_, err = ulid.ParseStrict(first.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"p-1": 2, "p-2": 1}, Quantities(lines))
}

func TestAddRejectsEmptyAndFull(t *testing.T) {
	_, _, err := Add(nil, "  ", time.Now())
	require.ErrorIs(t, err, ErrMissingProduct)

	lines := make([]Line, MaxLines)
	out, _, err := Add(lines, "p-1", time.Now())
	require.ErrorIs(t, err, ErrFull)
	require.Len(t, out, MaxLines)
}
