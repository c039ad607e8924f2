package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

func preview(s string) *string { return &s }

func TestFindEmptyQueryReturnsInputUnchanged(t *testing.T) {
	items := []domain.Item{
		{ID: 1, PreviewText: preview("alpha")},
		{ID: 2, PreviewText: preview("beta")},
	}

	result := Find(items, "")
	require.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Equal(t, int64(2), result[1].ID)
}

func TestFindFiltersNonMatches(t *testing.T) {
	items := []domain.Item{
		{ID: 1, PreviewText: preview("hello world")},
		{ID: 2, PreviewText: preview("completely unrelated")},
	}

	result := Find(items, "hwrld")
	require.Len(t, result, 1)
	assert.Equal(t, int64(1), result[0].ID)
}

func TestFindIsCaseInsensitive(t *testing.T) {
	items := []domain.Item{{ID: 1, PreviewText: preview("Secret API Key")}}
	result := Find(items, "secret api")
	require.Len(t, result, 1)
}

func TestFindFallsBackToDataType(t *testing.T) {
	items := []domain.Item{{ID: 1, DataType: domain.DataTypeImage, PreviewText: nil}}
	result := Find(items, "imag")
	require.Len(t, result, 1)
	assert.Equal(t, domain.DataTypeImage, result[0].DataType)
}

func TestFindTiesBrokenByTimestampDescending(t *testing.T) {
	older := time.Unix(1000, 0)
	newer := time.Unix(2000, 0)
	items := []domain.Item{
		{ID: 1, PreviewText: preview("test"), Timestamp: older},
		{ID: 2, PreviewText: preview("test"), Timestamp: newer},
	}

	result := Find(items, "test")
	require.Len(t, result, 2)
	assert.Equal(t, int64(2), result[0].ID, "newer item should sort first on a score tie")
}

func TestFindCompletesQuicklyOnLargeDataset(t *testing.T) {
	items := make([]domain.Item, 1000)
	for i := range items {
		items[i] = domain.Item{
			ID:          int64(i),
			PreviewText: preview(fmt.Sprintf("clipboard entry number %d test payload", i)),
			Timestamp:   time.Unix(int64(i), 0),
		}
	}

	start := time.Now()
	result := Find(items, "test")
	elapsed := time.Since(start)

	assert.NotEmpty(t, result)
	assert.Less(t, elapsed, 50*time.Millisecond)
}
