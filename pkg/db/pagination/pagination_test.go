package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	token, err := EncodeCursor(Cursor{ID: 42, CreatedAt: at})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cursor.ID)
	assert.True(t, at.Equal(cursor.CreatedAt))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!not-a-token")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []int64{5, 4, 3}
	page, info, err := BuildCursorPageInfo(rows, 2, func(v int64) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, page)
	assert.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID)

	page, info, err = BuildCursorPageInfo(rows, 3, func(v int64) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
}

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
}
