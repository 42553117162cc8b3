package sqlkit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlkit/internal/testutil"
)

// seedSamples commits n rows named sample_000 .. sample_n-1.
func seedSamples(t *testing.T, db *Database, n int) {
	t.Helper()
	ctx := context.Background()
	err := db.Session(ctx, func(s *Session) error {
		for i := 0; i < n; i++ {
			err := s.Insert(ctx, testutil.Samples(), Fields{
				"name":     fmt.Sprintf("sample_%03d", i),
				"contents": fmt.Sprintf("body %d", i),
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, CommitOnSuccess())
	require.NoError(t, err)
}

const orderedSamples = `SELECT "id", "name" FROM "samples" ORDER BY "id"`

func TestBatches_WindowsCoverFullResultInOrder(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	seedSamples(t, db, 10)

	err := db.Session(ctx, func(s *Session) error {
		it := s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 3})

		var sizes []int
		var names []string
		for it.Next() {
			b := it.Batch()
			sizes = append(sizes, len(b.Rows))
			for _, row := range b.Rows {
				names = append(names, row["name"].(string))
			}
			// No total was requested.
			assert.EqualValues(t, -1, b.TotalRows)
		}
		require.NoError(t, it.Err())

		// ceil(10/3) = 4 batches: 3, 3, 3, 1.
		assert.Equal(t, []int{3, 3, 3, 1}, sizes)

		// Concatenation equals the unbatched result in the same order.
		var want []string
		for i := 0; i < 10; i++ {
			want = append(want, fmt.Sprintf("sample_%03d", i))
		}
		assert.Equal(t, want, names)
		return nil
	})
	require.NoError(t, err)
}

func TestBatches_OffsetAndLimitMetadata(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	seedSamples(t, db, 7)

	err := db.Session(ctx, func(s *Session) error {
		it := s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 3})

		var batches []Batch
		for it.Next() {
			batches = append(batches, it.Batch())
		}
		require.NoError(t, it.Err())
		require.Len(t, batches, 3)

		// Offsets advance by rows returned, not by batch size.
		assert.EqualValues(t, 0, batches[0].Offset)
		assert.EqualValues(t, 3, batches[1].Offset)
		assert.EqualValues(t, 6, batches[2].Offset)
		assert.Equal(t, 1, batches[0].Num)
		assert.Equal(t, 3, batches[2].Num)
		assert.EqualValues(t, batches[1].Offset+3, batches[1].Limit)
		assert.Len(t, batches[2].Rows, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestBatches_ComputeTotal(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	seedSamples(t, db, 5)

	err := db.Session(ctx, func(s *Session) error {
		it := s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 2, ComputeTotal: true})
		for it.Next() {
			assert.EqualValues(t, 5, it.Batch().TotalRows)
		}
		return it.Err()
	})
	require.NoError(t, err)
}

func TestBatches_StartAt(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	seedSamples(t, db, 6)

	err := db.Session(ctx, func(s *Session) error {
		it := s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 10, StartAt: 4})
		require.True(t, it.Next())
		b := it.Batch()
		assert.EqualValues(t, 4, b.Offset)
		assert.Len(t, b.Rows, 2)
		assert.Equal(t, "sample_004", b.Rows[0]["name"])
		assert.False(t, it.Next())
		return it.Err()
	})
	require.NoError(t, err)
}

func TestBatches_EmptyResultEmitsNothing(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	err := db.Session(ctx, func(s *Session) error {
		it := s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 3})
		assert.False(t, it.Next())
		return it.Err()
	})
	require.NoError(t, err)
}

func TestBatches_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	err := db.Session(ctx, func(s *Session) error {
		it := s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 0})
		assert.False(t, it.Next())
		assert.True(t, IsConfiguration(it.Err()))

		it = s.Batches(ctx, orderedSamples, nil, BatchOptions{Size: 1, StartAt: -1})
		assert.False(t, it.Next())
		assert.True(t, IsConfiguration(it.Err()))
		return nil
	})
	require.NoError(t, err)
}

func TestBatches_QueryArguments(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	seedSamples(t, db, 6)

	err := db.Session(ctx, func(s *Session) error {
		query := `SELECT "name" FROM "samples" WHERE "name" > ? ORDER BY "name"`
		it := s.Batches(ctx, query, []any{"sample_002"}, BatchOptions{Size: 2, ComputeTotal: true})

		var names []string
		for it.Next() {
			assert.EqualValues(t, 3, it.Batch().TotalRows)
			for _, row := range it.Batch().Rows {
				names = append(names, row["name"].(string))
			}
		}
		require.NoError(t, it.Err())
		assert.Equal(t, []string{"sample_003", "sample_004", "sample_005"}, names)
		return nil
	})
	require.NoError(t, err)
}
