package sqlkit

import (
	"context"
	"fmt"
)

// Batch is one fixed-size window of a larger result set.
type Batch struct {
	// Num is the 1-based batch number.
	Num int

	// Offset is the window's offset into the full result set.
	Offset int64

	// Limit is Offset plus the window size.
	Limit int64

	// TotalRows is the full result count, or -1 when ComputeTotal was
	// not requested.
	TotalRows int64

	// Rows are the window's records.
	Rows []Fields
}

// BatchOptions parameterizes a batched query.
type BatchOptions struct {
	// Size is the maximum rows per batch. Required, > 0.
	Size int

	// StartAt is the initial offset into the result set.
	StartAt int64

	// ComputeTotal runs one COUNT query up front and records the
	// result in every emitted batch.
	ComputeTotal bool
}

// Batches is a lazy, finite, non-restartable sequence of fixed-size
// row windows over one query. Consume it like sql.Rows:
//
//	it := s.Batches(ctx, "SELECT * FROM samples ORDER BY id", nil,
//		sqlkit.BatchOptions{Size: 1000})
//	for it.Next() {
//		process(it.Batch())
//	}
//	if err := it.Err(); err != nil { ... }
//
// At most Size rows are materialized at a time regardless of table
// size. The iterator is bound to its Session and must be consumed by
// a single goroutine within the Session's scope.
type Batches struct {
	ctx     context.Context
	session *Session
	query   string
	args    []any
	opts    BatchOptions

	offset  int64
	num     int
	total   int64
	counted bool
	cur     Batch
	done    bool
	err     error
}

// Batches wraps query in an offset-limit batched iterator. The query
// must be a plain SELECT without LIMIT or OFFSET clauses; ordering is
// the caller's responsibility (add ORDER BY for a stable window
// sequence).
//
// Each iteration runs the query with LIMIT Size OFFSET i, starting at
// StartAt and advancing by the number of rows actually returned, so a
// short final batch terminates naturally. Iteration stops, without
// emitting, on the first empty result.
func (s *Session) Batches(ctx context.Context, query string, args []any, opts BatchOptions) *Batches {
	it := &Batches{
		ctx:     ctx,
		session: s,
		query:   query,
		args:    args,
		opts:    opts,
		offset:  opts.StartAt,
		total:   -1,
	}
	if opts.Size <= 0 {
		it.err = &ConfigurationError{Reason: "batch size must be positive"}
	} else if opts.StartAt < 0 {
		it.err = &ConfigurationError{Reason: "batch start offset must not be negative"}
	}
	return it
}

// Next advances to the next non-empty batch. It returns false when
// the query is exhausted or an error occurred; check Err afterward.
func (it *Batches) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	if it.opts.ComputeTotal && !it.counted {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS batch_total", it.query)
		if err := it.session.QueryRowContext(it.ctx, countQuery, it.args...).Scan(&it.total); err != nil {
			it.err = fmt.Errorf("count batched query: %w", err)
			return false
		}
		it.counted = true
	}

	windowed := fmt.Sprintf("%s LIMIT %d OFFSET %d", it.query, it.opts.Size, it.offset)
	rows, err := it.session.QueryContext(it.ctx, windowed, it.args...)
	if err != nil {
		it.err = fmt.Errorf("batched query at offset %d: %w", it.offset, err)
		return false
	}
	records, err := scanFields(rows)
	rows.Close()
	if err != nil {
		it.err = fmt.Errorf("batched query at offset %d: %w", it.offset, err)
		return false
	}

	if len(records) == 0 {
		it.done = true
		return false
	}

	it.num++
	it.cur = Batch{
		Num:       it.num,
		Offset:    it.offset,
		Limit:     it.offset + int64(it.opts.Size),
		TotalRows: it.total,
		Rows:      records,
	}
	it.offset += int64(len(records))
	return true
}

// Batch returns the current batch. Valid only after a true Next.
func (it *Batches) Batch() Batch {
	return it.cur
}

// Err returns the first error encountered during iteration, if any.
func (it *Batches) Err() error {
	return it.err
}
