// Package sqlkit is a database abstraction and batched-access layer
// over database/sql.
//
// It resolves a connection descriptor (see package dburl) into a live
// connection pool, guarantees schema presence, hands out
// transactionally-scoped sessions, streams large result sets in
// fixed-size windows, and maps persisted records to and from
// structured serialization messages.
//
// # Lifecycle
//
// A Database is constructed from a descriptor and a schema definition.
// Absent databases are created unless MustExist is set; absent tables
// are created; existing tables are never altered. Work happens inside
// scoped sessions:
//
//	db, err := sqlkit.Open(ctx, "sqlite:////data/corpus.db", sch)
//	...
//	err = db.Session(ctx, func(s *sqlkit.Session) error {
//		_, err := s.GetOrCreate(ctx, samples,
//			sqlkit.Fields{"sha256": digest},
//			sqlkit.Fields{"contents": text})
//		return err
//	}, sqlkit.CommitOnSuccess())
//
// The session's connection returns to the pool on every exit path. On
// error or panic the transaction rolls back before propagation; no
// partial-commit state is ever observable.
//
// # Concurrency
//
// The layer is a passive library: it starts no goroutines and holds no
// global state. Concurrent sessions from the same Database run in
// parallel up to the pool's capacity. A single Session must not be
// shared across goroutines. Get-or-create and database
// creation-on-absence are not protected against check-then-act races
// across processes; callers needing uniqueness must declare a unique
// constraint in the schema.
package sqlkit
