// Package store provides SQLite-based persistence for the todo service.
//
// The store manages three domain entities:
//
//   - Users: identities with exactly one live bearer token each
//   - Lists: named, optionally shared containers owned by a user
//   - Items: entries of a list with a dense priority ordering
//
// Every list and item query is scoped by the calling user's id. The caller
// supplies criteria (see [ItemQuery]); the store appends the ownership
// predicate and the two are always ANDed. Rows outside the caller's scope are
// reported as [ErrNotFound], never as forbidden, so their existence does not
// leak.
//
// # Priorities
//
// The unfinished items of a list carry priorities 1..N with no duplicates and
// no gaps; higher values sort first. Creating, moving, finishing, reopening or
// deleting an item renumbers the rest of the list inside one transaction,
// writing only the rows whose priority actually changes.
//
// # Usage
//
//	db, err := store.Open("todo.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Thread Safety
//
// The store is safe for concurrent use. SQLite WAL mode lets readers proceed
// while a writer holds the lock; busy_timeout absorbs short write contention.
package store
