// Package store defines the todo store contract and the pure helpers every
// backend shares.
//
// A Store owns its collection and id counter. Ids start at 1, advance once per
// successful Add and are never reused, even after Delete. Listing order is a
// property of List, not of the collection: priority ascending, then id
// ascending.
//
// Backends:
//   - memstore: map-backed, the default for `priotodo serve`
//   - sqlitestore: private in-memory SQLite database, same semantics
package store
