// Package runnerdb persists runner and club identities in SQLite and exposes
// the read and mutation primitives the cleanup tooling builds on.
//
// The Store loads every table into an in-memory index at Open and serves all
// reads from it. Mutations update the index first and record the touched keys
// as pending; Save flushes every pending key in a single SQLite transaction.
// Callers choose the flush boundary: a Deferred upsert stays in memory until
// the next Save, which lets bulk imports commit once per batch.
//
// Multi-step operations go through Update, which records an undo entry for
// every index change and replays them when the callback or the flush fails,
// so a merge is either fully visible or not visible at all.
//
// Referential integrity is enforced here rather than by callers: a runner's
// ClubID must name an existing club, club names are unique, and aliases always
// point at a live club.
package runnerdb
