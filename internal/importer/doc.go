// Package importer bulk-loads pre-parsed runner rows into the store.
//
// Each row is keyed by NaturalKey, so a repeated (last name, first name,
// birth year) collapses onto the existing runner instead of creating a new
// one. Rows are upserted with runnerdb.Deferred and the batch is flushed with
// a single Save once the loop ends. Near-duplicates (nicknames, typos, missing
// birth years) are expected to survive import and are left for the duplicate
// scan.
package importer
