// Package merge resolves duplicate candidates: it merges runners under the
// completeness survivor policy, records pairs the operator marked as distinct,
// and merges or renames clubs. Every operation runs inside one store
// transaction, so a failure leaves the store exactly as it was.
package merge
