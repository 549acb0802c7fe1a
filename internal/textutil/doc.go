// Package textutil provides the string primitives behind runner deduplication:
// name normalization, natural-key tokens, and edit distance.
//
// NormalizeName folds case, strips accents and punctuation, and collapses
// whitespace so "José  O'Brien" and "jose obrien" compare equal. KeyToken is
// deliberately weaker: it only lower-cases and replaces non-alphanumerics, so
// natural keys collapse exact repeats and nothing more.
package textutil
