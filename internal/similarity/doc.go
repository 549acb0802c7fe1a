// Package similarity scores runner records and club names for probable
// duplicates.
//
// The engine never touches storage. FindDuplicates takes a slice of runners
// and a suppression predicate; FindClubMisspellings takes a slice of clubs.
// Runner scores combine a normalized-name edit similarity (0-100) with fixed
// bonuses for a shared birth year and a shared club, capped at 100. Large
// inputs are blocked on the last-name initial and the birth year so only
// runners sharing one of those keys are compared.
package similarity
