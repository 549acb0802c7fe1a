// Package preflight provides readiness checks for the filesystem paths the
// runner store depends on.
//
// The CLI "runnerdb doctor" command runs RunAll and prints each Result. The
// checks never create directories or take the store lock for longer than the
// probe itself, so they are safe to run while diagnosing a broken setup.
package preflight
