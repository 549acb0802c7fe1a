// Package main hosts the runnerdb CLI entrypoint and command graph.
//
// The Cobra command tree opens the runner store for the duration of a single
// command, hands it to the engine packages (similarity, merge, alias,
// importer), and renders the result as a table or, with --json, as indented
// JSON on stdout. Logs go to stderr and to the log directory so stdout stays
// machine-readable.
//
// Keep this package lean: add behavior to the internal packages first, then
// surface it through a command here.
package main
