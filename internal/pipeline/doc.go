// Package pipeline runs the acquisition workflow for a single account:
// search, select, download, metadata, keystream, deobfuscate and an optional
// size-targeted compress.
//
// Fetcher composes the collaborators behind small interfaces so tests can
// substitute fakes for the catalog, downloader, keystream service and
// transcoder. Every run holds an advisory lock on the output directory,
// carries a run id in its context and, when a history recorder is supplied,
// leaves a row in the run ledger.
package pipeline
