// Package main hosts the channelgrab CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, applies flag overrides,
// and hands the work to the internal packages: search and fetch drive the
// acquisition pipeline, compress and extract-audio wrap ffmpeg, history reads
// the run ledger, and check reports environment readiness.
//
// Command results go to stdout; logs go to stderr and the log file so the
// output stays scriptable.
package main
