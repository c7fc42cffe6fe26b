// Package history keeps a SQLite ledger of channelgrab runs.
//
// Each fetch, compress, or extract-audio invocation records one row when it
// starts and updates it when it finishes, so operators can see what was
// fetched before and which runs failed. The store follows the same open,
// pragma, and busy-retry conventions as the rest of the repository's SQLite
// code; the schema is versioned and a mismatch is reported rather than
// migrated.
package history
