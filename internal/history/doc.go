// Package history keeps a durable journal of finished ingests. The live queue
// is session-scoped and in memory; the journal is where adjusters look up
// what happened to a document after the session is gone.
package history
