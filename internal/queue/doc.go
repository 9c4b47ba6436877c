// Package queue owns the in-memory document ingestion queue and the helpers
// for driving item lifecycle.
//
// The Store holds the ordered collection of items for the session and is the
// single source of truth: every mutation goes through its methods, each call
// is atomic, and listeners receive an immutable snapshot after each change.
// Items capture upload and processing progress, claim association, and retry
// counts so the scheduler and the CLI can coordinate without additional state.
//
// Queue state is deliberately transient; nothing here survives a daemon
// restart. Terminal outcomes that should outlive the session are journaled by
// the history package instead.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses, update the transition table in transitions.go.
package queue
