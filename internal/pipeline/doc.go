// Package pipeline talks to the remote claims pipeline API: document upload,
// server-side classification, and processing status. Errors are tagged with
// sentinel markers so callers can tell transfer problems from classification
// or processing failures without string matching.
package pipeline
