// Package logging builds the slog loggers used across intake. It provides a
// human-oriented console handler for interactive use, a JSON handler for
// machine consumption, shared attribute helpers, and a sampler that keeps
// upload progress logs readable.
package logging
