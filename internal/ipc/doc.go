// Package ipc exposes daemon control via JSON-RPC over a Unix domain socket.
// The CLI is the only intended client; the wire types are value structs so
// the protocol stays stable even as internal models evolve.
package ipc
