// Package daemon wires the queue store, scheduler, notifications, and history
// journal into the long-running intaked process. It enforces single-instance
// execution with a file lock and exposes the operations the IPC layer serves.
package daemon
