// Command intake is the CLI front end for the intaked ingest daemon. It
// talks to the daemon over its unix socket and never touches the queue
// directly.
package main
