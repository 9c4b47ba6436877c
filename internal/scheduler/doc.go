// Package scheduler drives queue items through the pipeline. It admits
// pending items in FIFO order under a concurrency bound, runs the
// upload/classify/process stages for each, and records outcomes back on the
// queue store. Failures never stop the scheduler; they land on the item and
// wait for a manual retry.
package scheduler
