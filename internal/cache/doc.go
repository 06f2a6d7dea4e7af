// Package cache keeps expensive model state between runs: constructed model
// handles within a process, and extracted tone-color embeddings on disk
// across processes.
package cache
