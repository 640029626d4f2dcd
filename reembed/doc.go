// Package reembed re-submits stored documents to the embedding queue.
//
// It is used after the embedding model changes: every registered document is
// turned into a job carrying its chunks, and the worker pool recomputes the
// vectors. Cache entries are keyed by model, so a new model misses the cache
// while a re-run with the same model is served from it.
package reembed
