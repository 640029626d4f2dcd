package badger

import (
	"encoding/binary"

	"github.com/poiesic/ragvec/core"
)

// Key prefixes for different data types. Every prefix ends in ':' so no
// prefix is a prefix of another.
const (
	chunkPrefix        = "chk:"
	chunkDocPrefix     = "chkd:"
	chunkIDSeq         = "seq:chunk"
	embeddingPrefix    = "emb:"
	embeddingDocPrefix = "embd:"
	cachePrefix        = "cache:"
	jobPrefix          = "job:"
	jobDocPrefix       = "jobd:"
	jobDuePrefix       = "jobq:"
	statusPrefix       = "stat:"
	dimensionKey       = "meta:dim"
)

// appendUint64 writes v in BigEndian order so lexicographic sort matches numeric sort.
func appendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return appendUint64([]byte(chunkPrefix), uint64(id))
}

// makeChunkDocPrefix generates the index prefix for a document's chunks.
// Format: prefix:documentID:
func makeChunkDocPrefix(documentID string) []byte {
	return []byte(chunkDocPrefix + documentID + ":")
}

// makeChunkDocKey generates the index key for a chunk position.
// Format: prefix:documentID:index -> chunk ID
func makeChunkDocKey(documentID string, index int) []byte {
	return appendUint64(makeChunkDocPrefix(documentID), uint64(index))
}

// documentFromChunkDocKey extracts the document ID from a chunk index key.
func documentFromChunkDocKey(key []byte) string {
	// prefix + documentID + ':' + 8 byte index
	end := len(key) - 9
	if end <= len(chunkDocPrefix) {
		return ""
	}
	return string(key[len(chunkDocPrefix):end])
}

// makeEmbeddingKey generates a key for a chunk's embedding.
func makeEmbeddingKey(chunkID core.ID) []byte {
	return appendUint64([]byte(embeddingPrefix), uint64(chunkID))
}

// makeEmbeddingDocPrefix generates the index prefix for a document's embeddings.
func makeEmbeddingDocPrefix(documentID string) []byte {
	return []byte(embeddingDocPrefix + documentID + ":")
}

// makeEmbeddingDocKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeEmbeddingDocKey(documentID string, chunkID core.ID) []byte {
	return appendUint64(makeEmbeddingDocPrefix(documentID), uint64(chunkID))
}

// chunkIDFromSuffix reads the trailing 8 byte ID of an index key.
func chunkIDFromSuffix(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeCacheKey generates a key for a cache entry.
// Format: prefix:hash:model. Hashes are fixed-length hex so the split is unambiguous.
func makeCacheKey(model, hash string) []byte {
	return []byte(cachePrefix + hash + ":" + model)
}

// makeJobKey generates a key for a job by ID.
func makeJobKey(id string) []byte {
	return []byte(jobPrefix + id)
}

// makeJobDocPrefix generates the index prefix for a document's jobs.
func makeJobDocPrefix(documentID string) []byte {
	return []byte(jobDocPrefix + documentID + ":")
}

// makeJobDocKey generates a composite key for the job document index.
// Format: prefix:documentID:jobID
func makeJobDocKey(documentID, jobID string) []byte {
	return []byte(jobDocPrefix + documentID + ":" + jobID)
}

// makeJobDueKey generates the due-queue key of a queued job.
// Format: prefix:nextAttemptAt(unix nanos):jobID, so key order is due order.
func makeJobDueKey(job *core.EmbeddingJob) []byte {
	var due uint64
	if !job.NextAttemptAt.IsZero() {
		due = uint64(max(job.NextAttemptAt.UnixNano(), 0))
	}
	key := appendUint64([]byte(jobDuePrefix), due)
	return append(append(key, ':'), job.Id...)
}

// jobIDFromDueKey extracts the job ID from a due-queue key.
func jobIDFromDueKey(key []byte) string {
	// prefix + 8 byte due time + ':'
	start := len(jobDuePrefix) + 9
	if len(key) <= start {
		return ""
	}
	return string(key[start:])
}

// makeStatusKey generates a key for a document status.
func makeStatusKey(documentID string) []byte {
	return []byte(statusPrefix + documentID)
}
