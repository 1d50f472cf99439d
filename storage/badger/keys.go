package badger

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/poiesic/retrievit/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentFlagPrefix = "docflag"
	chunkPrefix        = "churec"
	chunkDocPrefix     = "churecd"
	chunkSeqPrefix     = "churecs"
	chunkSeqName       = "churecseq"
	calibrationPrefix  = "calrec"
	calibrationSeqName = "calrecseq"
	snapshotPrefix     = "idxsnap"
	snapshotCurrentKey = "idxsnapcur"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentFlagKey generates a key for a document's extraction flag.
func makeDocumentFlagKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentFlagPrefix, id))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocKey(documentID, chunkID core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort groups by document
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkDocKey generates a prefix key for scanning one document's chunks.
func makePartialChunkDocKey(documentID core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeChunkSeqKey generates a composite key for the insertion-order index.
// Format: prefix:seq:chunkID
func makeChunkSeqKey(seq uint64, chunkID core.ID) []byte {
	prefix := chunkSeqPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// BigEndian so lexicographic iteration follows insertion order
	binary.BigEndian.PutUint64(buf[offset:], seq)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makeCalibrationKey generates a composite key for a calibration record.
// Format: prefix:recordedAt:id
func makeCalibrationKey(recordedAt time.Time, id core.ID) []byte {
	prefix := calibrationPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// BigEndian so lexicographic iteration follows recording time
	binary.BigEndian.PutUint64(buf[offset:], uint64(recordedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialCalibrationKey generates a partial key for time range scans.
func makePartialCalibrationKey(recordedAt time.Time) []byte {
	prefix := calibrationPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(recordedAt.UnixMicro()))
	return buf
}

// makeSnapshotKey generates a key for a snapshot payload by version.
func makeSnapshotKey(version uint64) []byte {
	prefix := snapshotPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], version)
	return buf
}

// parseKeyID extracts the decimal ID suffix from a "prefix:id" key.
func parseKeyID(key, prefix []byte) (core.ID, error) {
	raw := string(key[len(prefix):])
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return core.ID(id), nil
}
