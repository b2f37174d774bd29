package embed

import (
	"encoding/binary"
	"hash/fnv"
)

// hashTokenIDs derives a stable cache key from a token id sequence, used to
// serve repeat embed_tokens calls (idempotent re-ingest, a repeated query
// string) without re-running inference.
func hashTokenIDs(tokenIDs []int) string {
	h := fnv.New128a()
	buf := make([]byte, 8)
	for _, id := range tokenIDs {
		binary.LittleEndian.PutUint64(buf, uint64(id))
		h.Write(buf)
	}
	return string(h.Sum(nil))
}
