// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// UUIDHiLo splits a UUID into the two big-endian signed halves the catalogue
// stores. The halves round-trip bit-exactly through int64 columns.
func UUIDHiLo(id uuid.UUID) (hi, lo int64) {
	hi = int64(binary.BigEndian.Uint64(id[0:8]))
	lo = int64(binary.BigEndian.Uint64(id[8:16]))
	return hi, lo
}

// UUIDFromHiLo rebuilds a UUID from its stored halves.
func UUIDFromHiLo(hi, lo int64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[0:8], uint64(hi))
	binary.BigEndian.PutUint64(id[8:16], uint64(lo))
	return id
}
