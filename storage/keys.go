package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Key layout, all big-endian:
//
//	run record  Prefix+"R"+revid           -> RunRecord JSON
//	group       Prefix+"G"+revid+groupid16 -> GroupRecord JSON
//	frame       Prefix+"F"+revid+index16   -> raw frame bytes
//
// revid is MaxUint64 minus the run id so iteration yields newest first.

func revID(id uint64) uint64 { return math.MaxUint64 - id }

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func u16tob(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// RunKey returns the key of the run record for id.
func RunKey(id uint64) []byte {
	k := make([]byte, 0, len(Prefix)+1+8)
	k = append(k, Prefix+"R"...)
	return append(k, itob(revID(id))...)
}

// ReadRunKey returns the run id encoded in a run key.
func ReadRunKey(k []byte) (uint64, error) {
	if len(k) != len(Prefix)+1+8 {
		return 0, fmt.Errorf("storage: bad run key length %d", len(k))
	}
	return revID(binary.BigEndian.Uint64(k[len(Prefix)+1:])), nil
}

// GroupKey returns the key of group groupID under run id.
func GroupKey(id uint64, groupID uint16) []byte {
	k := make([]byte, 0, len(Prefix)+1+8+2)
	k = append(k, Prefix+"G"...)
	k = append(k, itob(revID(id))...)
	return append(k, u16tob(groupID)...)
}

// FrameKey returns the key of frame index under run id.
func FrameKey(id uint64, index uint16) []byte {
	k := make([]byte, 0, len(Prefix)+1+8+2)
	k = append(k, Prefix+"F"...)
	k = append(k, itob(revID(id))...)
	return append(k, u16tob(index)...)
}

// GroupPrefix returns the iteration prefix for all groups of run id.
func GroupPrefix(id uint64) []byte {
	k := make([]byte, 0, len(Prefix)+1+8)
	k = append(k, Prefix+"G"...)
	return append(k, itob(revID(id))...)
}

// FramePrefix returns the iteration prefix for all frames of run id.
func FramePrefix(id uint64) []byte {
	k := make([]byte, 0, len(Prefix)+1+8)
	k = append(k, Prefix+"F"...)
	return append(k, itob(revID(id))...)
}

// RunPrefix returns the iteration prefix covering every run record.
func RunPrefix() []byte {
	return []byte(Prefix + "R")
}
