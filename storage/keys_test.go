package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunKeyRoundTrip(t *testing.T) {
	id := uint64(1700000000123456789)

	k := RunKey(id)
	require.True(t, bytes.HasPrefix(k, RunPrefix()))

	back, err := ReadRunKey(k)
	require.NoError(t, err)
	require.Equal(t, id, back)

	_, err = ReadRunKey(k[:5])
	require.Error(t, err)
}

func TestRunKeyOrdering(t *testing.T) {
	older := uint64(1700000000000000000)
	newer := uint64(1700000001000000000)

	// newer runs sort first so listing iterates newest first
	require.Equal(t, -1, bytes.Compare(RunKey(newer), RunKey(older)))
}

func TestSubKeyPrefixes(t *testing.T) {
	id := uint64(42)

	require.True(t, bytes.HasPrefix(GroupKey(id, 1), GroupPrefix(id)))
	require.True(t, bytes.HasPrefix(FrameKey(id, 7), FramePrefix(id)))

	// groups of one run never collide with another run's prefix
	require.False(t, bytes.HasPrefix(GroupKey(id, 1), GroupPrefix(id+1)))

	// group and frame spaces are disjoint
	require.False(t, bytes.HasPrefix(GroupKey(id, 1), FramePrefix(id)))

	// sub keys iterate in id order
	require.Equal(t, -1, bytes.Compare(GroupKey(id, 1), GroupKey(id, 2)))
	require.Equal(t, -1, bytes.Compare(FrameKey(id, 0), FrameKey(id, 1)))
}
