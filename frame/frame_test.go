package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
)

func ids(raws ...string) []epc.Identifier {
	out := make([]epc.Identifier, len(raws))
	for i, r := range raws {
		id, err := epc.Parse(r)
		if err != nil {
			panic(err)
		}
		out[i] = id
	}
	return out
}

func TestMaxPayloadTable(t *testing.T) {
	cases := map[int]int{
		7:  230,
		8:  230,
		9:  123,
		10: 59,
		11: 59,
		12: 51,
		6:  51, // unknown values fall back to the SF12 budget
		13: 51,
		0:  51,
	}
	for sf, want := range cases {
		require.Equal(t, want, MaxPayload(sf), "sf %d", sf)
	}

	require.Equal(t, 3, MaxMembers(51))
	require.Equal(t, 18, MaxMembers(230))
	require.Equal(t, 9, MaxMembers(123))
	require.Equal(t, 4, MaxMembers(59))
}

func TestEncodeHeader(t *testing.T) {
	e := NewEncoder(12)
	e.Now = func() time.Time { return time.Unix(0x12345678, 0) }

	members := ids("AABBCCDDEEFF001122334455", "112233445566778899001122")
	payload, err := e.Encode(members, 7)
	require.NoError(t, err)
	require.Len(t, payload, HeaderLen+2*epc.ByteLen)

	require.Equal(t, byte(7), payload[0])
	require.Equal(t, byte(2), payload[1])
	// low 16 bits of 0x12345678, big-endian
	require.Equal(t, byte(0x56), payload[2])
	require.Equal(t, byte(0x78), payload[3])
	require.Equal(t, byte(0xAA), payload[4])
}

func TestRoundTrip(t *testing.T) {
	e := NewEncoder(12)
	e.Now = func() time.Time { return time.Unix(1700000000, 0) }

	members := ids(
		"AABBCCDDEEFF001122334455",
		"112233445566778899001122",
		"FFEEDDCCBBAA998877665544",
	)
	payload, err := e.Encode(members, 42)
	require.NoError(t, err)

	d, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, uint8(42), d.Seq)
	require.Equal(t, uint8(3), d.MemberCount)
	require.Equal(t, uint16(1700000000&0xFFFF), d.Timestamp)
	require.Equal(t, members, d.Members)
}

func TestEncodeCapacity(t *testing.T) {
	e := NewEncoder(12) // 51 bytes, 3 members max
	require.Equal(t, 3, e.MaxMembers())

	members := ids(
		"AABBCCDDEEFF001122334401",
		"AABBCCDDEEFF001122334402",
		"AABBCCDDEEFF001122334403",
		"AABBCCDDEEFF001122334404",
	)
	_, err := e.Encode(members, 0)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = e.Encode(members[:3], 0)
	require.NoError(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, ErrTruncated)

	_, err = Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeBestEffort(t *testing.T) {
	e := NewEncoder(12)
	e.Now = func() time.Time { return time.Unix(1700000000, 0) }

	members := ids(
		"AABBCCDDEEFF001122334401",
		"AABBCCDDEEFF001122334402",
		"AABBCCDDEEFF001122334403",
	)
	payload, err := e.Encode(members, 1)
	require.NoError(t, err)

	// drop part of the last identifier: decode keeps the intact members
	d, err := Decode(payload[:len(payload)-5])
	require.NoError(t, err)
	require.Equal(t, uint8(3), d.MemberCount)
	require.Equal(t, members[:2], d.Members)

	// a bare header decodes to no members
	d, err = Decode(payload[:HeaderLen])
	require.NoError(t, err)
	require.Empty(t, d.Members)
}
