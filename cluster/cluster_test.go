package cluster

import (
	"strings"
	"testing"

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

func TestMatchCount(t *testing.T) {
	a := epc.Identifier("AAAAAAAAAAAAAAAAAAAAAA01")
	b := epc.Identifier("AAAAAAAAAAAAAAAAAAAAAA02")
	// 22 leading As plus the shared '0' at position 22
	require.Equal(t, 23, MatchCount(a, b))

	c := epc.Identifier("999999999999999999999999")
	require.Equal(t, 0, MatchCount(a, c))
}

func TestGroupPair(t *testing.T) {
	in := ids("AAAAAAAAAAAAAAAAAAAAAA01", "AAAAAAAAAAAAAAAAAAAAAA02")

	clusters := Group(in, 6)
	require.Len(t, clusters, 1)
	require.Len(t, clusters[0], 2)

	d := Describe(clusters[0], 6)
	require.GreaterOrEqual(t, len(d.Prefix), 22)
	require.Greater(t, d.CompressionPercent, 0.0)
}

func TestGroupSingletons(t *testing.T) {
	// nine mutually dissimilar tags, pairwise agreement is zero
	var raws []string
	for c := byte('0'); c <= '8'; c++ {
		raws = append(raws, strings.Repeat(string(c), epc.HexLen))
	}
	in := ids(raws...)

	clusters := Group(in, 6)
	require.Len(t, clusters, 9)

	for i, cl := range clusters {
		require.Len(t, cl, 1)
		require.Equal(t, in[i], cl[0])

		d := Describe(cl, 6)
		require.Equal(t, Descriptor{
			Prefix:             "",
			PrefixBytes:        0,
			SuffixBytes:        12,
			MemberCount:        1,
			TotalPayloadBytes:  14,
			MaxMembersSF7:      3,
			MaxMembersSF12:     0,
			CompressionPercent: 0,
		}, d)
	}
}

func TestGroupPartition(t *testing.T) {
	in := ids(
		"AABBCCDDEEFF001122334401",
		"999999999999999999999999",
		"AABBCCDDEEFF001122334402",
		"888888888888888888888888",
		"AABBCCDDEEFF001122334403",
	)

	clusters := Group(in, 6)

	// every input appears in exactly one cluster
	seen := make(map[epc.Identifier]int)
	total := 0
	for _, cl := range clusters {
		require.NotEmpty(t, cl)
		for _, id := range cl {
			seen[id]++
			total++
		}
	}
	require.Equal(t, len(in), total)
	for _, id := range in {
		require.Equal(t, 1, seen[id], "id %s", id)
	}

	// the base is the earliest ungrouped element, members keep input order
	require.Equal(t, Cluster(ids(
		"AABBCCDDEEFF001122334401",
		"AABBCCDDEEFF001122334402",
		"AABBCCDDEEFF001122334403",
	)), clusters[0])
	require.Equal(t, Cluster(ids("999999999999999999999999")), clusters[1])
	require.Equal(t, Cluster(ids("888888888888888888888888")), clusters[2])

	// deterministic for a fixed input order
	require.Equal(t, clusters, Group(in, 6))
}

func TestDescribeMulti(t *testing.T) {
	cl := Cluster(ids("1122334455667788990011AA", "1122334455667788990011BB"))

	d := Describe(cl, 6)
	require.Equal(t, "1122334455667788990011", d.Prefix)
	require.Equal(t, 11, d.PrefixBytes)
	require.Equal(t, 1, d.SuffixBytes)
	require.Equal(t, 2, d.MemberCount)
	// 2 byte mini header + 11 prefix bytes + 2 members x 1 suffix byte
	require.Equal(t, 15, d.TotalPayloadBytes)
	require.Equal(t, 38, d.MaxMembersSF7)
	require.Equal(t, 0, d.MaxMembersSF12)
	require.InDelta(t, 37.5, d.CompressionPercent, 1e-9)
}

func TestDescribeMinMatchFloor(t *testing.T) {
	cl := Cluster(ids("AAAAAA000000000000000000", "AAAAAA111111111111111111"))

	d := Describe(cl, 6)
	require.Equal(t, "AAAAAA", d.Prefix)
	require.Equal(t, 3, d.PrefixBytes)
	require.Equal(t, 9, d.SuffixBytes)
	require.Equal(t, 23, d.TotalPayloadBytes)
	require.Equal(t, 5, d.MaxMembersSF7)
	require.Equal(t, 0, d.MaxMembersSF12)
	require.InDelta(t, 4.2, d.CompressionPercent, 1e-9)
}

func TestDescribePrefixBounds(t *testing.T) {
	cases := []Cluster{
		Cluster(ids("AAAAAAAAAAAAAAAAAAAAAA01", "AAAAAAAAAAAAAAAAAAAAAA02")),
		Cluster(ids("AAAAAA000000000000000000", "AAAAAA111111111111111111")),
		Cluster(ids("1122334455667788990011AA", "1122334455667788990011BB")),
	}
	for _, cl := range cases {
		d := Describe(cl, 6)
		require.GreaterOrEqual(t, len(d.Prefix), 6)
		require.LessOrEqual(t, len(d.Prefix), epc.HexLen)
	}
}

func TestDescribeOddPrefixLength(t *testing.T) {
	// 23 agreeing positions: prefix length is odd, byte counts use
	// integer division and the last suffix nibble is not representable
	cl := Cluster(ids("AAAAAAAAAAAAAAAAAAAAAA01", "AAAAAAAAAAAAAAAAAAAAAA02"))

	d := Describe(cl, 6)
	require.Equal(t, "AAAAAAAAAAAAAAAAAAAAAA0", d.Prefix)
	require.Equal(t, 11, d.PrefixBytes)
	require.Equal(t, 0, d.SuffixBytes)
	require.Equal(t, 13, d.TotalPayloadBytes)
	// suffixBytes is zero, capacity hints are guarded to zero
	require.Equal(t, 0, d.MaxMembersSF7)
	require.Equal(t, 0, d.MaxMembersSF12)
	require.InDelta(t, 45.8, d.CompressionPercent, 1e-9)
}
