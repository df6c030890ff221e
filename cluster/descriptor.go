package cluster

import (
	"math"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
)

// Byte budgets used for the per-group capacity hints. These are the
// budgets the reporting format has always used: 51 bytes for the SF7
// column and 11 bytes for the SF12 column, minus the group overhead.
const (
	sf7HintBudget  = 51
	sf12HintBudget = 11

	// miniHeaderBytes is reserved in the compressed group representation
	// for a run-length/count header.
	miniHeaderBytes = 2
)

// Descriptor carries the derived compression attributes of one cluster.
// It holds no back-reference to the member identifiers; consumers that
// need them must be handed the member list alongside.
type Descriptor struct {
	Prefix             string  `json:"prefix"`
	PrefixBytes        int     `json:"prefix_bytes"`
	SuffixBytes        int     `json:"suffix_bytes"`
	MemberCount        int     `json:"member_count"`
	TotalPayloadBytes  int     `json:"total_payload_bytes"`
	MaxMembersSF7      int     `json:"max_members_sf7"`
	MaxMembersSF12     int     `json:"max_members_sf12"`
	CompressionPercent float64 `json:"compression_percent"`
}

// Describe computes the descriptor for a cluster.
//
// A singleton cluster always reports the fixed convention below (no
// compression possible, full 12 byte suffix, 2 byte mini header). For a
// multi-member cluster the prefix length is derived from the number of
// character positions at which every member agrees, clamped to
// [minMatch, 24], and the prefix is the literal leading substring of the
// first member. Positional agreement is not necessarily contiguous, so
// the prefix may not be shared verbatim by every member; downstream
// consumers rely on this exact behavior, do not change it without a
// correctness review.
func Describe(members Cluster, minMatch int) Descriptor {
	if minMatch <= 0 {
		minMatch = DefaultMinMatch
	}

	if len(members) == 1 {
		return Descriptor{
			Prefix:             "",
			PrefixBytes:        0,
			SuffixBytes:        epc.ByteLen,
			MemberCount:        1,
			TotalPayloadBytes:  miniHeaderBytes + epc.ByteLen,
			MaxMembersSF7:      3,
			MaxMembersSF12:     0,
			CompressionPercent: 0,
		}
	}

	agreeCount := 0
	base := members[0]
	for pos := 0; pos < epc.HexLen; pos++ {
		same := true
		for _, m := range members[1:] {
			if m[pos] != base[pos] {
				same = false
				break
			}
		}
		if same {
			agreeCount++
		}
	}

	prefixLen := agreeCount
	if prefixLen < minMatch {
		prefixLen = minMatch
	}
	if prefixLen > epc.HexLen {
		prefixLen = epc.HexLen
	}

	prefixBytes := prefixLen / 2
	suffixBytes := (epc.HexLen - prefixLen) / 2
	count := len(members)
	totalPayload := miniHeaderBytes + prefixBytes + count*suffixBytes
	overhead := miniHeaderBytes + prefixBytes

	sf7, sf12 := 0, 0
	if suffixBytes > 0 {
		sf7 = (sf7HintBudget - overhead) / suffixBytes
		if sf7 < 0 {
			sf7 = 0
		}
		sf12 = (sf12HintBudget - overhead) / suffixBytes
		if sf12 < 0 {
			sf12 = 0
		}
	}

	uncompressed := count * epc.ByteLen
	compression := float64(uncompressed-totalPayload) / float64(uncompressed) * 100
	compression = math.Round(compression*10) / 10

	return Descriptor{
		Prefix:             string(base[:prefixLen]),
		PrefixBytes:        prefixBytes,
		SuffixBytes:        suffixBytes,
		MemberCount:        count,
		TotalPayloadBytes:  totalPayload,
		MaxMembersSF7:      sf7,
		MaxMembersSF12:     sf12,
		CompressionPercent: compression,
	}
}
