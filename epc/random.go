package epc

import (
	"fmt"
	"math/rand"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// Random returns n random identifiers drawn from r.
func Random(r *rand.Rand, n int) []Identifier {
	ids := make([]Identifier, n)
	for i := range ids {
		var sb strings.Builder
		sb.Grow(HexLen)
		for j := 0; j < HexLen; j++ {
			sb.WriteByte(hexDigits[r.Intn(len(hexDigits))])
		}
		ids[i] = Identifier(sb.String())
	}
	return ids
}

// RandomWithPrefix returns n random identifiers all starting with the
// given hex prefix, useful to produce compressible test batches.
func RandomWithPrefix(r *rand.Rand, prefix string, n int) ([]Identifier, error) {
	if len(prefix) > HexLen {
		return nil, fmt.Errorf("epc: prefix longer than %d characters", HexLen)
	}
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'F':
		case c >= 'a' && c <= 'f':
		default:
			return nil, fmt.Errorf("epc: prefix %q is not hexadecimal", prefix)
		}
	}
	prefix = strings.ToUpper(prefix)
	ids := make([]Identifier, n)
	for i := range ids {
		var sb strings.Builder
		sb.Grow(HexLen)
		sb.WriteString(prefix)
		for j := len(prefix); j < HexLen; j++ {
			sb.WriteByte(hexDigits[r.Intn(len(hexDigits))])
		}
		ids[i] = Identifier(sb.String())
	}
	return ids, nil
}
