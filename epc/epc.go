// Package epc holds the EPC tag identifier type and its validation.
//
// An EPC is a fixed 96 bit RFID tag code, handled everywhere as a
// 24 character hexadecimal string normalized to uppercase.
package epc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// HexLen is the number of hexadecimal characters in an EPC.
	HexLen = 24

	// ByteLen is the raw size of an EPC in bytes.
	ByteLen = 12
)

// ErrEmptyInput is returned when a batch contains no valid EPC at all.
var ErrEmptyInput = errors.New("epc: no valid identifiers in input")

// InvalidFormatError reports a string that is not a 24 character hex EPC.
type InvalidFormatError struct {
	Raw string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("epc: invalid identifier format %q", e.Raw)
}

// Identifier is a validated EPC, always 24 uppercase hex characters.
type Identifier string

// Parse validates raw and returns the uppercase-normalized identifier.
func Parse(raw string) (Identifier, error) {
	if len(raw) != HexLen {
		return "", &InvalidFormatError{Raw: raw}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'F':
		case c >= 'a' && c <= 'f':
		default:
			return "", &InvalidFormatError{Raw: raw}
		}
	}
	return Identifier(strings.ToUpper(raw)), nil
}

// ParseBatch validates every string in raws, keeping input order.
// Invalid entries are skipped and returned in rejected so the caller can
// report them item by item. ErrEmptyInput is returned when nothing valid
// remains.
func ParseBatch(raws []string) (ids []Identifier, rejected []string, err error) {
	for _, raw := range raws {
		id, perr := Parse(raw)
		if perr != nil {
			rejected = append(rejected, raw)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, rejected, ErrEmptyInput
	}
	return ids, rejected, nil
}

// Bytes returns the 12 raw bytes of the identifier.
func (id Identifier) Bytes() []byte {
	b, err := hex.DecodeString(string(id))
	if err != nil || len(b) != ByteLen {
		// can't happen for a value built through Parse or FromBytes
		panic(fmt.Sprintf("epc: corrupt identifier %q", string(id)))
	}
	return b
}

// FromBytes builds an identifier from its 12 raw bytes.
func FromBytes(b []byte) (Identifier, error) {
	if len(b) != ByteLen {
		return "", fmt.Errorf("epc: need %d bytes, got %d", ByteLen, len(b))
	}
	return Identifier(strings.ToUpper(hex.EncodeToString(b))), nil
}
