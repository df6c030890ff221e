// Package frame implements the wire format used to pack EPC identifiers
// into LoRa payloads.
//
// Layout: a 4 byte header (sequence id, member count, low 16 bits of the
// Unix timestamp big-endian) followed by the raw 12 byte value of each
// member, concatenated with no separators.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
)

const (
	// HeaderLen is the fixed frame header size in bytes.
	HeaderLen = 4
)

var (
	// ErrTruncated is returned by Decode when fewer than HeaderLen bytes
	// are supplied.
	ErrTruncated = errors.New("frame: truncated frame")

	// ErrCapacityExceeded is returned by Encode when more members are
	// supplied than the modulation allows in one frame.
	ErrCapacityExceeded = errors.New("frame: too many members for one frame")
)

// MaxPayload returns the LoRaWAN payload budget in bytes for a spread
// factor. Unknown values fall back to the SF12 budget.
func MaxPayload(spreadFactor int) int {
	switch spreadFactor {
	case 7, 8:
		return 230
	case 9:
		return 123
	case 10, 11:
		return 59
	case 12:
		return 51
	default:
		return 51
	}
}

// MaxMembers returns how many identifiers fit in one frame with the
// given payload budget.
func MaxMembers(maxPayload int) int {
	return (maxPayload - HeaderLen) / epc.ByteLen
}

// Encoder builds frames for one modulation setting.
type Encoder struct {
	// MaxPayloadBytes caps the frame size; use MaxPayload to derive it
	// from a spread factor.
	MaxPayloadBytes int

	// Now supplies the header timestamp; defaults to time.Now. Injected
	// so tests can pin it.
	Now func() time.Time
}

// NewEncoder returns an encoder sized for the given spread factor.
func NewEncoder(spreadFactor int) *Encoder {
	return &Encoder{MaxPayloadBytes: MaxPayload(spreadFactor)}
}

// MaxMembers returns the member capacity of one frame for this encoder.
func (e *Encoder) MaxMembers() int {
	return MaxMembers(e.MaxPayloadBytes)
}

// Encode packs members into one frame with the given sequence id.
func (e *Encoder) Encode(members []epc.Identifier, seq uint8) ([]byte, error) {
	if max := e.MaxMembers(); len(members) > max {
		return nil, fmt.Errorf("%w: %d members, max %d", ErrCapacityExceeded, len(members), max)
	}

	now := e.Now
	if now == nil {
		now = time.Now
	}

	buf := make([]byte, HeaderLen, HeaderLen+len(members)*epc.ByteLen)
	buf[0] = seq
	buf[1] = uint8(len(members))
	binary.BigEndian.PutUint16(buf[2:4], uint16(now().Unix()&0xFFFF))

	for _, m := range members {
		buf = append(buf, m.Bytes()...)
	}
	return buf, nil
}

// Decoded is the result of unpacking one frame.
type Decoded struct {
	Seq         uint8
	MemberCount uint8
	Timestamp   uint16
	Members     []epc.Identifier
}

// Decode unpacks a frame. A payload shorter than the header is an error;
// past the header the decode is best effort, members are appended until
// the remaining bytes no longer hold a full identifier, so a frame
// truncated in transit still yields its intact leading members.
func Decode(payload []byte) (*Decoded, error) {
	if len(payload) < HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(payload))
	}

	d := &Decoded{
		Seq:         payload[0],
		MemberCount: payload[1],
		Timestamp:   binary.BigEndian.Uint16(payload[2:4]),
	}

	data := payload[HeaderLen:]
	for i := 0; i < int(d.MemberCount); i++ {
		start := i * epc.ByteLen
		end := start + epc.ByteLen
		if end > len(data) {
			break
		}
		id, err := epc.FromBytes(data[start:end])
		if err != nil {
			break
		}
		d.Members = append(d.Members, id)
	}
	return d, nil
}
