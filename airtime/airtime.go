// Package airtime computes LoRa on-air durations and duty-cycle
// transmission plans from modulation parameters.
//
// The symbol and frame duration formulas follow the LoRa modem design
// guide; the payload symbol count is carried as a real number end to
// end, no ceiling is applied before the coding-rate term, since a
// ceiling would change the reported durations.
package airtime

import (
	"errors"
	"fmt"
	"math"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/frame"
)

// DailyBudgetMs is the 1% duty-cycle budget over 24h, in milliseconds.
const DailyBudgetMs = 864000

// ErrInvalidParameter is returned for modulation parameters outside the
// supported domain.
var ErrInvalidParameter = errors.New("airtime: invalid modulation parameter")

// Params holds one LoRa modulation setting.
type Params struct {
	// SpreadFactor 7..12.
	SpreadFactor int `json:"spread_factor"`

	// BandwidthKHz is the channel width: 125, 250 or 500.
	BandwidthKHz int `json:"bandwidth_khz"`

	// CodingRate 1..4, denoting 4/5 .. 4/8.
	CodingRate int `json:"coding_rate"`

	// MaxPayloadBytes overrides the per-SF payload budget when > 0.
	MaxPayloadBytes int `json:"max_payload_bytes,omitempty"`
}

// Validate reports whether the parameters are in the supported domain.
func (p Params) Validate() error {
	if p.SpreadFactor < 7 || p.SpreadFactor > 12 {
		return fmt.Errorf("%w: spread factor %d not in 7..12", ErrInvalidParameter, p.SpreadFactor)
	}
	switch p.BandwidthKHz {
	case 125, 250, 500:
	default:
		return fmt.Errorf("%w: bandwidth %d kHz not in {125,250,500}", ErrInvalidParameter, p.BandwidthKHz)
	}
	if p.CodingRate < 1 || p.CodingRate > 4 {
		return fmt.Errorf("%w: coding rate %d not in 1..4", ErrInvalidParameter, p.CodingRate)
	}
	if p.MaxPayloadBytes < 0 {
		return fmt.Errorf("%w: negative payload budget", ErrInvalidParameter)
	}
	// An override smaller than one header plus one member yields a frame
	// that can carry nothing.
	if min := frame.HeaderLen + epc.ByteLen; p.MaxPayloadBytes > 0 && p.MaxPayloadBytes < min {
		return fmt.Errorf("%w: payload budget %d below the %d byte minimum", ErrInvalidParameter, p.MaxPayloadBytes, min)
	}
	return nil
}

// MaxPayload returns the payload budget in bytes, either the override or
// the per-SF table value.
func (p Params) MaxPayload() int {
	if p.MaxPayloadBytes > 0 {
		return p.MaxPayloadBytes
	}
	return frame.MaxPayload(p.SpreadFactor)
}

// MaxMembersPerFrame returns how many identifiers fit in one frame under
// these parameters.
func (p Params) MaxMembersPerFrame() int {
	return frame.MaxMembers(p.MaxPayload())
}

// Result holds the airtime figures for one payload size.
type Result struct {
	SymbolDurationMs   float64 `json:"symbol_duration_ms"`
	PreambleDurationMs float64 `json:"preamble_duration_ms"`
	PayloadSymbols     float64 `json:"payload_symbols"`
	PayloadDurationMs  float64 `json:"payload_duration_ms"`
	FrameDurationMs    float64 `json:"frame_duration_ms"`

	// FrameCapacity is the identifier capacity of a full frame at the
	// parameter's payload budget.
	FrameCapacity int `json:"frame_capacity"`
}

// Compute returns the on-air figures for transmitting payloadBytes under p.
func Compute(p Params, payloadBytes int) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if payloadBytes < 0 {
		return Result{}, fmt.Errorf("%w: negative payload size", ErrInvalidParameter)
	}

	sf := float64(p.SpreadFactor)
	symbolDur := math.Pow(2, sf) / (float64(p.BandwidthKHz) * 1000) // seconds
	preambleDur := (8 + 4.25) * symbolDur

	headerBit := 0.0
	if p.SpreadFactor >= 11 {
		headerBit = 1
	}
	num := 8*float64(payloadBytes) - 4*sf + 28 + 16 - 20*headerBit
	symbols := 8 + math.Max(num/(4*(sf-2)), 0)*float64(p.CodingRate+4)

	payloadDur := symbols * symbolDur

	return Result{
		SymbolDurationMs:   symbolDur * 1000,
		PreambleDurationMs: preambleDur * 1000,
		PayloadSymbols:     symbols,
		PayloadDurationMs:  payloadDur * 1000,
		FrameDurationMs:    (preambleDur + payloadDur) * 1000,
		FrameCapacity:      p.MaxMembersPerFrame(),
	}, nil
}

// Plan is a duty-cycle transmission schedule for one batch of members.
type Plan struct {
	TotalMembers     int     `json:"total_members"`
	FramesNeeded     int     `json:"frames_needed"`
	MembersPerFrame  int     `json:"members_per_frame"`
	FrameDurationMs  float64 `json:"frame_duration_ms"`
	BatchDurationMs  float64 `json:"batch_duration_ms"`
	MaxBatchesPerDay int     `json:"max_batches_per_day"`
	MaxMembersPerDay int     `json:"max_members_per_day"`
}

// PlanBatch computes the transmission schedule for totalMembers under p,
// assuming full frames at the parameter's payload budget.
func PlanBatch(totalMembers int, p Params) (Plan, error) {
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	if totalMembers <= 0 {
		return Plan{}, fmt.Errorf("%w: member count %d", ErrInvalidParameter, totalMembers)
	}

	res, err := Compute(p, p.MaxPayload())
	if err != nil {
		return Plan{}, err
	}
	return buildPlan(totalMembers, p.MaxMembersPerFrame(), res.FrameDurationMs), nil
}

func buildPlan(totalMembers, membersPerFrame int, frameDurationMs float64) Plan {
	framesNeeded := int(math.Ceil(float64(totalMembers) / float64(membersPerFrame)))
	batchDur := float64(framesNeeded) * frameDurationMs
	maxBatches := int(math.Floor(DailyBudgetMs / batchDur))

	return Plan{
		TotalMembers:     totalMembers,
		FramesNeeded:     framesNeeded,
		MembersPerFrame:  membersPerFrame,
		FrameDurationMs:  frameDurationMs,
		BatchDurationMs:  batchDur,
		MaxBatchesPerDay: maxBatches,
		MaxMembersPerDay: maxBatches * totalMembers,
	}
}
