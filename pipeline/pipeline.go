// Package pipeline sequences the full tag processing run: validation,
// prefix clustering, group description, frame encoding and transmission
// planning.
package pipeline

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/cluster"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/frame"
)

// Group binds a group id to its ordered member list and descriptor. The
// member mapping is carried explicitly end to end; membership is never
// re-derived from the prefix string.
type Group struct {
	ID         int                `json:"group_id"`
	Members    []epc.Identifier   `json:"members"`
	Descriptor cluster.Descriptor `json:"descriptor"`
}

// Payload is a raw frame body. It renders as a hex string in JSON so
// reports stay readable next to the hex identifiers.
type Payload []byte

func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(p))
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*p = d
	return nil
}

// Frame is one encoded wire frame together with its provenance.
type Frame struct {
	Seq       uint8            `json:"seq"`
	GroupID   int              `json:"group_id"`
	Members   []epc.Identifier `json:"members"`
	Payload   Payload          `json:"payload"`
	AirtimeMs float64          `json:"airtime_ms"`
}

// Report is the complete outcome of one run.
type Report struct {
	TotalTags    int      `json:"total_tags"`
	ValidTags    int      `json:"valid_tags"`
	RejectedTags []string `json:"rejected_tags,omitempty"`

	Groups []Group `json:"groups"`
	Frames []Frame `json:"frames"`

	// FullFrame is the airtime of a frame filled to the payload budget,
	// the figure the transmission plan assumes.
	FullFrame airtime.Result `json:"full_frame"`
	Plan      airtime.Plan   `json:"plan"`
}

// Config tunes a Processor.
type Config struct {
	// MinMatch is the clustering similarity threshold; defaults to
	// cluster.DefaultMinMatch.
	MinMatch int

	// Events receives structured progress events; defaults to NopEvents.
	Events Events

	// Now supplies frame header timestamps; defaults to time.Now.
	Now func() time.Time
}

// Processor runs batches of raw tag strings through the pipeline. One
// call processes one batch; no state is retained between calls, so a
// Processor is safe for sequential reuse.
type Processor struct {
	logger   log.Logger
	params   airtime.Params
	minMatch int
	events   Events
	enc      *frame.Encoder
}

// New validates params and returns a ready Processor.
func New(logger log.Logger, params airtime.Params, cfg Config) (*Processor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cfg.MinMatch <= 0 {
		cfg.MinMatch = cluster.DefaultMinMatch
	}
	if cfg.Events == nil {
		cfg.Events = NopEvents{}
	}
	enc := &frame.Encoder{
		MaxPayloadBytes: params.MaxPayload(),
		Now:             cfg.Now,
	}
	return &Processor{
		logger:   log.With(logger, "component", "pipeline"),
		params:   params,
		minMatch: cfg.MinMatch,
		events:   cfg.Events,
		enc:      enc,
	}, nil
}

// Process validates, clusters, encodes and plans one batch of raw tags.
// Invalid tags are skipped and reported in the result; an input with no
// valid tag at all fails with epc.ErrEmptyInput.
func (p *Processor) Process(raw []string) (*Report, error) {
	ids, rejected, err := epc.ParseBatch(raw)
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		level.Debug(p.logger).Log("msg", "skipping invalid tag", "tag", r)
	}

	rep := &Report{
		TotalTags:    len(raw),
		ValidTags:    len(ids),
		RejectedTags: rejected,
	}

	clusters := cluster.Group(ids, p.minMatch)
	maxMembers := p.enc.MaxMembers()
	seq := 0

	for ci, members := range clusters {
		g := Group{
			ID:         ci + 1,
			Members:    members,
			Descriptor: cluster.Describe(members, p.minMatch),
		}
		rep.Groups = append(rep.Groups, g)
		p.events.GroupFormed(g)

		// a group larger than one frame's capacity is chunked, the
		// sequence id keeps counting across groups
		for start := 0; start < len(members); start += maxMembers {
			end := start + maxMembers
			if end > len(members) {
				end = len(members)
			}
			chunk := members[start:end]

			payload, err := p.enc.Encode(chunk, uint8(seq&0xFF))
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", g.ID, err)
			}
			seq++

			res, err := airtime.Compute(p.params, len(payload))
			if err != nil {
				return nil, err
			}

			f := Frame{
				Seq:       payload[0],
				GroupID:   g.ID,
				Members:   chunk,
				Payload:   payload,
				AirtimeMs: res.FrameDurationMs,
			}
			rep.Frames = append(rep.Frames, f)
			p.events.FrameEncoded(f)
		}
	}

	full, err := airtime.Compute(p.params, p.params.MaxPayload())
	if err != nil {
		return nil, err
	}
	rep.FullFrame = full

	plan, err := airtime.PlanBatch(len(ids), p.params)
	if err != nil {
		return nil, err
	}
	rep.Plan = plan
	p.events.ScheduleComputed(plan)

	level.Info(p.logger).Log("msg", "batch processed",
		"tags", len(ids),
		"rejected", len(rejected),
		"groups", len(rep.Groups),
		"frames", len(rep.Frames),
		"batch_ms", plan.BatchDurationMs)

	return rep, nil
}
