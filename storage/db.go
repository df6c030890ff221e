// Package storage defines the persistent records of pipeline runs and
// the store interface implemented by the badger backend.
package storage

import (
	"errors"
	"time"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/pipeline"
)

// Prefix namespaces every key written by this module.
const Prefix = "EP"

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("storage: run not found")

// Store persists pipeline runs.
type Store interface {
	// StoreRun writes the run record, its group records and its frames.
	StoreRun(r *Run) error

	// GetRun returns a full run by id.
	GetRun(id uint64) (*Run, error)

	// Runs returns run records newest first, up to count (0 for all).
	Runs(count int) ([]RunRecord, error)

	// DeleteRun removes a run and everything stored under it.
	DeleteRun(id uint64) error
}

// GroupRecord is the exported form of one compression group.
type GroupRecord struct {
	GroupID            int      `json:"group_id"`
	Prefix             string   `json:"prefix"`
	PrefixBytes        int      `json:"prefix_bytes"`
	SuffixBytes        int      `json:"suffix_bytes"`
	MemberCount        int      `json:"member_count"`
	TotalPayloadBytes  int      `json:"total_payload_bytes"`
	MaxMembersSF7      int      `json:"max_members_sf7"`
	MaxMembersSF12     int      `json:"max_members_sf12"`
	CompressionPercent float64  `json:"compression_percent"`
	Members            []string `json:"members"`
}

// ScheduleRecord is the exported form of a transmission plan.
type ScheduleRecord struct {
	TotalMembers     int     `json:"total_members"`
	FramesNeeded     int     `json:"frames_needed"`
	MembersPerFrame  int     `json:"members_per_frame"`
	FrameDurationMs  float64 `json:"frame_duration_ms"`
	BatchDurationMs  float64 `json:"batch_duration_ms"`
	MaxBatchesPerDay int     `json:"max_batches_per_day"`
	MaxMembersPerDay int     `json:"max_members_per_day"`
}

// RunRecord is the summary of one pipeline run.
type RunRecord struct {
	ID           uint64         `json:"id"`
	Time         time.Time      `json:"time"`
	SpreadFactor int            `json:"spread_factor"`
	BandwidthKHz int            `json:"bandwidth_khz"`
	CodingRate   int            `json:"coding_rate"`
	TotalTags    int            `json:"total_tags"`
	ValidTags    int            `json:"valid_tags"`
	RejectedTags int            `json:"rejected_tags"`
	GroupCount   int            `json:"group_count"`
	FrameCount   int            `json:"frame_count"`
	Schedule     ScheduleRecord `json:"schedule"`
}

// Run is a full persisted run: summary, group records and raw frames.
type Run struct {
	RunRecord
	Groups []GroupRecord `json:"groups"`
	Frames [][]byte      `json:"frames"`
}

// RunFromReport converts a pipeline report into its persisted form.
// The run id is the Unix nanosecond timestamp of t.
func RunFromReport(t time.Time, params airtime.Params, rep *pipeline.Report) *Run {
	r := &Run{
		RunRecord: RunRecord{
			ID:           uint64(t.UnixNano()),
			Time:         t.UTC(),
			SpreadFactor: params.SpreadFactor,
			BandwidthKHz: params.BandwidthKHz,
			CodingRate:   params.CodingRate,
			TotalTags:    rep.TotalTags,
			ValidTags:    rep.ValidTags,
			RejectedTags: len(rep.RejectedTags),
			GroupCount:   len(rep.Groups),
			FrameCount:   len(rep.Frames),
			Schedule: ScheduleRecord{
				TotalMembers:     rep.Plan.TotalMembers,
				FramesNeeded:     rep.Plan.FramesNeeded,
				MembersPerFrame:  rep.Plan.MembersPerFrame,
				FrameDurationMs:  rep.Plan.FrameDurationMs,
				BatchDurationMs:  rep.Plan.BatchDurationMs,
				MaxBatchesPerDay: rep.Plan.MaxBatchesPerDay,
				MaxMembersPerDay: rep.Plan.MaxMembersPerDay,
			},
		},
	}

	for _, g := range rep.Groups {
		members := make([]string, len(g.Members))
		for i, m := range g.Members {
			members[i] = string(m)
		}
		r.Groups = append(r.Groups, GroupRecord{
			GroupID:            g.ID,
			Prefix:             g.Descriptor.Prefix,
			PrefixBytes:        g.Descriptor.PrefixBytes,
			SuffixBytes:        g.Descriptor.SuffixBytes,
			MemberCount:        g.Descriptor.MemberCount,
			TotalPayloadBytes:  g.Descriptor.TotalPayloadBytes,
			MaxMembersSF7:      g.Descriptor.MaxMembersSF7,
			MaxMembersSF12:     g.Descriptor.MaxMembersSF12,
			CompressionPercent: g.Descriptor.CompressionPercent,
			Members:            members,
		})
	}

	for _, f := range rep.Frames {
		r.Frames = append(r.Frames, f.Payload)
	}
	return r
}
