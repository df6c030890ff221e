package pipeline

import (
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/metrics"
)

// Events receives structured progress events from a run. The pipeline
// itself never prints; reporting is the sink's business.
type Events interface {
	GroupFormed(g Group)
	FrameEncoded(f Frame)
	ScheduleComputed(p airtime.Plan)
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) GroupFormed(Group) {}

func (NopEvents) FrameEncoded(Frame) {}

func (NopEvents) ScheduleComputed(airtime.Plan) {}

// LogEvents logs every event at debug level.
type LogEvents struct {
	Logger log.Logger
}

func (e LogEvents) GroupFormed(g Group) {
	level.Debug(e.Logger).Log("msg", "group formed",
		"group_id", g.ID,
		"members", g.Descriptor.MemberCount,
		"prefix", g.Descriptor.Prefix,
		"payload_bytes", g.Descriptor.TotalPayloadBytes,
		"compression_pct", g.Descriptor.CompressionPercent)
}

func (e LogEvents) FrameEncoded(f Frame) {
	level.Debug(e.Logger).Log("msg", "frame encoded",
		"seq", f.Seq,
		"group_id", f.GroupID,
		"members", len(f.Members),
		"bytes", len(f.Payload),
		"airtime_ms", f.AirtimeMs)
}

func (e LogEvents) ScheduleComputed(p airtime.Plan) {
	level.Info(e.Logger).Log("msg", "schedule computed",
		"frames", p.FramesNeeded,
		"batch_ms", p.BatchDurationMs,
		"max_batches_per_day", p.MaxBatchesPerDay,
		"max_members_per_day", p.MaxMembersPerDay)
}

// MetricsEvents feeds the prometheus counters.
type MetricsEvents struct{}

func (MetricsEvents) GroupFormed(g Group) {
	metrics.GroupsFormedCounter.Inc()
}

func (MetricsEvents) FrameEncoded(f Frame) {
	metrics.FramesEncodedCounter.Inc()
	metrics.FrameAirtimeMs.Observe(f.AirtimeMs)
}

func (MetricsEvents) ScheduleComputed(airtime.Plan) {
	metrics.PlansComputedCounter.Inc()
}

// MultiEvents fans every event out to each sink in order.
func MultiEvents(sinks ...Events) Events {
	return multiEvents(sinks)
}

type multiEvents []Events

func (m multiEvents) GroupFormed(g Group) {
	for _, s := range m {
		s.GroupFormed(g)
	}
}

func (m multiEvents) FrameEncoded(f Frame) {
	for _, s := range m {
		s.FrameEncoded(f)
	}
}

func (m multiEvents) ScheduleComputed(p airtime.Plan) {
	for _, s := range m {
		s.ScheduleComputed(p)
	}
}
