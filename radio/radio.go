// Package radio is the thin binding between encoded frames and a LoRa
// transceiver. The real SX1262 driver (SPI transfers, register writes,
// reset sequencing) lives outside this module; Sim stands in for it and
// models only the on-air time.
package radio

import (
	"context"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
)

// Driver transmits one frame payload.
type Driver interface {
	Transmit(ctx context.Context, payload []byte) error
}

// Sim is a simulated driver: it sleeps the frame's airtime and counts
// transmissions.
type Sim struct {
	logger log.Logger
	params airtime.Params

	// Sleep is swappable for tests; defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	Sent int
}

// NewSim returns a simulated driver for the given modulation.
func NewSim(logger log.Logger, params airtime.Params) *Sim {
	return &Sim{
		logger: log.With(logger, "component", "radio"),
		params: params,
	}
}

func (s *Sim) Transmit(ctx context.Context, payload []byte) error {
	res, err := airtime.Compute(s.params, len(payload))
	if err != nil {
		return err
	}
	d := time.Duration(res.FrameDurationMs * float64(time.Millisecond))

	sleep := s.Sleep
	if sleep == nil {
		sleep = wait
	}
	if err := sleep(ctx, d); err != nil {
		return err
	}

	s.Sent++
	level.Debug(s.logger).Log("msg", "frame transmitted", "bytes", len(payload), "airtime_ms", res.FrameDurationMs)
	return nil
}

// Pacer spaces transmissions so the duty-cycle ceiling is respected.
type Pacer struct {
	// DutyCycle is the allowed on-air fraction, e.g. 0.01 for 1%.
	DutyCycle float64
}

// NextDelay returns how long to stay silent after being on air for d.
func (p Pacer) NextDelay(onAir time.Duration) time.Duration {
	if p.DutyCycle <= 0 || p.DutyCycle >= 1 {
		return 0
	}
	return time.Duration(float64(onAir) * (1/p.DutyCycle - 1))
}

// SendBatch transmits frames through drv, pacing them with p.
func SendBatch(ctx context.Context, drv Driver, p Pacer, params airtime.Params, frames [][]byte) error {
	for i, f := range frames {
		if err := drv.Transmit(ctx, f); err != nil {
			return err
		}
		if i == len(frames)-1 {
			break
		}
		res, err := airtime.Compute(params, len(f))
		if err != nil {
			return err
		}
		onAir := time.Duration(res.FrameDurationMs * float64(time.Millisecond))
		if err := wait(ctx, p.NextDelay(onAir)); err != nil {
			return err
		}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
