// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package flicker

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/prg"
	"github.com/binkynet/LampFire/pkg/service/bridge"
	"github.com/binkynet/LampFire/pkg/service/status"
)

const (
	// How often do we want to log a progress message
	progressLogCycles = 10000
)

// Dependencies of the Controller.
type Dependencies struct {
	Log    zerolog.Logger
	Bridge bridge.API
	// Status receives snapshots; may be nil
	Status status.Service
	// Generator to draw from; a default seeded one is created when nil
	Generator *prg.Generator
}

// Controller drives the lamps.
// It is not safe for concurrent use; Run owns it.
type Controller struct {
	log      zerolog.Logger
	bridge   bridge.API
	status   status.Service
	gen      *prg.Generator
	snapshot status.Snapshot
}

// NewController creates a Controller for the given dependencies.
func NewController(deps Dependencies) *Controller {
	gen := deps.Generator
	if gen == nil {
		gen = prg.NewDefault()
	}
	c := &Controller{
		log:    deps.Log.With().Str("component", "flicker").Logger(),
		bridge: deps.Bridge,
		status: deps.Status,
		gen:    gen,
	}
	c.snapshot.State = gen.State()
	return c
}

// Run the startup sequence followed by the flicker loop
// until the given context is canceled.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Startup(ctx); err != nil {
		if ctx.Err() != nil {
			c.stopped()
			return nil
		}
		return err
	}
	c.log.Info().Msg("Flicker running")
	for {
		if ctx.Err() != nil {
			c.stopped()
			return nil
		}
		if _, err := c.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				c.stopped()
				return nil
			}
			return err
		}
	}
}

// Startup waits for the power supply, tests each lamp in turn
// and starts the PWM timer with both lamps at the duty floor.
func (c *Controller) Startup(ctx context.Context) error {
	if n := c.bridge.ChannelCount(); n != ChannelCount {
		return errors.Errorf("Bridge provides %d channels, expected %d", n, ChannelCount)
	}
	c.setPhase(status.PhaseSettle)
	if err := c.bridge.Delay(ctx, StartupSettle); err != nil {
		return errors.Wrap(err, "Settle delay failed")
	}
	for _, ch := range bridge.Channels {
		if err := c.bridge.ConfigureOutput(ch); err != nil {
			return errors.Wrapf(err, "ConfigureOutput[%d] failed", ch)
		}
	}

	c.setPhase(status.PhaseSelfTest)
	for _, ch := range bridge.Channels {
		if err := c.enable(ch, true); err != nil {
			return err
		}
		if err := c.bridge.Delay(ctx, SelfTestOn); err != nil {
			return errors.Wrap(err, "Self test delay failed")
		}
		if err := c.enable(ch, false); err != nil {
			return err
		}
	}

	c.setPhase(status.PhasePWMSetup)
	if err := c.bridge.ConfigurePWM(PWM); err != nil {
		return errors.Wrap(err, "ConfigurePWM failed")
	}
	for _, ch := range bridge.Channels {
		if err := c.bridge.SetDuty(ch, MinDuty); err != nil {
			return errors.Wrapf(err, "SetDuty[%d] failed", ch)
		}
		c.snapshot.Duty[ch] = MinDuty
	}
	c.log.Debug().
		Float64("frequency", PWMFrequencyHz).
		Uint8("duty", MinDuty).
		Msg("PWM started")
	c.setPhase(status.PhaseRunning)
	return nil
}

// RunCycle computes new duty cycles, applies them and waits
// for the computed delay.
func (c *Controller) RunCycle(ctx context.Context) (Cycle, error) {
	cycle := NextCycle(c.gen)
	drawsTotal.Add(ChannelCount + 1)
	for _, ch := range bridge.Channels {
		if err := c.bridge.SetDuty(ch, cycle.Duty[ch]); err != nil {
			return cycle, errors.Wrapf(err, "SetDuty[%d] failed", ch)
		}
	}

	c.snapshot.Cycles++
	c.snapshot.Duty = cycle.Duty
	c.snapshot.DelayMS = cycle.Delay
	c.snapshot.State = c.gen.State()
	c.publish()
	cyclesTotal.Inc()
	cycleDelayHistogram.Observe(float64(cycle.Delay))
	c.log.Trace().
		Uint8("duty0", cycle.Duty[bridge.Channel0]).
		Uint8("duty1", cycle.Duty[bridge.Channel1]).
		Uint16("delay", cycle.Delay).
		Msg("cycle")
	if c.snapshot.Cycles%progressLogCycles == 0 {
		c.log.Debug().Msgf("Completed %s cycles", humanize.Comma(int64(c.snapshot.Cycles)))
	}

	if cycle.Delay > 0 {
		if err := c.bridge.Delay(ctx, cycle.DelayDuration()); err != nil {
			return cycle, errors.Wrap(err, "Cycle delay failed")
		}
	}
	return cycle, nil
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() status.Snapshot {
	return c.snapshot
}

func (c *Controller) enable(ch bridge.Channel, on bool) error {
	if err := c.bridge.Enable(ch, on); err != nil {
		return errors.Wrapf(err, "Enable[%d] failed", ch)
	}
	c.snapshot.Enabled[ch] = on
	c.publish()
	return nil
}

func (c *Controller) setPhase(phase status.Phase) {
	c.log.Info().Str("phase", string(phase)).Msg("Phase changed")
	c.snapshot.Phase = phase
	c.publish()
}

func (c *Controller) stopped() {
	c.log.Info().Uint64("cycles", c.snapshot.Cycles).Msg("Flicker stopped")
	c.snapshot.Phase = status.PhaseStopped
	c.publish()
}

func (c *Controller) publish() {
	if c.status == nil {
		return
	}
	c.snapshot.Time = time.Now()
	c.status.Publish(c.snapshot)
}
