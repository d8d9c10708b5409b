//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Registers is a copy of the simulated hardware state.
type Registers struct {
	// Output is true for channels configured as output
	Output [ChannelCount]bool
	// Level is the plain output level of each channel (without PWM)
	Level [ChannelCount]bool
	// PWM is the active timer configuration, nil when not configured
	PWM *PWMConfig
	// Compare holds the compare register of each channel
	Compare [ChannelCount]uint8
}

// Inspector is implemented by bridges that can report their register state.
type Inspector interface {
	Registers() Registers
}

type virtualBridge struct {
	mutex sync.Mutex
	log   zerolog.Logger
	regs  Registers
}

// NewVirtualBridge implements the bridge with simulated registers.
func NewVirtualBridge(log zerolog.Logger) (API, error) {
	return &virtualBridge{
		log: log.With().Str("component", "bridge.virtual").Logger(),
	}, nil
}

// Returns number of lamp outputs
func (p *virtualBridge) ChannelCount() int {
	return ChannelCount
}

// ConfigureOutput sets the direction of the given channel to output.
func (p *virtualBridge) ConfigureOutput(ch Channel) error {
	if err := checkChannel(ch); err != nil {
		errorCounters.WithLabelValues("configure_output").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.regs.Output[ch] = true
	p.log.Debug().Str("channel", ch.String()).Msg("output configured")
	return nil
}

// Enable drives the given channel fully on or off.
func (p *virtualBridge) Enable(ch Channel, on bool) error {
	if err := checkChannel(ch); err != nil {
		errorCounters.WithLabelValues("enable").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.regs.Output[ch] {
		errorCounters.WithLabelValues("enable").Inc()
		return errors.Wrapf(OutputNotConfiguredError, "channel %d", ch)
	}
	if p.regs.PWM != nil {
		errorCounters.WithLabelValues("enable").Inc()
		return errors.Wrapf(PWMActiveError, "channel %d is driven by the timer", ch)
	}
	enableCounters.WithLabelValues(ch.String()).Inc()
	p.regs.Level[ch] = on
	p.log.Debug().Str("channel", ch.String()).Bool("on", on).Msg("output enabled")
	return nil
}

// ConfigurePWM starts the PWM timer on all channels.
func (p *virtualBridge) ConfigurePWM(cfg PWMConfig) error {
	if err := cfg.Validate(); err != nil {
		errorCounters.WithLabelValues("configure_pwm").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.regs.PWM = &cfg
	p.log.Debug().
		Stringer("mode", cfg.Mode).
		Uint32("prescaler", cfg.Prescaler).
		Float64("frequency", cfg.Frequency()).
		Msg("pwm configured")
	return nil
}

// SetDuty sets the compare threshold of the given channel.
func (p *virtualBridge) SetDuty(ch Channel, value uint8) error {
	if err := checkChannel(ch); err != nil {
		errorCounters.WithLabelValues("set_duty").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.regs.Compare[ch] = value
	setDutyCounters.WithLabelValues(ch.String()).Inc()
	dutyGauges.WithLabelValues(ch.String()).Set(float64(value))
	p.log.Trace().Str("channel", ch.String()).Uint8("value", value).Msg("duty set")
	return nil
}

// Delay blocks for the given duration or until the context is canceled.
func (p *virtualBridge) Delay(ctx context.Context, d time.Duration) error {
	if d > 0 {
		delaySecondsTotal.Add(d.Seconds())
	}
	return sleep(ctx, d)
}

// Registers returns a copy of the simulated registers.
func (p *virtualBridge) Registers() Registers {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	result := p.regs
	if p.regs.PWM != nil {
		cfg := *p.regs.PWM
		result.PWM = &cfg
	}
	return result
}

// Close stops the timer and turns all outputs off.
func (p *virtualBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.regs.PWM = nil
	p.regs.Level = [ChannelCount]bool{}
	return nil
}
