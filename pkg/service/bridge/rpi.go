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

	"github.com/ecc1/gpio"
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	lamp0Pin = 18
	lamp1Pin = 13
)

// outputFactory opens a GPIO output pin.
type outputFactory func(pinNumber int, activeLow bool, initialValue bool) (OutputPin, error)

type piBridge struct {
	mutex     sync.Mutex
	log       zerolog.Logger
	newOutput outputFactory
	pins      [ChannelCount]int
	outputs   [ChannelCount]OutputPin
	compare   [ChannelCount]uint8
	pwm       [ChannelCount]*softPWM
}

// NewRaspberryPiBridge implements the bridge for Raspberry PI's.
// The lamps are connected to BCM pins 18 and 13.
func NewRaspberryPiBridge(log zerolog.Logger) (API, error) {
	return newPiBridge(log, func(pinNumber int, activeLow bool, initialValue bool) (OutputPin, error) {
		pin, err := gpio.Output(pinNumber, activeLow, initialValue)
		if err != nil {
			return nil, maskAny(err)
		}
		return pin, nil
	}), nil
}

func newPiBridge(log zerolog.Logger, newOutput outputFactory) *piBridge {
	return &piBridge{
		log:       log.With().Str("component", "bridge.rpi").Logger(),
		newOutput: newOutput,
		pins:      [ChannelCount]int{lamp0Pin, lamp1Pin},
	}
}

// Returns number of lamp outputs
func (p *piBridge) ChannelCount() int {
	return ChannelCount
}

// ConfigureOutput sets the direction of the given channel to output.
func (p *piBridge) ConfigureOutput(ch Channel) error {
	if err := checkChannel(ch); err != nil {
		errorCounters.WithLabelValues("configure_output").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.outputs[ch] != nil {
		return nil
	}
	activeLow := false
	initialValue := false
	pin, err := p.newOutput(p.pins[ch], activeLow, initialValue)
	if err != nil {
		errorCounters.WithLabelValues("configure_output").Inc()
		return errors.Wrapf(err, "Output[%d] failed", p.pins[ch])
	}
	p.outputs[ch] = pin
	p.log.Debug().Str("channel", ch.String()).Int("pin", p.pins[ch]).Msg("output configured")
	return nil
}

// Enable drives the given channel fully on or off.
func (p *piBridge) Enable(ch Channel, on bool) error {
	if err := checkChannel(ch); err != nil {
		errorCounters.WithLabelValues("enable").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pin := p.outputs[ch]
	if pin == nil {
		errorCounters.WithLabelValues("enable").Inc()
		return errors.Wrapf(OutputNotConfiguredError, "channel %d", ch)
	}
	if p.pwm[ch] != nil {
		errorCounters.WithLabelValues("enable").Inc()
		return errors.Wrapf(PWMActiveError, "channel %d is driven by the timer", ch)
	}
	if err := pin.Write(on); err != nil {
		errorCounters.WithLabelValues("enable").Inc()
		return errors.Wrap(err, "Write failed")
	}
	enableCounters.WithLabelValues(ch.String()).Inc()
	return nil
}

// ConfigurePWM starts a software PWM generator on all configured outputs.
func (p *piBridge) ConfigurePWM(cfg PWMConfig) error {
	if err := cfg.Validate(); err != nil {
		errorCounters.WithLabelValues("configure_pwm").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, ch := range Channels {
		if p.outputs[ch] == nil {
			errorCounters.WithLabelValues("configure_pwm").Inc()
			return errors.Wrapf(OutputNotConfiguredError, "channel %d", ch)
		}
	}
	for _, ch := range Channels {
		if p.pwm[ch] != nil {
			if err := p.pwm[ch].Stop(); err != nil {
				return errors.Wrap(err, "Stop failed")
			}
		}
		p.pwm[ch] = startSoftPWM(p.log.With().Str("channel", ch.String()).Logger(), p.outputs[ch], cfg, p.compare[ch])
	}
	p.log.Debug().
		Stringer("mode", cfg.Mode).
		Dur("period", cfg.Period()).
		Float64("frequency", cfg.Frequency()).
		Msg("pwm configured")
	return nil
}

// SetDuty sets the compare threshold of the given channel.
func (p *piBridge) SetDuty(ch Channel, value uint8) error {
	if err := checkChannel(ch); err != nil {
		errorCounters.WithLabelValues("set_duty").Inc()
		return maskAny(err)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.compare[ch] = value
	if pwm := p.pwm[ch]; pwm != nil {
		pwm.Set(value)
	}
	setDutyCounters.WithLabelValues(ch.String()).Inc()
	dutyGauges.WithLabelValues(ch.String()).Set(float64(value))
	return nil
}

// Delay blocks for the given duration or until the context is canceled.
func (p *piBridge) Delay(ctx context.Context, d time.Duration) error {
	if d > 0 {
		delaySecondsTotal.Add(d.Seconds())
	}
	return sleep(ctx, d)
}

// Close stops the PWM generators and turns all lamps off.
func (p *piBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var ae aerr.AggregateError
	for _, ch := range Channels {
		if pwm := p.pwm[ch]; pwm != nil {
			p.pwm[ch] = nil
			ae.Add(pwm.Stop())
		} else if pin := p.outputs[ch]; pin != nil {
			ae.Add(pin.Write(false))
		}
	}
	if err := ae.AsError(); err != nil {
		return errors.Wrap(err, "Close failed")
	}
	return nil
}
