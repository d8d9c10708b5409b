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

// Package flicker turns a pseudo random stream into lamp duty cycles
// and update intervals that look like a fire.
package flicker

import (
	"time"

	"github.com/binkynet/LampFire/pkg/prg"
	"github.com/binkynet/LampFire/pkg/service/bridge"
)

const (
	// MinDuty is the lowest compare value given to a lamp.
	// A fire does not go out, so neither do the lamps.
	MinDuty uint8 = 50
	// DutyModulus reduces a draw to the compare value range [0..254].
	DutyModulus uint16 = 255
	// MaxDelayMS is the exclusive upper bound of the wait between cycles.
	MaxDelayMS uint16 = 50
	// ChannelCount is the number of lamps.
	ChannelCount = bridge.ChannelCount
	// StartupSettle is the wait for the power supply to stabilize.
	StartupSettle = 100 * time.Millisecond
	// SelfTestOn is how long each lamp is on during the self test.
	SelfTestOn = 750 * time.Millisecond
	// DelayUnit is the length of a single step of the cycle delay.
	DelayUnit = time.Millisecond
)

// PWM is the timer configuration: fast PWM from an 8MHz clock divided by 1024.
// The resulting ~30Hz base frequency keeps duty changes visible.
var PWM = bridge.PWMConfig{
	Mode:      bridge.PWMModeFast,
	ClockHz:   8000000,
	Prescaler: 1024,
	Top:       255,
}

// PWMFrequencyHz is the base frequency of the lamp PWM signal.
var PWMFrequencyHz = PWM.Frequency()

// Source of pseudo random values.
type Source interface {
	Draw() uint16
}

var _ Source = &prg.Generator{}

// DutyCycle reduces a draw to a compare value in [MinDuty..254].
func DutyCycle(draw uint16) uint8 {
	value := draw % DutyModulus
	if value < uint16(MinDuty) {
		value = uint16(MinDuty)
	}
	return uint8(value)
}

// CycleDelay reduces a draw to a number of delay units in [0..MaxDelayMS).
func CycleDelay(draw uint16) uint16 {
	return draw % MaxDelayMS
}

// NextDutyCycle draws a new compare value.
func NextDutyCycle(src Source) uint8 {
	return DutyCycle(src.Draw())
}

// NextDelay draws a new number of delay units.
func NextDelay(src Source) uint16 {
	return CycleDelay(src.Draw())
}

// Cycle is the outcome of a single flicker step.
type Cycle struct {
	// Compare value per channel
	Duty [ChannelCount]uint8
	// Number of delay units to wait before the next cycle
	Delay uint16
}

// DelayDuration returns the wait as a duration.
func (c Cycle) DelayDuration() time.Duration {
	return time.Duration(c.Delay) * DelayUnit
}

// NextCycle draws one compare value per channel, in channel order,
// followed by the delay.
func NextCycle(src Source) Cycle {
	var c Cycle
	for _, ch := range bridge.Channels {
		c.Duty[ch] = NextDutyCycle(src)
	}
	c.Delay = NextDelay(src)
	return c
}

// Step computes the cycle that follows the given generator state
// and returns it together with the new generator state.
func Step(state uint16) (Cycle, uint16) {
	g := prg.New(state)
	c := NextCycle(g)
	return c, g.State()
}
