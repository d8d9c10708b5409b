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

package bridge

import (
	"time"

	"github.com/pkg/errors"
)

// PWMMode selects the waveform generated by the timer.
type PWMMode int

const (
	// PWMModeFast sets the output at the bottom of the counter
	// and clears it on compare match (leading edge PWM).
	PWMModeFast PWMMode = iota + 1
)

// String returns a human readable name of the mode.
func (m PWMMode) String() string {
	switch m {
	case PWMModeFast:
		return "fast"
	default:
		return "unknown"
	}
}

// PWMConfig describes the timer that drives the lamp outputs.
type PWMConfig struct {
	Mode PWMMode
	// Frequency of the clock that feeds the prescaler
	ClockHz uint32
	// Clock division factor
	Prescaler uint32
	// Highest counter value; the counter wraps to 0 after it.
	Top uint16
}

// Validate returns an error when the configuration cannot generate a signal.
func (c PWMConfig) Validate() error {
	if c.Mode != PWMModeFast {
		return errors.Wrapf(InvalidPWMConfigError, "unsupported mode %d", c.Mode)
	}
	if c.ClockHz == 0 || c.Prescaler == 0 {
		return errors.Wrap(InvalidPWMConfigError, "clock and prescaler must be non-zero")
	}
	if c.Top == 0 {
		return errors.Wrap(InvalidPWMConfigError, "top must be non-zero")
	}
	return nil
}

// Tick returns the duration of a single counter step.
func (c PWMConfig) Tick() time.Duration {
	return time.Duration(uint64(time.Second) * uint64(c.Prescaler) / uint64(c.ClockHz))
}

// Period returns the duration of a full PWM cycle.
func (c PWMConfig) Period() time.Duration {
	return c.Tick() * time.Duration(uint32(c.Top)+1)
}

// Frequency returns the PWM base frequency in Hz.
func (c PWMConfig) Frequency() float64 {
	return float64(c.ClockHz) / float64(c.Prescaler) / (float64(c.Top) + 1)
}

// HighTime returns how long the output is high during a single period
// for the given compare value. In fast mode the output stays high
// up to and including the compare match, so a value of 0 still yields
// a single tick and a value equal to Top keeps the output on.
func (c PWMConfig) HighTime(value uint8) time.Duration {
	ticks := uint32(value) + 1
	if limit := uint32(c.Top) + 1; ticks > limit {
		ticks = limit
	}
	return c.Tick() * time.Duration(ticks)
}
