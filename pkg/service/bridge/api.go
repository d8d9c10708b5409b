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
	"strconv"
	"time"
)

// Channel identifies one of the lamp outputs.
type Channel uint8

const (
	// Channel0 is the first lamp output (OC0A on the original board).
	Channel0 Channel = 0
	// Channel1 is the second lamp output (OC0B on the original board).
	Channel1 Channel = 1
	// ChannelCount is the fixed number of lamp outputs.
	ChannelCount = 2
)

// Channels lists all lamp outputs in order.
var Channels = [ChannelCount]Channel{Channel0, Channel1}

// String returns the channel number as text, used as metrics label.
func (c Channel) String() string {
	return strconv.Itoa(int(c))
}

// Valid returns true if the channel is one of the fixed lamp outputs.
func (c Channel) Valid() bool {
	return int(c) < ChannelCount
}

// API of the bridge, the hardware that holds the lamp outputs
// and the timer that generates the PWM signal on them.
type API interface {
	// Returns number of lamp outputs
	ChannelCount() int
	// ConfigureOutput sets the direction of the given channel to output.
	ConfigureOutput(ch Channel) error
	// Enable drives the given channel fully on or off.
	// Used before the PWM timer takes over the outputs.
	Enable(ch Channel, on bool) error
	// ConfigurePWM starts the PWM timer on all channels.
	ConfigurePWM(cfg PWMConfig) error
	// SetDuty sets the compare threshold of the given channel.
	SetDuty(ch Channel, value uint8) error
	// Delay blocks for the given duration or until the context is canceled.
	Delay(ctx context.Context, d time.Duration) error

	Close() error
}

// OutputPin is the interface satisfied by GPIO output pins.
type OutputPin interface {
	Write(bool) error
}

// sleep waits for the given duration, returning early with
// the context error when the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
