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

// Package prg implements the 16-bit linear feedback shift register
// that feeds the lamp flicker.
package prg

const (
	// DefaultSeed is the state a generator starts with when no seed is given.
	// There is no entropy source on the device, so this is fixed.
	DefaultSeed uint16 = 0xACE1

	tap15 = 0x8000
	tap14 = 0x4000
	tap12 = 0x1000
	tap3  = 0x0008
)

// Generator is a 16-bit LFSR with taps at bits 15, 14, 12 and 3.
// It is not safe for concurrent use.
type Generator struct {
	state uint16
}

// New creates a generator with the given initial state.
// A zero seed is accepted; it is replaced by 1 on the first draw.
func New(seed uint16) *Generator {
	return &Generator{state: seed}
}

// NewDefault creates a generator seeded with DefaultSeed.
func NewDefault() *Generator {
	return New(DefaultSeed)
}

// State returns the current state, which equals the last drawn value.
func (g *Generator) State() uint16 {
	return g.state
}

// Draw advances the register by one step and returns the new state.
func (g *Generator) Draw() uint16 {
	if g.state == 0 {
		g.state = 1
	}
	g.state = (g.state << 1) + Feedback(g.state)
	return g.state
}

// Feedback returns the feedback bit (0 or 1) for the given state.
func Feedback(state uint16) uint16 {
	var bit uint16
	if state&tap15 != 0 {
		bit = 1
	}
	if state&tap14 != 0 {
		bit ^= 1
	}
	if state&tap12 != 0 {
		bit ^= 1
	}
	if state&tap3 != 0 {
		bit ^= 1
	}
	return bit
}
