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

package prg

import "testing"

func TestDrawVectors(t *testing.T) {
	tests := []struct {
		name     string
		state    uint16
		feedback uint16
		expected uint16
	}{
		{"bit15", 0x8000, 1, 0x0001},
		{"bit14", 0x4000, 1, 0x8001},
		{"zero", 0x0000, 0, 0x0002},
		{"one", 0x0001, 0, 0x0002},
		{"bit3", 0x0008, 1, 0x0011},
		{"bit12", 0x1000, 1, 0x2001},
		{"bits15and14", 0xC000, 0, 0x8000},
		{"all", 0xFFFF, 0, 0xFFFE},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			effective := tc.state
			if effective == 0 {
				effective = 1
			}
			if fb := Feedback(effective); fb != tc.feedback {
				t.Errorf("Feedback(0x%04x) = %d, expected %d", effective, fb, tc.feedback)
			}
			g := New(tc.state)
			if v := g.Draw(); v != tc.expected {
				t.Errorf("Draw from 0x%04x = 0x%04x, expected 0x%04x", tc.state, v, tc.expected)
			}
			if g.State() != tc.expected {
				t.Errorf("State after draw = 0x%04x, expected 0x%04x", g.State(), tc.expected)
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	for _, seed := range []uint16{0, 1, DefaultSeed, 0x1234, 0xFFFF} {
		a, b := New(seed), New(seed)
		for i := 0; i < 10000; i++ {
			va, vb := a.Draw(), b.Draw()
			if va != vb {
				t.Fatalf("seed 0x%04x diverged at draw %d: 0x%04x != 0x%04x", seed, i, va, vb)
			}
		}
	}
}

func TestDrawAdvancesOnce(t *testing.T) {
	g := NewDefault()
	if g.State() != DefaultSeed {
		t.Fatalf("initial state 0x%04x, expected 0x%04x", g.State(), DefaultSeed)
	}
	prev := g.State()
	for i := 0; i < 100; i++ {
		v := g.Draw()
		expected := (prev << 1) + Feedback(prev)
		if v != expected {
			t.Fatalf("draw %d: got 0x%04x, expected 0x%04x", i, v, expected)
		}
		prev = v
	}
}

func TestZeroNeverSticks(t *testing.T) {
	g := New(0)
	if v := g.Draw(); v == 0 {
		t.Fatal("first draw from zero state must not be zero")
	}
	// Even if the register passes through zero, the next draw recovers.
	for i := 0; i < 200000; i++ {
		v := g.Draw()
		if v == 0 {
			if next := g.Draw(); next == 0 {
				t.Fatalf("generator stuck at zero after draw %d", i)
			}
		}
	}
}

func TestAllStatesAdvance(t *testing.T) {
	for s := 0; s <= 0xFFFF; s++ {
		g := New(uint16(s))
		before := uint16(s)
		if before == 0 {
			before = 1
		}
		v := g.Draw()
		if v != uint16(before<<1)+Feedback(before) {
			t.Fatalf("state 0x%04x: unexpected draw 0x%04x", s, v)
		}
	}
}

func TestZeroSeedBehavesAsOne(t *testing.T) {
	zero, one := New(0), New(1)
	for i := 0; i < 1000; i++ {
		if a, b := zero.Draw(), one.Draw(); a != b {
			t.Fatalf("draw %d: seed 0 gave 0x%04x, seed 1 gave 0x%04x", i, a, b)
		}
	}
}
