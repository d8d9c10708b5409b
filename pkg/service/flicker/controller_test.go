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
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/prg"
	"github.com/binkynet/LampFire/pkg/service/bridge"
	"github.com/binkynet/LampFire/pkg/service/status"
)

// recordingBridge records all calls without touching hardware or sleeping.
type recordingBridge struct {
	// Reported channel count; bridge.ChannelCount when zero
	channels int
	events   []string
	failOp   string
	onDelay  func()
}

func (b *recordingBridge) record(op string) error {
	b.events = append(b.events, op)
	if b.failOp != "" && op == b.failOp {
		return errors.New("injected failure")
	}
	return nil
}

func (b *recordingBridge) ChannelCount() int {
	if b.channels != 0 {
		return b.channels
	}
	return bridge.ChannelCount
}

func (b *recordingBridge) ConfigureOutput(ch bridge.Channel) error {
	return b.record(fmt.Sprintf("output %d", ch))
}

func (b *recordingBridge) Enable(ch bridge.Channel, on bool) error {
	return b.record(fmt.Sprintf("enable %d %v", ch, on))
}

func (b *recordingBridge) ConfigurePWM(cfg bridge.PWMConfig) error {
	return b.record(fmt.Sprintf("pwm %s /%d", cfg.Mode, cfg.Prescaler))
}

func (b *recordingBridge) SetDuty(ch bridge.Channel, value uint8) error {
	return b.record(fmt.Sprintf("duty %d %d", ch, value))
}

func (b *recordingBridge) Delay(ctx context.Context, d time.Duration) error {
	if err := b.record(fmt.Sprintf("delay %s", d)); err != nil {
		return err
	}
	if b.onDelay != nil {
		b.onDelay()
	}
	return ctx.Err()
}

func (b *recordingBridge) Close() error { return nil }

func TestStartupSequence(t *testing.T) {
	br := &recordingBridge{}
	statuses := status.NewService(zerolog.Nop())
	c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br, Status: statuses})
	if err := c.Startup(context.Background()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	expected := []string{
		"delay 100ms",
		"output 0",
		"output 1",
		"enable 0 true",
		"delay 750ms",
		"enable 0 false",
		"enable 1 true",
		"delay 750ms",
		"enable 1 false",
		"pwm fast /1024",
		"duty 0 50",
		"duty 1 50",
	}
	if len(br.events) != len(expected) {
		t.Fatalf("got events %v, expected %v", br.events, expected)
	}
	for i := range expected {
		if br.events[i] != expected[i] {
			t.Errorf("event %d: got %q, expected %q", i, br.events[i], expected[i])
		}
	}
	latest := statuses.Latest()
	if latest.Phase != status.PhaseRunning {
		t.Errorf("phase %q, expected running", latest.Phase)
	}
	if latest.Duty != [bridge.ChannelCount]uint8{MinDuty, MinDuty} {
		t.Errorf("duty %v, expected floor on both channels", latest.Duty)
	}
	if latest.Enabled != [bridge.ChannelCount]bool{} {
		t.Errorf("outputs still enabled after self test: %v", latest.Enabled)
	}
}

func TestStartupChannelCountMismatch(t *testing.T) {
	br := &recordingBridge{channels: 1}
	c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br})
	if err := c.Startup(context.Background()); err == nil {
		t.Fatal("expected error for a single channel bridge")
	}
	if len(br.events) != 0 {
		t.Errorf("bridge used despite mismatch: %v", br.events)
	}
}

func TestRunCycleMatchesStep(t *testing.T) {
	br := &recordingBridge{}
	c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br, Generator: prg.New(0x1234)})
	state := uint16(0x1234)
	for i := 0; i < 500; i++ {
		br.events = nil
		expected, next := Step(state)
		cycle, err := c.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("RunCycle failed: %v", err)
		}
		if cycle != expected {
			t.Fatalf("cycle %d: got %+v, expected %+v", i, cycle, expected)
		}
		events := []string{
			fmt.Sprintf("duty 0 %d", expected.Duty[0]),
			fmt.Sprintf("duty 1 %d", expected.Duty[1]),
		}
		if expected.Delay > 0 {
			events = append(events, fmt.Sprintf("delay %s", expected.DelayDuration()))
		}
		if fmt.Sprint(br.events) != fmt.Sprint(events) {
			t.Fatalf("cycle %d: events %v, expected %v", i, br.events, events)
		}
		if s := c.Snapshot(); s.State != next || s.Cycles != uint64(i+1) {
			t.Fatalf("cycle %d: snapshot %+v, expected state 0x%04x", i, s, next)
		}
		state = next
	}
}

func TestRunCycleZeroDelay(t *testing.T) {
	br := &recordingBridge{}
	c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br})
	for i := 0; i < 100000; i++ {
		br.events = nil
		cycle, err := c.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("RunCycle failed: %v", err)
		}
		if cycle.Delay == 0 {
			if len(br.events) != bridge.ChannelCount {
				t.Fatalf("zero delay cycle must not wait: %v", br.events)
			}
			return
		}
	}
	t.Fatal("no zero delay cycle found")
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	delays := 0
	br := &recordingBridge{}
	br.onDelay = func() {
		delays++
		if delays == 20 {
			cancel()
		}
	}
	statuses := status.NewService(zerolog.Nop())
	c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br, Status: statuses})
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	s := c.Snapshot()
	if s.Phase != status.PhaseStopped {
		t.Errorf("phase %q, expected stopped", s.Phase)
	}
	if s.Cycles == 0 {
		t.Error("expected some cycles to run")
	}
	if latest := statuses.Latest(); latest.Phase != status.PhaseStopped {
		t.Errorf("published phase %q, expected stopped", latest.Phase)
	}
}

func TestRunCanceledDuringStartup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	br := &recordingBridge{}
	c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br})
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(br.events) != 1 || br.events[0] != "delay 100ms" {
		t.Errorf("unexpected events %v", br.events)
	}
}

func TestRunBridgeFailure(t *testing.T) {
	tests := []string{"output 1", "enable 0 true", "pwm fast /1024", "duty 1 50"}
	for _, op := range tests {
		t.Run(op, func(t *testing.T) {
			br := &recordingBridge{failOp: op}
			c := NewController(Dependencies{Log: zerolog.Nop(), Bridge: br})
			err := c.Run(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if br.events[len(br.events)-1] != op {
				t.Errorf("controller continued after failure: %v", br.events)
			}
		})
	}
}
