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
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// softPWM generates a PWM signal on a plain GPIO output pin.
// A new compare value takes effect at the start of the next period,
// like the double buffered compare register of a hardware timer.
type softPWM struct {
	log     zerolog.Logger
	pin     OutputPin
	cfg     PWMConfig
	compare atomic.Uint32
	cancel  context.CancelFunc
	done    chan struct{}
}

// startSoftPWM starts generating a signal on the given pin.
func startSoftPWM(log zerolog.Logger, pin OutputPin, cfg PWMConfig, initial uint8) *softPWM {
	ctx, cancel := context.WithCancel(context.Background())
	p := &softPWM{
		log:    log,
		pin:    pin,
		cfg:    cfg,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.compare.Store(uint32(initial))
	go p.run(ctx)
	return p
}

// Set the compare value.
func (p *softPWM) Set(value uint8) {
	p.compare.Store(uint32(value))
}

// Get the compare value.
func (p *softPWM) Get() uint8 {
	return uint8(p.compare.Load())
}

// Stop the signal and leave the pin low.
func (p *softPWM) Stop() error {
	p.cancel()
	<-p.done
	return p.pin.Write(false)
}

func (p *softPWM) run(ctx context.Context) {
	defer close(p.done)
	period := p.cfg.Period()
	level, known := false, false
	write := func(v bool) {
		if known && level == v {
			return
		}
		if err := p.pin.Write(v); err != nil {
			errorCounters.WithLabelValues("pwm_write").Inc()
			p.log.Debug().Err(err).Msg("pwm pin write failed")
			return
		}
		level, known = v, true
	}
	for {
		high := p.cfg.HighTime(p.Get())
		if high > 0 {
			write(true)
			if sleep(ctx, high) != nil {
				return
			}
		}
		if low := period - high; low > 0 {
			write(false)
			if sleep(ctx, low) != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}
