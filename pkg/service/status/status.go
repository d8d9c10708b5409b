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

package status

import (
	"context"
	"sync"
	"time"

	"github.com/mattn/go-pubsub"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/service/bridge"
)

// Phase of the flicker controller.
type Phase string

const (
	PhaseIdle     Phase = ""
	PhaseSettle   Phase = "settle"
	PhaseSelfTest Phase = "selftest"
	PhasePWMSetup Phase = "pwm-setup"
	PhaseRunning  Phase = "running"
	PhaseStopped  Phase = "stopped"
)

// Snapshot is the observable state of the flicker controller.
type Snapshot struct {
	// Publication sequence number, assigned by Publish
	Seq   uint64 `json:"seq"`
	Phase Phase  `json:"phase"`
	// Number of completed flicker cycles
	Cycles uint64 `json:"cycles"`
	// Compare register value per channel
	Duty [bridge.ChannelCount]uint8 `json:"duty"`
	// Plain output level per channel (self test only)
	Enabled [bridge.ChannelCount]bool `json:"enabled"`
	// Wait after the last cycle in milliseconds
	DelayMS uint16 `json:"delay_ms"`
	// Generator state after the last cycle
	State uint16    `json:"prg_state"`
	Time  time.Time `json:"time"`
}

// Service distributes snapshots to interested parties.
type Service interface {
	// Publish a new snapshot
	Publish(s Snapshot)
	// Latest returns the most recently published snapshot
	Latest() Snapshot
	// Subscribe registers a callback that receives published snapshots.
	// Callbacks are invoked asynchronously, one at a time per subscriber,
	// with increasing Seq. Snapshots overtaken by a newer one are skipped.
	Subscribe(cb func(Snapshot)) context.CancelFunc
}

type service struct {
	log         zerolog.Logger
	mutex       sync.Mutex
	latest      Snapshot
	snapshots   *pubsub.PubSub
	seq         uint64
	lastID      int
	subscribers map[int]*subscriber
}

// subscriber delivers snapshots to a single callback in order.
type subscriber struct {
	mutex   sync.Mutex
	lastSeq uint64
	cb      func(Snapshot)
}

// deliver passes the snapshot to the callback unless a newer one
// was already delivered.
func (sub *subscriber) deliver(log zerolog.Logger, snapshot Snapshot) {
	sub.mutex.Lock()
	defer sub.mutex.Unlock()
	if snapshot.Seq <= sub.lastSeq {
		staleSnapshotsTotal.Inc()
		return
	}
	sub.lastSeq = snapshot.Seq
	defer func() {
		if r := recover(); r != nil {
			subscriberPanicsTotal.Inc()
			log.Error().Interface("panic", r).Uint64("seq", snapshot.Seq).Msg("Status subscriber panicked")
		}
	}()
	sub.cb(snapshot)
}

// NewService creates a new status Service.
func NewService(log zerolog.Logger) Service {
	s := &service{
		log:         log,
		snapshots:   pubsub.New(),
		subscribers: make(map[int]*subscriber),
	}
	if err := s.snapshots.Sub(s.dispatch); err != nil {
		log.Error().Err(err).Msg("Failed to subscribe status dispatcher")
	}
	go s.logErrors()
	return s
}

// Publish a new snapshot
func (s *service) Publish(snapshot Snapshot) {
	s.mutex.Lock()
	s.seq++
	snapshot.Seq = s.seq
	s.latest = snapshot
	s.mutex.Unlock()
	snapshotsPublishedTotal.Inc()
	s.snapshots.Pub(snapshot)
}

// Latest returns the most recently published snapshot
func (s *service) Latest() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.latest
}

// Subscribe registers a callback that receives published snapshots.
func (s *service) Subscribe(cb func(Snapshot)) context.CancelFunc {
	s.mutex.Lock()
	s.lastID++
	id := s.lastID
	s.subscribers[id] = &subscriber{cb: cb}
	s.mutex.Unlock()
	subscribersGauge.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mutex.Lock()
			delete(s.subscribers, id)
			s.mutex.Unlock()
			subscribersGauge.Dec()
		})
	}
}

// dispatch passes a published snapshot to all subscribers.
func (s *service) dispatch(snapshot Snapshot) {
	s.mutex.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mutex.Unlock()
	for _, sub := range subs {
		sub.deliver(s.log, snapshot)
	}
}

// logErrors reports panics that escaped the dispatcher.
func (s *service) logErrors() {
	for err := range s.snapshots.Error() {
		s.log.Error().Err(err).Msg("Status subscriber failed")
	}
}
