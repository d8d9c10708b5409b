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
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLatest(t *testing.T) {
	s := NewService(zerolog.Nop())
	if got := s.Latest(); got.Phase != PhaseIdle || got.Cycles != 0 {
		t.Fatalf("unexpected initial snapshot %+v", got)
	}
	s.Publish(Snapshot{Phase: PhaseRunning, Cycles: 3, Duty: [2]uint8{50, 99}})
	got := s.Latest()
	if got.Phase != PhaseRunning || got.Cycles != 3 || got.Duty != [2]uint8{50, 99} {
		t.Errorf("unexpected latest snapshot %+v", got)
	}
}

func TestSubscribe(t *testing.T) {
	s := NewService(zerolog.Nop())
	received := make(chan Snapshot, 16)
	cancel := s.Subscribe(func(x Snapshot) {
		received <- x
	})
	defer cancel()

	s.Publish(Snapshot{Phase: PhaseSettle})
	select {
	case x := <-received:
		if x.Phase != PhaseSettle {
			t.Errorf("unexpected phase %q", x.Phase)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot not delivered")
	}
}

func TestUnsubscribe(t *testing.T) {
	s := NewService(zerolog.Nop())
	first := make(chan Snapshot, 16)
	second := make(chan Snapshot, 16)
	cancelFirst := s.Subscribe(func(x Snapshot) { first <- x })
	cancelSecond := s.Subscribe(func(x Snapshot) { second <- x })
	defer cancelSecond()

	cancelFirst()
	cancelFirst() // Second call is a no-op
	s.Publish(Snapshot{Phase: PhaseRunning, Cycles: 1})
	select {
	case x := <-second:
		if x.Cycles != 1 {
			t.Errorf("unexpected snapshot %+v", x)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot not delivered to remaining subscriber")
	}
	select {
	case x := <-first:
		t.Errorf("canceled subscriber received %+v", x)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishAssignsSequence(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.Publish(Snapshot{Phase: PhaseSettle, Seq: 99})
	if got := s.Latest().Seq; got != 1 {
		t.Errorf("Seq = %d, expected 1", got)
	}
	s.Publish(Snapshot{Phase: PhaseSelfTest})
	if got := s.Latest().Seq; got != 2 {
		t.Errorf("Seq = %d, expected 2", got)
	}
}

func TestSubscriberReceivesInOrder(t *testing.T) {
	const count = 2000
	s := NewService(zerolog.Nop())
	var mutex sync.Mutex
	var seqs []uint64
	done := make(chan struct{})
	cancel := s.Subscribe(func(x Snapshot) {
		mutex.Lock()
		defer mutex.Unlock()
		seqs = append(seqs, x.Seq)
		if x.Cycles == count {
			close(done)
		}
	})
	defer cancel()

	for i := 1; i <= count; i++ {
		s.Publish(Snapshot{Phase: PhaseRunning, Cycles: uint64(i)})
	}
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("last snapshot not delivered")
	}
	mutex.Lock()
	defer mutex.Unlock()
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("delivery %d has seq %d after %d", i, seqs[i], seqs[i-1])
		}
	}
}

func TestPanickingSubscriber(t *testing.T) {
	s := NewService(zerolog.Nop())
	cancelBad := s.Subscribe(func(x Snapshot) { panic("boom") })
	defer cancelBad()
	received := make(chan Snapshot, 16)
	cancel := s.Subscribe(func(x Snapshot) { received <- x })
	defer cancel()

	for i := 1; i <= 3; i++ {
		s.Publish(Snapshot{Phase: PhaseRunning, Cycles: uint64(i)})
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case x := <-received:
			if x.Cycles == 3 {
				return
			}
		case <-deadline:
			t.Fatal("snapshots not delivered next to a panicking subscriber")
		}
	}
}
