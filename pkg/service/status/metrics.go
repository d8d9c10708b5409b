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
	"github.com/binkynet/LampFire/pkg/metrics"
)

const (
	subSystem = "status"
)

var (
	// Total number of published snapshots
	snapshotsPublishedTotal = metrics.MustRegisterCounter(subSystem,
		"snapshots_published_total",
		"Total number of published status snapshots")
	// Number of active subscribers
	subscribersGauge = metrics.MustRegisterGauge(subSystem,
		"subscribers",
		"Number of active status subscribers")
	// Snapshots skipped because a newer one was delivered first
	staleSnapshotsTotal = metrics.MustRegisterCounter(subSystem,
		"stale_snapshots_total",
		"Total number of snapshots skipped because a newer one was already delivered")
	// Panics raised by subscriber callbacks
	subscriberPanicsTotal = metrics.MustRegisterCounter(subSystem,
		"subscriber_panics_total",
		"Total number of panics raised by status subscribers")
)
