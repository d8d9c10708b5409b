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
	"github.com/binkynet/LampFire/pkg/metrics"
)

const (
	subSystem = "flicker"
)

var (
	// Total number of completed flicker cycles
	cyclesTotal = metrics.MustRegisterCounter(subSystem,
		"cycles_total",
		"Total number of completed flicker cycles")
	// Total number of values drawn from the generator
	drawsTotal = metrics.MustRegisterCounter(subSystem,
		"draws_total",
		"Total number of pseudo random draws")
	// Distribution of the wait between cycles
	cycleDelayHistogram = metrics.MustRegisterHistogram(subSystem,
		"cycle_delay_ms",
		"Wait between flicker cycles in milliseconds",
		0, 5, 10)
)
