//    Copyright 2023 Ewout Prangsma
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
	"github.com/binkynet/LampFire/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of compare register writes
	setDutyCounters = metrics.MustRegisterCounterVec(subSystem,
		"set_duty_total",
		"Total number of times SetDuty is called",
		"channel")
	// Current compare register value
	dutyGauges = metrics.MustRegisterGaugeVec(subSystem,
		"duty",
		"Current compare register value of a channel",
		"channel")
	// Total number of output enable writes
	enableCounters = metrics.MustRegisterCounterVec(subSystem,
		"enable_total",
		"Total number of times Enable is called",
		"channel")
	// Total number of failed bridge operations
	errorCounters = metrics.MustRegisterCounterVec(subSystem,
		"error_total",
		"Total number of failed bridge operations",
		"op")
	// Time spent in Delay
	delaySecondsTotal = metrics.MustRegisterCounter(subSystem,
		"delay_seconds_total",
		"Total time requested through Delay")
)
