// Copyright 2020 Ewout Prangsma
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

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/prg"
	"github.com/binkynet/LampFire/pkg/service/bridge"
	"github.com/binkynet/LampFire/pkg/service/flicker"
	"github.com/binkynet/LampFire/pkg/service/status"
)

type Service interface {
	// Run the lamps until the given context is cancelled.
	Run(ctx context.Context) error
	// Status gives access to the state of the lamps.
	Status() status.Service
}

type Config struct {
	ProgramVersion string
	BridgeType     string
}

type Dependencies struct {
	Logger zerolog.Logger
	Bridge bridge.API
	// Status is created when nil
	Status status.Service
}

type service struct {
	Config
	Dependencies
	startedAt time.Time
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	if deps.Bridge == nil {
		return nil, errors.New("Bridge is required")
	}
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	if deps.Status == nil {
		deps.Status = status.NewService(deps.Logger)
	}
	return &service{
		Config:       conf,
		Dependencies: deps,
		startedAt:    time.Now(),
	}, nil
}

// Status gives access to the state of the lamps.
func (s *service) Status() status.Service {
	return s.Dependencies.Status
}

// Run starts the flicker controller and keeps it running until
// the given context is canceled. The bridge is closed on return.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	defer func() {
		if err := s.Bridge.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close bridge")
		}
	}()

	serviceInfo.WithLabelValues(s.ProgramVersion, s.BridgeType).Set(1)
	startTimeGauge.Set(float64(s.startedAt.Unix()))
	log.Info().
		Str("bridge", s.BridgeType).
		Str("seed", fmt.Sprintf("0x%04X", prg.DefaultSeed)).
		Msg("Starting lamps")

	ctrl := flicker.NewController(flicker.Dependencies{
		Log:       s.Logger,
		Bridge:    s.Bridge,
		Status:    s.Dependencies.Status,
		Generator: prg.NewDefault(),
	})
	if err := ctrl.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Flicker controller failed")
		return errors.Wrap(err, "Flicker failed")
	}
	log.Info().Dur("uptime", time.Since(s.startedAt)).Msg("Lamps stopped")
	return nil
}
