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

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/service/status"
)

// Run shows the lamps in the terminal until the given context is canceled
// or the user quits. onQuit is called when the user quits.
func Run(ctx context.Context, log zerolog.Logger, statuses status.Service, onQuit func()) error {
	log = log.With().Str("component", "ui").Logger()
	root := NewRoot()
	root.snapshot = statuses.Latest()
	p := tea.NewProgram(root, tea.WithContext(ctx), tea.WithAltScreen())
	cancel := statuses.Subscribe(func(s status.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	defer cancel()

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "UI failed")
	}
	log.Debug().Msg("UI closed by user")
	if onQuit != nil {
		onQuit()
	}
	return nil
}
