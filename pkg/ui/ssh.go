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
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/service/status"
)

// SessionHandler creates a lamp view per SSH session.
type SessionHandler struct {
	log      zerolog.Logger
	statuses status.Service
}

// NewSessionHandler creates a handler showing snapshots of the given service.
func NewSessionHandler(log zerolog.Logger, statuses status.Service) *SessionHandler {
	return &SessionHandler{
		log:      log.With().Str("component", "ui.ssh").Logger(),
		statuses: statuses,
	}
}

// Program builds the bubbletea program for the given session.
// The program receives snapshots until the session ends.
func (h *SessionHandler) Program(sess ssh.Session) *tea.Program {
	root := NewRoot()
	root.snapshot = h.statuses.Latest()
	opts := append(bubbletea.MakeOptions(sess), tea.WithAltScreen(), tea.WithContext(sess.Context()))
	p := tea.NewProgram(root, opts...)
	cancel := h.statuses.Subscribe(func(s status.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	h.log.Debug().Str("user", sess.User()).Str("remote", sess.RemoteAddr().String()).Msg("Session opened")
	go func() {
		<-sess.Context().Done()
		cancel()
		h.log.Debug().Str("user", sess.User()).Msg("Session closed")
	}()
	return p
}
