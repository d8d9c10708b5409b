// Copyright 2023 Ewout Prangsma
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

package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/labstack/echo/v4"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binkynet/LampFire/pkg/service/status"
)

const (
	// Created on first start when missing
	sshHostKeyPath = ".ssh/id_ed25519"
)

// Config for the HTTP & SSH server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests (0 disables HTTP)
	HTTPPort int
	// Port to listen on for SSH requests (0 disables SSH)
	SSHPort int
}

// UI creates the terminal program shown to an SSH session.
type UI interface {
	Program(sess ssh.Session) *tea.Program
}

// Server runs the HTTP & SSH servers for the service.
type Server struct {
	Config
	log    zerolog.Logger
	status status.Service
	ui     UI
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, status status.Service, ui UI) (*Server, error) {
	if cfg.SSHPort != 0 && ui == nil {
		return nil, errors.New("UI is required when SSH is enabled")
	}
	return &Server{
		Config: cfg,
		log:    log.With().Str("component", "server").Logger(),
		status: status,
		ui:     ui,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.log
	serveErr := make(chan error, 2)

	// Prepare & serve HTTP
	var httpSrv *http.Server
	if s.HTTPPort != 0 {
		httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
		httpLis, err := net.Listen("tcp", httpAddr)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on address %s", httpAddr)
		}
		httpSrv = &http.Server{
			Handler: s.newRouter(),
		}
		log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
		go func() {
			if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
				serveErr <- errors.Wrap(err, "failed to serve HTTP server")
			}
			log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
		}()
	}

	// Prepare & serve SSH
	var sshSrv *ssh.Server
	if s.SSHPort != 0 {
		sshAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.SSHPort))
		var err error
		sshSrv, err = s.newSSHServer(sshAddr)
		if err != nil {
			if httpSrv != nil {
				httpSrv.Shutdown(context.Background())
			}
			return errors.Wrap(err, "could not start SSH server")
		}
		log.Debug().Str("address", sshAddr).Msg("Serving SSH")
		go func() {
			if err := sshSrv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				serveErr <- errors.Wrap(err, "failed to serve SSH server")
			}
			log.Debug().Str("address", sshAddr).Msg("Done Serving SSH")
		}()
	}

	// Wait until context closed
	var result error
	select {
	case <-ctx.Done():
	case result = <-serveErr:
	}

	log.Info().Msg("Closing servers")
	if httpSrv != nil {
		httpSrv.Shutdown(context.Background())
	}
	if sshSrv != nil {
		sshSrv.Shutdown(context.Background())
	}
	return result
}

// newSSHServer builds an SSH server showing the lamps to every session.
func (s *Server) newSSHServer(addr string) (*ssh.Server, error) {
	sshLog := s.log.With().Str("transport", "ssh").Logger()
	return wish.NewServer(
		wish.WithAddress(addr),
		// An ED25519 key pair is created at this path when missing.
		wish.WithHostKeyPath(sshHostKeyPath),
		// The last item in the chain is the first to be called.
		wish.WithMiddleware(
			bubbletea.MiddlewareWithProgramHandler(s.ui.Program, termenv.ANSI256),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(&sshLog),
		),
	)
}

// newRouter builds the HTTP routes.
func (s *Server) newRouter() *echo.Echo {
	httpRouter := echo.New()
	httpRouter.HideBanner = true
	httpRouter.HidePort = true
	httpRouter.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpRouter.GET("/status", s.handleStatus)
	httpRouter.GET("/health", s.handleHealth)
	httpRouter.GET("/debug/pprof/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	httpRouter.GET("/debug/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	httpRouter.GET("/debug/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	httpRouter.POST("/debug/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	httpRouter.GET("/debug/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	httpRouter.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	return httpRouter
}

// handleStatus returns the latest lamp snapshot.
func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.status.Latest())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
