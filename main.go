//    Copyright 2017 Ewout Prangsma
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

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/LampFire/pkg/environment"
	"github.com/binkynet/LampFire/pkg/logging"
	"github.com/binkynet/LampFire/pkg/server"
	"github.com/binkynet/LampFire/pkg/service"
	"github.com/binkynet/LampFire/pkg/service/bridge"
	"github.com/binkynet/LampFire/pkg/ui"
)

const (
	projectName       = "LampFire"
	defaultServerPort = 7130
	defaultSSHPort    = 7131
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		Exitf("%v\n", err)
	}
}

// run the program until it is terminated or fails.
// Resources opened here are closed before main exits.
func run(args []string) error {
	var levelFlag string
	var serverHost string
	var serverPort int
	var sshPort int
	var bridgeType string
	var showUI bool
	var logFile string

	fs := pflag.NewFlagSet(projectName, pflag.ContinueOnError)
	fs.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	fs.StringVarP(&bridgeType, "bridge", "b", environment.BridgeTypeAuto, "Type of bridge to use (auto|virtual|rpi)")
	fs.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP & SSH servers will listen on")
	fs.IntVar(&serverPort, "port", defaultServerPort, "Port the HTTP server will listen on (0 disables the server)")
	fs.IntVar(&sshPort, "ssh-port", defaultSSHPort, "Port the SSH server showing the lamps will listen on (0 disables the server)")
	fs.BoolVar(&showUI, "ui", false, "Show the lamps in the terminal")
	fs.StringVar(&logFile, "log-file", "", "Also write logs to this file")
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	var logOutputs []io.Writer
	if !showUI {
		logOutputs = append(logOutputs, logging.Console())
	}
	if logFile != "" {
		f, err := logging.OpenFile(logFile)
		if err != nil {
			return errors.Wrap(err, "Failed to open log file")
		}
		defer f.Close()
		logOutputs = append(logOutputs, f)
	}
	logger, err := logging.New(levelFlag, logOutputs...)
	if err != nil {
		return err
	}

	if bridgeType == environment.BridgeTypeAuto {
		bridgeType = environment.AutoDetectBridgeType(logger)
	}
	var br bridge.API
	switch bridgeType {
	case environment.BridgeTypeRPI:
		br, err = bridge.NewRaspberryPiBridge(logger)
		if err != nil {
			return errors.Wrap(err, "Failed to initialize Raspberry Pi Bridge")
		}
	case environment.BridgeTypeVirtual:
		br, err = bridge.NewVirtualBridge(logger)
		if err != nil {
			return errors.Wrap(err, "Failed to initialize Virtual Bridge")
		}
	default:
		return errors.Errorf("Unknown bridge type '%s' (auto|virtual|rpi)", bridgeType)
	}

	svc, err := service.NewService(service.Config{
		ProgramVersion: projectVersion,
		BridgeType:     bridgeType,
	}, service.Dependencies{
		Logger: logger,
		Bridge: br,
	})
	if err != nil {
		br.Close()
		return errors.Wrap(err, "Failed to initialize Service")
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	if !showUI {
		fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	if serverPort != 0 || sshPort != 0 {
		srv, err := server.New(server.Config{
			Host:     serverHost,
			HTTPPort: serverPort,
			SSHPort:  sshPort,
		}, logger, svc.Status(), ui.NewSessionHandler(logger, svc.Status()))
		if err != nil {
			cancel()
			g.Wait()
			return errors.Wrap(err, "Failed to initialize Server")
		}
		g.Go(func() error { return srv.Run(ctx) })
	}
	if showUI {
		g.Go(func() error { return ui.Run(ctx, logger, svc.Status(), cancel) })
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "Service run failed")
	}
	return nil
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
