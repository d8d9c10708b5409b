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

package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// New creates a logger with the given level name that writes
// to all given writers.
func New(levelName string, writers ...io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid log level '%s'", levelName)
	}
	return zerolog.New(NewMultiWriter(writers...)).
		Level(level).
		With().Timestamp().Logger(), nil
}

// Console returns a human friendly log output on stderr.
func Console() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr}
}

// OpenFile opens (or creates) a log file for appending.
func OpenFile(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file '%s'", path)
	}
	return f, nil
}
