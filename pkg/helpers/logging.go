// Convoy CLI
// Copyright (c) 2026 The Convoy Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Convoy CLI.
//
// Convoy CLI is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Convoy CLI is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Convoy CLI.  If not, see <http://www.gnu.org/licenses/>.

package helpers

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var logWriter io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

// LogWriter returns the writer the global logger currently targets,
// so additional sinks can be layered on top of it.
func LogWriter() io.Writer {
	return logWriter
}

// InitLogging configures the global zerolog logger. Verbosity maps to
// levels the same way the -v flag counts: 0 warn, 1 info, 2+ debug.
// When logFile is non-empty, output is additionally written to a
// rotating file.
func InitLogging(verbosity int, logFile string) {
	level := zerolog.WarnLevel
	switch {
	case verbosity >= 2:
		level = zerolog.DebugLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	if logFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    1,
			MaxBackups: 2,
		})
	}

	logWriter = io.MultiWriter(writers...)
	log.Logger = log.Output(logWriter).
		Level(level).
		With().Timestamp().Logger()
}
