// Logging
//
// Copyright (c) 2024, 2025  Atila Sos
//
// This file is part of crjm-server.
//
// crjm-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// crjm-server is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with crjm-server. If not, see
// <http://www.gnu.org/licenses/>

package crjm

import (
	"os"

	"github.com/rs/zerolog"
)

var (
	// Log is the operational logger
	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)

	// Debug is discarded unless enabled via the configuration
	Debug = zerolog.Nop()
)

// EnableDebug lowers Log's threshold to debug and activates the
// Debug logger.  Call before handing Log to any consumer.
func EnableDebug() {
	Log = Log.Level(zerolog.DebugLevel)
	Debug = Log
}
