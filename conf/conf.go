// Server configuration
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

// Package conf loads the TOML server configuration.
package conf

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// data mirrors the TOML file layout
type data struct {
	Addr  string `toml:"addr"`
	Debug bool   `toml:"debug"`

	Admin struct {
		Enabled bool `toml:"enabled"`
	} `toml:"admin"`

	Database struct {
		File string `toml:"file"`
	} `toml:"database"`

	Game struct {
		BotLevel       string `toml:"bot-level"`
		BotSeed        int64  `toml:"bot-seed"`
		BotDelay       string `toml:"bot-delay"`
		InterGamePause string `toml:"inter-game-pause"`
		AutoReady      bool   `toml:"auto-ready"`
		MoveCap        int    `toml:"move-cap"`
	} `toml:"game"`
}

// Conf is the parsed and validated configuration
type Conf struct {
	// Addr is the listen address of the HTTP server
	Addr string
	// Debug enables verbose logging
	Debug bool
	// Admin enables the operator API
	Admin bool
	// Database is the sqlite archive file; empty disables archiving
	Database string

	// BotLevel is "basic" or "advanced"
	BotLevel string
	// BotSeed seeds bot move selection and bracket shuffling
	BotSeed int64
	// BotDelay is how long a bot pretends to think
	BotDelay time.Duration
	// InterGamePause separates the games of a match
	InterGamePause time.Duration
	// AutoReady starts matches without waiting for ready frames
	AutoReady bool
	// MoveCap aborts a runaway session as a draw
	MoveCap int
}

// Default returns the configuration used when no file is given
func Default() *Conf {
	return &Conf{
		Addr:           ":8080",
		Admin:          true,
		Database:       "crjm.db",
		BotLevel:       "advanced",
		BotSeed:        time.Now().UnixNano(),
		BotDelay:       200 * time.Millisecond,
		InterGamePause: time.Second,
		MoveCap:        1000,
	}
}

// Load parses a configuration from R on top of the defaults
func Load(r io.Reader) (*Conf, error) {
	var d data
	meta, err := toml.NewDecoder(r).Decode(&d)
	if err != nil {
		return nil, err
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("unknown configuration key %q", undec[0])
	}

	c := Default()
	if d.Addr != "" {
		c.Addr = d.Addr
	}
	c.Debug = d.Debug
	if meta.IsDefined("admin", "enabled") {
		c.Admin = d.Admin.Enabled
	}
	if meta.IsDefined("database", "file") {
		c.Database = d.Database.File
	}
	if d.Game.BotLevel != "" {
		c.BotLevel = d.Game.BotLevel
	}
	if d.Game.BotSeed != 0 {
		c.BotSeed = d.Game.BotSeed
	}
	if d.Game.BotDelay != "" {
		if c.BotDelay, err = time.ParseDuration(d.Game.BotDelay); err != nil {
			return nil, fmt.Errorf("bad bot-delay: %w", err)
		}
	}
	if d.Game.InterGamePause != "" {
		if c.InterGamePause, err = time.ParseDuration(d.Game.InterGamePause); err != nil {
			return nil, fmt.Errorf("bad inter-game-pause: %w", err)
		}
	}
	c.AutoReady = d.Game.AutoReady
	if d.Game.MoveCap > 0 {
		c.MoveCap = d.Game.MoveCap
	}

	switch c.BotLevel {
	case "basic", "advanced":
	default:
		return nil, fmt.Errorf("unknown bot-level %q", c.BotLevel)
	}
	return c, nil
}

// Dump writes the configuration back out as TOML
func (c *Conf) Dump(w io.Writer) error {
	var d data
	d.Addr = c.Addr
	d.Debug = c.Debug
	d.Admin.Enabled = c.Admin
	d.Database.File = c.Database
	d.Game.BotLevel = c.BotLevel
	d.Game.BotSeed = c.BotSeed
	d.Game.BotDelay = c.BotDelay.String()
	d.Game.InterGamePause = c.InterGamePause.String()
	d.Game.AutoReady = c.AutoReady
	d.Game.MoveCap = c.MoveCap
	return toml.NewEncoder(w).Encode(d)
}

// Open loads the configuration file at PATH
func Open(path string) (*Conf, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
