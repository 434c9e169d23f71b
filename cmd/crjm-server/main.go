// Server entry point
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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/bot"
	"github.com/atilasos/crjm-server/conf"
	"github.com/atilasos/crjm-server/db"
	"github.com/atilasos/crjm-server/server"
	"github.com/atilasos/crjm-server/tourney"
)

func main() {
	confFile := flag.String("conf", "", "Path to the TOML configuration file")
	addr := flag.String("addr", "", "Listen address, overrides the configuration")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	c := conf.Default()
	if *confFile != "" {
		var err error
		if c, err = conf.Open(*confFile); err != nil {
			crjm.Log.Fatal().Err(err).Msg("Cannot load configuration")
		}
	}
	if *addr != "" {
		c.Addr = *addr
	}
	if *debug || c.Debug {
		crjm.EnableDebug()
	}

	var archive *db.DB
	if c.Database != "" {
		var err error
		if archive, err = db.Open(c.Database); err != nil {
			crjm.Log.Fatal().Err(err).Msg("Cannot open archive")
		}
		defer archive.Close()
	}

	level, err := bot.ParseLevel(c.BotLevel)
	if err != nil {
		crjm.Log.Fatal().Err(err).Msg("Bad bot level")
	}

	coord := server.NewCoordinator(server.Options{
		Logger:         crjm.Log,
		Manager:        tourney.NewManager(c.BotSeed),
		Policy:         bot.New(level, c.BotSeed),
		Archive:        archive,
		BotDelay:       c.BotDelay,
		InterGamePause: c.InterGamePause,
		AutoReady:      c.AutoReady,
		MoveCap:        c.MoveCap,
	})

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(coord, c.Addr, c.Admin).Run(ctx); err != nil {
		crjm.Log.Fatal().Err(err).Msg("Server failed")
	}
}
