// Wire protocol frames
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

package server

import (
	"encoding/json"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/tourney"
)

// clientFrame is the single inbound envelope.  Unknown fields are
// ignored; the type field selects which of the rest matter.
type clientFrame struct {
	Type string `json:"type"`

	// join_tournament
	GameID     string `json:"gameId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	ClassID    string `json:"classId,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`

	// ready_for_match, submit_move
	MatchID    string          `json:"matchId,omitempty"`
	GameNumber int             `json:"gameNumber,omitempty"`
	Move       json.RawMessage `json:"move,omitempty"`
}

type welcomeFrame struct {
	Type         string `json:"type"`
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	TournamentID string `json:"tournamentId"`
	GameID       string `json:"gameId"`
	Reconnected  bool   `json:"reconnected,omitempty"`
}

func welcome(p *crjm.Player, t *tourney.Tournament, reconnected bool) welcomeFrame {
	return welcomeFrame{
		Type:         "welcome",
		PlayerID:     p.ID,
		PlayerName:   p.Name,
		TournamentID: t.ID,
		GameID:       t.GameID,
		Reconnected:  reconnected,
	}
}

type tournamentStateFrame struct {
	Type       string        `json:"type"`
	Tournament tourney.State `json:"tournament"`
}

func tournamentState(t *tourney.Tournament) tournamentStateFrame {
	return tournamentStateFrame{Type: "tournament_state_update", Tournament: t.State()}
}

type matchAssignedFrame struct {
	Type         string `json:"type"`
	MatchID      string `json:"matchId"`
	Round        int    `json:"round"`
	Bracket      string `json:"bracket"`
	YourRole     string `json:"yourRole"`
	OpponentID   string `json:"opponentId"`
	OpponentName string `json:"opponentName"`
}

type gameStartFrame struct {
	Type         string          `json:"type"`
	MatchID      string          `json:"matchId"`
	GameNumber   int             `json:"gameNumber"`
	GameID       string          `json:"gameId"`
	YourRole     string          `json:"yourRole"`
	StartingRole string          `json:"startingRole"`
	YourTurn     bool            `json:"yourTurn"`
	State        json.RawMessage `json:"state"`
	MatchScore   tourney.Score   `json:"matchScore"`
}

type gameStateFrame struct {
	Type       string          `json:"type"`
	MatchID    string          `json:"matchId"`
	GameNumber int             `json:"gameNumber"`
	State      json.RawMessage `json:"state"`
	YourTurn   bool            `json:"yourTurn"`
	LastMove   json.RawMessage `json:"lastMove,omitempty"`
	LastMoveBy string          `json:"lastMoveBy,omitempty"`
}

type gameEndFrame struct {
	Type       string          `json:"type"`
	MatchID    string          `json:"matchId"`
	GameNumber int             `json:"gameNumber"`
	WinnerID   string          `json:"winnerId,omitempty"`
	WinnerRole string          `json:"winnerRole"`
	IsDraw     bool            `json:"isDraw"`
	FinalState json.RawMessage `json:"finalState"`
	MatchScore tourney.Score   `json:"matchScore"`
}

type matchEndFrame struct {
	Type                     string        `json:"type"`
	MatchID                  string        `json:"matchId"`
	WinnerID                 string        `json:"winnerId"`
	WinnerName               string        `json:"winnerName"`
	FinalScore               tourney.Score `json:"finalScore"`
	YouWon                   bool          `json:"youWon"`
	EliminatedFromTournament bool          `json:"eliminatedFromTournament"`
	NextMatchID              string        `json:"nextMatchId,omitempty"`
}

type tournamentEndFrame struct {
	Type           string             `json:"type"`
	ChampionID     string             `json:"championId"`
	ChampionName   string             `json:"championName"`
	FinalStandings []tourney.Standing `json:"finalStandings"`
}

type errorFrame struct {
	Type    string         `json:"type"`
	Code    crjm.ErrorCode `json:"code"`
	Message string         `json:"message"`
}

func protoError(code crjm.ErrorCode, message string) errorFrame {
	return errorFrame{Type: "error", Code: code, Message: message}
}

type infoFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func info(message string) infoFrame {
	return infoFrame{Type: "info", Message: message}
}
