// Best-of-three matches
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

package tourney

import (
	"errors"

	crjm "github.com/atilasos/crjm-server"
)

type MatchPhase string

const (
	MatchWaiting  MatchPhase = "waiting"
	MatchPlaying  MatchPhase = "playing"
	MatchFinished MatchPhase = "finished"
)

// BracketSide places a match in the winners or losers bracket.  The
// grand final and its reset count as winners-side.
type BracketSide string

const (
	BracketWinners BracketSide = "winners"
	BracketLosers  BracketSide = "losers"
)

var (
	ErrMatchNotWaiting = errors.New("match is not waiting")
	ErrMatchIncomplete = errors.New("match does not have two players")
	ErrMatchNotPlaying = errors.New("match is not playing")
)

// Score tallies game wins inside a match.  Draws count for nobody.
type Score struct {
	P1Wins int `json:"p1Wins"`
	P2Wins int `json:"p2Wins"`
}

// Match is a best-of-three pairing within a bracket.  Player slots
// fill left-to-right as feeders finish; advancement targets are match
// IDs resolved through the tournament's index, never pointers.
type Match struct {
	ID      string      `json:"id"`
	Round   int         `json:"round"`
	Bracket BracketSide `json:"bracket"`

	P1 string `json:"p1,omitempty"`
	P2 string `json:"p2,omitempty"`

	Score        Score      `json:"score"`
	BestOf       int        `json:"bestOf"`
	CurrentGame  int        `json:"currentGame"`
	StartingRole crjm.Role  `json:"-"`
	Phase        MatchPhase `json:"phase"`

	WinnerID string `json:"winnerId,omitempty"`
	LoserID  string `json:"loserId,omitempty"`

	AdvanceWinnerTo string `json:"advanceWinnerTo,omitempty"`
	AdvanceLoserTo  string `json:"advanceLoserTo,omitempty"`

	ReadyP1 bool `json:"-"`
	ReadyP2 bool `json:"-"`
}

func newMatch(round int, side BracketSide) *Match {
	return &Match{
		ID:      crjm.NewID(),
		Round:   round,
		Bracket: side,
		BestOf:  3,
		Phase:   MatchWaiting,
	}
}

// assign fills the leftmost empty slot
func (m *Match) assign(playerID string) {
	if m.P1 == "" {
		m.P1 = playerID
	} else if m.P2 == "" {
		m.P2 = playerID
	}
}

func (m *Match) filled() int {
	n := 0
	if m.P1 != "" {
		n++
	}
	if m.P2 != "" {
		n++
	}
	return n
}

func (m *Match) Full() bool { return m.filled() == 2 }

func (m *Match) Has(playerID string) bool {
	return playerID != "" && (m.P1 == playerID || m.P2 == playerID)
}

// RoleOf maps a player to their role in this match
func (m *Match) RoleOf(playerID string) crjm.Role {
	switch {
	case playerID != "" && m.P1 == playerID:
		return crjm.RoleP1
	case playerID != "" && m.P2 == playerID:
		return crjm.RoleP2
	default:
		return crjm.RoleNone
	}
}

// PlayerFor is the inverse of RoleOf
func (m *Match) PlayerFor(role crjm.Role) string {
	switch role {
	case crjm.RoleP1:
		return m.P1
	case crjm.RoleP2:
		return m.P2
	default:
		return ""
	}
}

// SetReady flags one player's readiness; both flags gate Start
func (m *Match) SetReady(playerID string) {
	switch playerID {
	case m.P1:
		m.ReadyP1 = true
	case m.P2:
		m.ReadyP2 = true
	}
}

func (m *Match) BothReady() bool { return m.ReadyP1 && m.ReadyP2 }

// neededWins is the best-of threshold: 2 for best-of-three
func (m *Match) neededWins() int { return m.BestOf/2 + 1 }

// Start moves a fully seeded waiting match into play; game 1 starts
// with p1.
func (m *Match) Start() error {
	if m.Phase != MatchWaiting {
		return ErrMatchNotWaiting
	}
	if !m.Full() {
		return ErrMatchIncomplete
	}
	m.Phase = MatchPlaying
	m.CurrentGame = 1
	m.StartingRole = crjm.RoleP1
	return nil
}

// RecordGameResult closes game CurrentGame.  An empty winner is a
// draw: it consumes the game number without scoring.  When neither
// side has reached the threshold the match advances to the next game
// with the starting role flipped: p1 starts odd games, p2 even ones.
// Draws can push the match past game BestOf; it then continues until
// someone actually wins.
func (m *Match) RecordGameResult(winnerID string) (finished bool, err error) {
	if m.Phase != MatchPlaying {
		return false, ErrMatchNotPlaying
	}
	switch winnerID {
	case m.P1:
		m.Score.P1Wins++
	case m.P2:
		m.Score.P2Wins++
	}

	if m.Score.P1Wins >= m.neededWins() || m.Score.P2Wins >= m.neededWins() {
		if m.Score.P1Wins > m.Score.P2Wins {
			m.WinnerID, m.LoserID = m.P1, m.P2
		} else {
			m.WinnerID, m.LoserID = m.P2, m.P1
		}
		m.Phase = MatchFinished
		return true, nil
	}

	m.CurrentGame++
	if m.CurrentGame%2 == 1 {
		m.StartingRole = crjm.RoleP1
	} else {
		m.StartingRole = crjm.RoleP2
	}
	return false, nil
}

// finishWithBye closes an underfilled match: a single present player
// wins without a recorded loser; an empty match finishes with no
// winner at all.
func (m *Match) finishWithBye() {
	m.Phase = MatchFinished
	if m.P1 != "" {
		m.WinnerID = m.P1
	} else if m.P2 != "" {
		m.WinnerID = m.P2
	}
}
