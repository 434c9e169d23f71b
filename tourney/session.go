// Game sessions
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

// Package tourney owns tournaments, their double-elimination
// brackets, best-of-three matches and the game sessions played inside
// them.  All mutation of a tournament funnels through the Manager's
// lock; games themselves are pure values from the game package.
package tourney

import (
	"fmt"
	"sync"
	"time"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/game"
)

// MoveRecord is one accepted move in a session's log
type MoveRecord struct {
	PlayerID string    `json:"playerId"`
	Move     game.Move `json:"move"`
	At       time.Time `json:"at"`
}

// MoveResult reports what a successful move did to the session
type MoveResult struct {
	GameOver bool
	Winner   crjm.Verdict
}

// Session is one playing of one game inside a match.  It latches the
// terminal state: once finished no further move is accepted.
type Session struct {
	ID           string
	TournamentID string
	MatchID      string
	GameNumber   int
	GameID       string

	engine   game.Engine
	state    game.State
	finished bool
	winner   crjm.Verdict
	moves    []MoveRecord
	started  time.Time
	ended    time.Time
}

// NewSession builds the initial position for GAMEID with START to
// move
func NewSession(tournamentID, matchID string, gameNumber int, gameID string, start crjm.Role) (*Session, error) {
	engine, ok := game.ByID(gameID)
	if !ok {
		return nil, fmt.Errorf("unknown game %q", gameID)
	}
	return &Session{
		ID:           crjm.NewID(),
		TournamentID: tournamentID,
		MatchID:      matchID,
		GameNumber:   gameNumber,
		GameID:       gameID,
		engine:       engine,
		state:        engine.Initial(start),
		started:      time.Now(),
	}, nil
}

func (s *Session) Engine() game.Engine  { return s.engine }
func (s *Session) State() game.State    { return s.state }
func (s *Session) Turn() crjm.Role      { return s.state.Turn() }
func (s *Session) Finished() bool       { return s.finished }
func (s *Session) Winner() crjm.Verdict { return s.winner }
func (s *Session) MoveCount() int       { return len(s.moves) }

// Moves returns the accepted move log
func (s *Session) Moves() []MoveRecord {
	return append([]MoveRecord(nil), s.moves...)
}

// SubmitMove validates and applies MV for ROLE.  On success the move
// is logged and, if the engine reports a terminal position, the
// session latches finished with the engine's verdict.
func (s *Session) SubmitMove(playerID string, role crjm.Role, mv game.Move) (MoveResult, error) {
	if s.finished {
		return MoveResult{}, game.ErrGameOver
	}
	next, err := s.engine.Apply(s.state, mv, role)
	if err != nil {
		return MoveResult{}, err
	}
	s.state = next
	s.moves = append(s.moves, MoveRecord{
		PlayerID: playerID,
		Move:     mv,
		At:       time.Now(),
	})
	if next.Terminal() {
		s.finished = true
		s.winner = next.Winner()
		s.ended = time.Now()
	}
	return MoveResult{GameOver: s.finished, Winner: s.winner}, nil
}

// Snapshot serializes the current position
func (s *Session) Snapshot() ([]byte, error) {
	raw, err := s.engine.Encode(s.state)
	if err != nil {
		return nil, fmt.Errorf("encoding %s session %s: %w", s.GameID, s.ID, err)
	}
	return raw, nil
}

// SessionManager tracks the active session of each match.  Exactly
// one session per match is non-finished at any time.
type SessionManager struct {
	mu     sync.Mutex
	active map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{active: make(map[string]*Session)}
}

// Open creates and registers the next session for a match, replacing
// any finished predecessor.
func (sm *SessionManager) Open(tournamentID, matchID string, gameNumber int, gameID string, start crjm.Role) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if prev, ok := sm.active[matchID]; ok && !prev.Finished() {
		return nil, fmt.Errorf("match %s already has a running session", matchID)
	}
	s, err := NewSession(tournamentID, matchID, gameNumber, gameID, start)
	if err != nil {
		return nil, err
	}
	sm.active[matchID] = s
	return s, nil
}

// Get returns the session currently attached to a match
func (sm *SessionManager) Get(matchID string) (*Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.active[matchID]
	return s, ok
}

// Close drops a match's session, finished or not
func (sm *SessionManager) Close(matchID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.active, matchID)
}
