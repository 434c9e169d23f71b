// Engine contract and registry
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

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	crjm "github.com/atilasos/crjm-server"
)

var (
	// ErrNotYourTurn rejects a move made out of turn
	ErrNotYourTurn = errors.New("not your turn")
	// ErrGameOver rejects a move on a finished game
	ErrGameOver = errors.New("game already finished")
	// ErrIllegalMove rejects a move that violates the game rules
	ErrIllegalMove = errors.New("illegal move")
)

// Move is a game-specific move value, produced by the owning engine's
// ParseMove and only meaningful to that engine.
type Move any

// State is an immutable-by-convention game position.  Operations that
// progress the game go through the engine and return fresh values.
type State interface {
	// Turn reports whose move it is
	Turn() crjm.Role
	// Terminal reports whether the game has ended
	Terminal() bool
	// Winner reports the outcome of a terminal state
	Winner() crjm.Verdict
	// Clone returns a deep copy
	Clone() State
}

// Engine is the uniform rules contract implemented by all six games.
type Engine interface {
	fmt.Stringer

	// ID is the wire identifier of the game
	ID() string
	// Initial builds the starting position with START to move
	Initial(start crjm.Role) State
	// ParseMove decodes a wire payload into the engine's move type
	ParseMove(raw json.RawMessage) (Move, error)
	// Validate checks M for ROLE against S without applying it
	Validate(s State, m Move, role crjm.Role) error
	// Apply progresses S by M; the precondition is that Validate
	// holds, and Apply re-checks it
	Apply(s State, m Move, role crjm.Role) (State, error)
	// Moves enumerates the placements ROLE could legally make if it
	// were to move in S.  It deliberately ignores whose turn it is,
	// so that it can drive both "opponent cannot move" checks and
	// the bot heuristics.
	Moves(s State, role crjm.Role) []Move
	// Encode serializes S for the wire
	Encode(s State) (json.RawMessage, error)
	// Decode is the inverse of Encode
	Decode(raw json.RawMessage) (State, error)
}

var engines = make(map[string]Engine)

func register(e Engine) {
	if _, dup := engines[e.ID()]; dup {
		panic(fmt.Sprintf("Duplicate engine: %s", e.ID()))
	}
	engines[e.ID()] = e
}

// ByID looks up an engine by its wire identifier
func ByID(id string) (Engine, bool) {
	e, ok := engines[id]
	return e, ok
}

// IDs lists the registered game identifiers in stable order
func IDs() []string {
	ids := make([]string, 0, len(engines))
	for id := range engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cell addresses a square-board position
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Axial addresses a hex-board position (see Produto)
type Axial struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func illegalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalMove, fmt.Sprintf(format, args...))
}

// checkTurn is the shared turn/terminal gate of every Validate
func checkTurn(s State, role crjm.Role) error {
	if s.Terminal() {
		return ErrGameOver
	}
	if s.Turn() != role {
		return ErrNotYourTurn
	}
	return nil
}
