// Shared types and identifiers
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
	"fmt"

	"github.com/google/uuid"
)

type (
	Role    uint8
	Verdict uint8
)

const (
	// Roles within a match: P1 is the mover-one (cats, black,
	// vertical, ...), P2 the mover-two.
	RoleNone Role = iota
	RoleP1
	RoleP2

	// Possible game outcomes
	NoVerdict Verdict = iota
	P1Wins
	P2Wins
	Draw
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleP1:
		return "p1"
	case RoleP2:
		return "p2"
	default:
		panic(fmt.Sprintf("Illegal role: %d", r))
	}
}

// Other returns the opposing role
func (r Role) Other() Role {
	switch r {
	case RoleP1:
		return RoleP2
	case RoleP2:
		return RoleP1
	default:
		panic("Illegal role")
	}
}

// ParseRole is the inverse of Role.String
func ParseRole(s string) (Role, error) {
	switch s {
	case "none", "":
		return RoleNone, nil
	case "p1":
		return RoleP1, nil
	case "p2":
		return RoleP2, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

func (v Verdict) String() string {
	switch v {
	case NoVerdict:
		return "none"
	case P1Wins:
		return "p1"
	case P2Wins:
		return "p2"
	case Draw:
		return "draw"
	default:
		panic(fmt.Sprintf("Illegal verdict: %d", v))
	}
}

// Role converts a decisive verdict into the winning role
func (v Verdict) Role() Role {
	switch v {
	case P1Wins:
		return RoleP1
	case P2Wins:
		return RoleP2
	default:
		return RoleNone
	}
}

// VerdictFor returns the verdict declaring ROLE the winner
func VerdictFor(r Role) Verdict {
	switch r {
	case RoleP1:
		return P1Wins
	case RoleP2:
		return P2Wins
	default:
		return NoVerdict
	}
}

// NewID mints a process-unique opaque identifier
func NewID() string {
	return uuid.NewString()
}

// Player is a tournament participant.  Bots are permanently online
// and never map to a connection.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Class  string `json:"class,omitempty"`
	Online bool   `json:"online"`
	IsBot  bool   `json:"isBot"`
}

// ErrorCode is a canonical protocol error identifier, surfaced in
// error frames and admin responses.
type ErrorCode string

const (
	ErrJoinFailed      ErrorCode = "JOIN_FAILED"
	ErrNotInTournament ErrorCode = "NOT_IN_TOURNAMENT"
	ErrMatchNotFound   ErrorCode = "MATCH_NOT_FOUND"
	ErrNotInMatch      ErrorCode = "NOT_IN_MATCH"
	ErrNoActiveGame    ErrorCode = "NO_ACTIVE_GAME"
	ErrInvalidMove     ErrorCode = "INVALID_MOVE"
	ErrParse           ErrorCode = "PARSE_ERROR"
	ErrUnknownMessage  ErrorCode = "UNKNOWN_MESSAGE"
)
