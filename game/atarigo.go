// Atari Go
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

// First-capture Go on a 9x9 board.  Suicide is forbidden unless the
// placement captures, there is no ko rule, and the first stone taken
// ends the game.  Two consecutive passes end it as a draw.

package game

import (
	"encoding/json"

	crjm "github.com/atilasos/crjm-server"
)

const atariSize = 9

const (
	stoneNone  uint8 = 0
	stoneBlack uint8 = 1
	stoneWhite uint8 = 2
)

// AtariMove places a stone or passes
type AtariMove struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Pass bool `json:"pass,omitempty"`
}

type atariState struct {
	board         [atariSize][atariSize]uint8
	turn          crjm.Role
	passes        int // consecutive passes
	blackCaptures int
	whiteCaptures int
}

type atariEngine struct{}

func init() { register(atariEngine{}) }

func (atariEngine) ID() string     { return "atari-go" }
func (atariEngine) String() string { return "Atari Go" }

func (atariEngine) Initial(start crjm.Role) State {
	return &atariState{turn: start}
}

func (atariEngine) ParseMove(raw json.RawMessage) (Move, error) {
	var m AtariMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func atariStone(role crjm.Role) uint8 {
	if role == crjm.RoleP1 {
		return stoneBlack
	}
	return stoneWhite
}

func (s *atariState) Turn() crjm.Role { return s.turn }

func (s *atariState) Terminal() bool {
	return s.blackCaptures > 0 || s.whiteCaptures > 0 || s.passes >= 2
}

func (s *atariState) Winner() crjm.Verdict {
	switch {
	case s.blackCaptures > 0:
		return crjm.P1Wins
	case s.whiteCaptures > 0:
		return crjm.P2Wins
	case s.passes >= 2:
		return crjm.Draw
	default:
		return crjm.NoVerdict
	}
}

func (s *atariState) Clone() State {
	c := *s
	return &c
}

func atariInBounds(r, c int) bool {
	return r >= 0 && r < atariSize && c >= 0 && c < atariSize
}

var atariDirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// group collects the maximal same-colored group containing (r,c) and
// counts its liberties
func (s *atariState) group(r, c int) (stones [][2]int, liberties int) {
	color := s.board[r][c]
	if color == stoneNone {
		return nil, 0
	}
	var seen [atariSize][atariSize]bool
	var lib [atariSize][atariSize]bool
	stack := [][2]int{{r, c}}
	seen[r][c] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, p)
		for _, d := range atariDirs {
			nr, nc := p[0]+d[0], p[1]+d[1]
			if !atariInBounds(nr, nc) {
				continue
			}
			switch s.board[nr][nc] {
			case stoneNone:
				if !lib[nr][nc] {
					lib[nr][nc] = true
					liberties++
				}
			case color:
				if !seen[nr][nc] {
					seen[nr][nc] = true
					stack = append(stack, [2]int{nr, nc})
				}
			}
		}
	}
	return stones, liberties
}

// place puts a stone and removes any adjacent opposing groups left
// without liberties, returning the number of stones captured
func (s *atariState) place(r, c int, color uint8) int {
	s.board[r][c] = color
	enemy := stoneBlack
	if color == stoneBlack {
		enemy = stoneWhite
	}
	captured := 0
	for _, d := range atariDirs {
		nr, nc := r+d[0], c+d[1]
		if !atariInBounds(nr, nc) || s.board[nr][nc] != enemy {
			continue
		}
		stones, libs := s.group(nr, nc)
		if libs == 0 {
			for _, p := range stones {
				s.board[p[0]][p[1]] = stoneNone
			}
			captured += len(stones)
		}
	}
	return captured
}

func (s *atariState) placementLegal(r, c int, role crjm.Role) bool {
	if !atariInBounds(r, c) || s.board[r][c] != stoneNone {
		return false
	}
	// Try the move on a scratch copy: either it captures, or the
	// placed group keeps at least one liberty.
	scratch := *s
	if scratch.place(r, c, atariStone(role)) > 0 {
		return true
	}
	_, libs := scratch.group(r, c)
	return libs > 0
}

func (atariEngine) Validate(st State, mv Move, role crjm.Role) error {
	s := st.(*atariState)
	m, ok := mv.(AtariMove)
	if !ok {
		return illegalf("bad move type")
	}
	if err := checkTurn(s, role); err != nil {
		return err
	}
	if m.Pass {
		return nil
	}
	if !s.placementLegal(m.Row, m.Col, role) {
		return illegalf("cannot play at (%d,%d)", m.Row, m.Col)
	}
	return nil
}

func (e atariEngine) Apply(st State, mv Move, role crjm.Role) (State, error) {
	if err := e.Validate(st, mv, role); err != nil {
		return nil, err
	}
	s := st.Clone().(*atariState)
	m := mv.(AtariMove)

	if m.Pass {
		s.passes++
	} else {
		s.passes = 0
		captured := s.place(m.Row, m.Col, atariStone(role))
		if role == crjm.RoleP1 {
			s.blackCaptures += captured
		} else {
			s.whiteCaptures += captured
		}
	}
	s.turn = s.turn.Other()
	return s, nil
}

func (atariEngine) Moves(st State, role crjm.Role) []Move {
	s := st.(*atariState)
	var moves []Move
	for r := 0; r < atariSize; r++ {
		for c := 0; c < atariSize; c++ {
			if s.placementLegal(r, c, role) {
				moves = append(moves, AtariMove{Row: r, Col: c})
			}
		}
	}
	// Passing is always legal
	moves = append(moves, AtariMove{Pass: true})
	return moves
}

// AtariGroupsInAtari counts ROLE's groups that are down to a single
// liberty (used by the bot heuristic)
func AtariGroupsInAtari(st State, role crjm.Role) int {
	s := st.(*atariState)
	color := atariStone(role)
	var seen [atariSize][atariSize]bool
	count := 0
	for r := 0; r < atariSize; r++ {
		for c := 0; c < atariSize; c++ {
			if s.board[r][c] != color || seen[r][c] {
				continue
			}
			stones, libs := s.group(r, c)
			for _, p := range stones {
				seen[p[0]][p[1]] = true
			}
			if libs == 1 {
				count++
			}
		}
	}
	return count
}

// AtariCaptures reports the stones ROLE has taken
func AtariCaptures(st State, role crjm.Role) int {
	s := st.(*atariState)
	if role == crjm.RoleP1 {
		return s.blackCaptures
	}
	return s.whiteCaptures
}

type atariSnapshot struct {
	Board         [][]uint8 `json:"board"`
	Turn          string    `json:"turn"`
	Passes        int       `json:"passes"`
	BlackCaptures int       `json:"blackCaptures"`
	WhiteCaptures int       `json:"whiteCaptures"`
}

func (atariEngine) Encode(st State) (json.RawMessage, error) {
	s := st.(*atariState)
	snap := atariSnapshot{
		Board:         make([][]uint8, atariSize),
		Turn:          s.turn.String(),
		Passes:        s.passes,
		BlackCaptures: s.blackCaptures,
		WhiteCaptures: s.whiteCaptures,
	}
	for r := 0; r < atariSize; r++ {
		snap.Board[r] = append([]uint8(nil), s.board[r][:]...)
	}
	return json.Marshal(snap)
}

func (atariEngine) Decode(raw json.RawMessage) (State, error) {
	var snap atariSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	turn, err := crjm.ParseRole(snap.Turn)
	if err != nil {
		return nil, err
	}
	s := &atariState{
		turn:          turn,
		passes:        snap.Passes,
		blackCaptures: snap.BlackCaptures,
		whiteCaptures: snap.WhiteCaptures,
	}
	for r := range snap.Board {
		if r >= atariSize {
			break
		}
		for c := range snap.Board[r] {
			if c >= atariSize {
				break
			}
			s.board[r][c] = snap.Board[r][c]
		}
	}
	return s, nil
}
