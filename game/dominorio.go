// Dominório
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

// Domineering on an 8x8 board: P1 places vertical dominoes, P2
// horizontal ones.  The player left without a placement loses.

package game

import (
	"encoding/json"

	crjm "github.com/atilasos/crjm-server"
)

const dominorioSize = 8

// DominorioMove places a domino over two adjacent cells
type DominorioMove struct {
	Row1 int `json:"row1"`
	Col1 int `json:"col1"`
	Row2 int `json:"row2"`
	Col2 int `json:"col2"`
}

type dominorioState struct {
	board [dominorioSize][dominorioSize]uint8 // 0 none, 1 p1, 2 p2
	turn  crjm.Role
}

type dominorioEngine struct{}

func init() { register(dominorioEngine{}) }

func (dominorioEngine) ID() string     { return "dominorio" }
func (dominorioEngine) String() string { return "Dominório" }

func (dominorioEngine) Initial(start crjm.Role) State {
	return &dominorioState{turn: start}
}

func (dominorioEngine) ParseMove(raw json.RawMessage) (Move, error) {
	var m DominorioMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *dominorioState) Turn() crjm.Role { return s.turn }

func (s *dominorioState) Terminal() bool {
	return !s.hasMove(s.turn)
}

func (s *dominorioState) Winner() crjm.Verdict {
	if !s.Terminal() {
		return crjm.NoVerdict
	}
	// The stuck player loses
	return crjm.VerdictFor(s.turn.Other())
}

func (s *dominorioState) Clone() State {
	c := *s
	return &c
}

func (s *dominorioState) inBounds(r, c int) bool {
	return r >= 0 && r < dominorioSize && c >= 0 && c < dominorioSize
}

// legal checks an orientation-correct, canonically ordered placement.
// P1 plays vertical (rows adjacent in one column), P2 horizontal.
func (s *dominorioState) legal(m DominorioMove, role crjm.Role) bool {
	if !s.inBounds(m.Row1, m.Col1) || !s.inBounds(m.Row2, m.Col2) {
		return false
	}
	if s.board[m.Row1][m.Col1] != 0 || s.board[m.Row2][m.Col2] != 0 {
		return false
	}
	dr, dc := m.Row2-m.Row1, m.Col2-m.Col1
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	if role == crjm.RoleP1 {
		return dc == 0 && dr == 1
	}
	return dr == 0 && dc == 1
}

func (s *dominorioState) hasMove(role crjm.Role) bool {
	for r := 0; r < dominorioSize; r++ {
		for c := 0; c < dominorioSize; c++ {
			if s.board[r][c] != 0 {
				continue
			}
			if role == crjm.RoleP1 {
				if r+1 < dominorioSize && s.board[r+1][c] == 0 {
					return true
				}
			} else {
				if c+1 < dominorioSize && s.board[r][c+1] == 0 {
					return true
				}
			}
		}
	}
	return false
}

func (dominorioEngine) Validate(st State, mv Move, role crjm.Role) error {
	s := st.(*dominorioState)
	m, ok := mv.(DominorioMove)
	if !ok {
		return illegalf("bad move type")
	}
	if err := checkTurn(s, role); err != nil {
		return err
	}
	if !s.legal(m, role) {
		return illegalf("cannot place domino (%d,%d)-(%d,%d)",
			m.Row1, m.Col1, m.Row2, m.Col2)
	}
	return nil
}

func (e dominorioEngine) Apply(st State, mv Move, role crjm.Role) (State, error) {
	if err := e.Validate(st, mv, role); err != nil {
		return nil, err
	}
	s := st.Clone().(*dominorioState)
	m := mv.(DominorioMove)

	piece := uint8(1)
	if role == crjm.RoleP2 {
		piece = 2
	}
	s.board[m.Row1][m.Col1] = piece
	s.board[m.Row2][m.Col2] = piece
	s.turn = s.turn.Other()
	return s, nil
}

func (dominorioEngine) Moves(st State, role crjm.Role) []Move {
	s := st.(*dominorioState)
	var moves []Move
	for r := 0; r < dominorioSize; r++ {
		for c := 0; c < dominorioSize; c++ {
			if s.board[r][c] != 0 {
				continue
			}
			if role == crjm.RoleP1 {
				if r+1 < dominorioSize && s.board[r+1][c] == 0 {
					moves = append(moves, DominorioMove{r, c, r + 1, c})
				}
			} else {
				if c+1 < dominorioSize && s.board[r][c+1] == 0 {
					moves = append(moves, DominorioMove{r, c, r, c + 1})
				}
			}
		}
	}
	return moves
}

type dominorioSnapshot struct {
	Board [][]uint8 `json:"board"`
	Turn  string    `json:"turn"`
}

func (dominorioEngine) Encode(st State) (json.RawMessage, error) {
	s := st.(*dominorioState)
	snap := dominorioSnapshot{
		Board: make([][]uint8, dominorioSize),
		Turn:  s.turn.String(),
	}
	for r := 0; r < dominorioSize; r++ {
		snap.Board[r] = append([]uint8(nil), s.board[r][:]...)
	}
	return json.Marshal(snap)
}

func (dominorioEngine) Decode(raw json.RawMessage) (State, error) {
	var snap dominorioSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	turn, err := crjm.ParseRole(snap.Turn)
	if err != nil {
		return nil, err
	}
	s := &dominorioState{turn: turn}
	for r := range snap.Board {
		if r >= dominorioSize {
			break
		}
		for c := range snap.Board[r] {
			if c >= dominorioSize {
				break
			}
			s.board[r][c] = snap.Board[r][c]
		}
	}
	return s, nil
}
