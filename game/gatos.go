// Gatos & Cães
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

// A placement game on an 8x8 board.  P1 places cats, P2 places dogs.
// The first cat must land in the central 2x2 zone, the first dog must
// land outside it, and no piece may ever sit orthogonally next to the
// opposite species.  Whoever makes the last legal placement wins.

package game

import (
	"encoding/json"

	crjm "github.com/atilasos/crjm-server"
)

const (
	gatosSize = 8
	gatosCap  = 28 // placements per species

	cellEmpty uint8 = iota
	cellCat
	cellDog
)

// GatosMove places a single piece
type GatosMove struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type gatosState struct {
	board     [gatosSize][gatosSize]uint8
	catPlaced bool
	dogPlaced bool
	cats      int
	dogs      int
	turn      crjm.Role
}

type gatosEngine struct{}

func init() { register(gatosEngine{}) }

func (gatosEngine) ID() string     { return "gatos-caes" }
func (gatosEngine) String() string { return "Gatos & Cães" }

func (gatosEngine) Initial(start crjm.Role) State {
	return &gatosState{turn: start}
}

func (gatosEngine) ParseMove(raw json.RawMessage) (Move, error) {
	var m GatosMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *gatosState) Turn() crjm.Role { return s.turn }

func (s *gatosState) Terminal() bool {
	return !s.hasMove(s.turn)
}

func (s *gatosState) Winner() crjm.Verdict {
	if !s.Terminal() {
		return crjm.NoVerdict
	}
	// Last mover wins; the stuck player is the one to move.
	return crjm.VerdictFor(s.turn.Other())
}

func (s *gatosState) Clone() State {
	c := *s
	return &c
}

func gatosCentral(r, c int) bool {
	return r >= 3 && r <= 4 && c >= 3 && c <= 4
}

// species maps a role to its piece
func gatosSpecies(role crjm.Role) uint8 {
	if role == crjm.RoleP1 {
		return cellCat
	}
	return cellDog
}

func (s *gatosState) legal(r, c int, role crjm.Role) bool {
	if r < 0 || r >= gatosSize || c < 0 || c >= gatosSize {
		return false
	}
	if s.board[r][c] != cellEmpty {
		return false
	}

	species := gatosSpecies(role)
	if species == cellCat {
		if s.cats >= gatosCap {
			return false
		}
		if !s.catPlaced && !gatosCentral(r, c) {
			return false
		}
	} else {
		if s.dogs >= gatosCap {
			return false
		}
		if !s.dogPlaced && gatosCentral(r, c) {
			return false
		}
	}

	// No orthogonal neighbour of the opposite species
	other := cellCat
	if species == cellCat {
		other = cellDog
	}
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		nr, nc := r+d[0], c+d[1]
		if nr < 0 || nr >= gatosSize || nc < 0 || nc >= gatosSize {
			continue
		}
		if s.board[nr][nc] == other {
			return false
		}
	}
	return true
}

func (s *gatosState) hasMove(role crjm.Role) bool {
	for r := 0; r < gatosSize; r++ {
		for c := 0; c < gatosSize; c++ {
			if s.legal(r, c, role) {
				return true
			}
		}
	}
	return false
}

func (gatosEngine) Validate(st State, mv Move, role crjm.Role) error {
	s := st.(*gatosState)
	m, ok := mv.(GatosMove)
	if !ok {
		return illegalf("bad move type")
	}
	if err := checkTurn(s, role); err != nil {
		return err
	}
	if !s.legal(m.Row, m.Col, role) {
		return illegalf("cannot place at (%d,%d)", m.Row, m.Col)
	}
	return nil
}

func (e gatosEngine) Apply(st State, mv Move, role crjm.Role) (State, error) {
	if err := e.Validate(st, mv, role); err != nil {
		return nil, err
	}
	s := st.Clone().(*gatosState)
	m := mv.(GatosMove)

	if role == crjm.RoleP1 {
		s.board[m.Row][m.Col] = cellCat
		s.catPlaced = true
		s.cats++
	} else {
		s.board[m.Row][m.Col] = cellDog
		s.dogPlaced = true
		s.dogs++
	}
	s.turn = s.turn.Other()
	return s, nil
}

func (gatosEngine) Moves(st State, role crjm.Role) []Move {
	s := st.(*gatosState)
	var moves []Move
	for r := 0; r < gatosSize; r++ {
		for c := 0; c < gatosSize; c++ {
			if s.legal(r, c, role) {
				moves = append(moves, GatosMove{Row: r, Col: c})
			}
		}
	}
	return moves
}

// GatosCounts reports the pieces each side has on the board (used by
// the bot heuristic)
func GatosCounts(st State) (cats, dogs int) {
	s := st.(*gatosState)
	return s.cats, s.dogs
}

type gatosSnapshot struct {
	Board     [][]uint8 `json:"board"`
	CatPlaced bool      `json:"catPlaced"`
	DogPlaced bool      `json:"dogPlaced"`
	Turn      string    `json:"turn"`
}

func (gatosEngine) Encode(st State) (json.RawMessage, error) {
	s := st.(*gatosState)
	snap := gatosSnapshot{
		Board:     make([][]uint8, gatosSize),
		CatPlaced: s.catPlaced,
		DogPlaced: s.dogPlaced,
		Turn:      s.turn.String(),
	}
	for r := 0; r < gatosSize; r++ {
		snap.Board[r] = append([]uint8(nil), s.board[r][:]...)
	}
	return json.Marshal(snap)
}

func (gatosEngine) Decode(raw json.RawMessage) (State, error) {
	var snap gatosSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	turn, err := crjm.ParseRole(snap.Turn)
	if err != nil {
		return nil, err
	}
	s := &gatosState{
		catPlaced: snap.CatPlaced,
		dogPlaced: snap.DogPlaced,
		turn:      turn,
	}
	for r := range snap.Board {
		if r >= gatosSize {
			break
		}
		for c := range snap.Board[r] {
			if c >= gatosSize {
				break
			}
			s.board[r][c] = snap.Board[r][c]
			switch snap.Board[r][c] {
			case cellCat:
				s.cats++
			case cellDog:
				s.dogs++
			}
		}
	}
	return s, nil
}
