// Quelhas
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

// Misère segment placement on a 10x10 board.  Pieces lose their
// ownership once placed; the vertical player fills column segments of
// two or more cells, the horizontal player row segments.  On move #2
// the second player may swap orientations instead of placing.  The
// player who makes the last placement loses.

package game

import (
	"encoding/json"
	"sort"

	crjm "github.com/atilasos/crjm-server"
)

const quelhasSize = 10

// QuelhasMove is either a contiguous segment of cells or the one-shot
// swap declaration.
type QuelhasMove struct {
	Cells []Cell `json:"cells,omitempty"`
	Swap  bool   `json:"swap,omitempty"`
}

type quelhasState struct {
	board     [quelhasSize][quelhasSize]bool
	turn      crjm.Role
	swapped   bool
	moveCount int
}

type quelhasEngine struct{}

func init() { register(quelhasEngine{}) }

func (quelhasEngine) ID() string     { return "quelhas" }
func (quelhasEngine) String() string { return "Quelhas" }

func (quelhasEngine) Initial(start crjm.Role) State {
	return &quelhasState{turn: start}
}

func (quelhasEngine) ParseMove(raw json.RawMessage) (Move, error) {
	var m QuelhasMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *quelhasState) Turn() crjm.Role { return s.turn }

// verticalRole reports who currently plays column segments
func (s *quelhasState) verticalRole() crjm.Role {
	if s.swapped {
		return crjm.RoleP2
	}
	return crjm.RoleP1
}

func (s *quelhasState) Terminal() bool {
	return !s.hasSegment(s.turn)
}

// Winner honours the misère convention: the player who made the last
// placement loses, so the stuck player wins.
func (s *quelhasState) Winner() crjm.Verdict {
	if !s.Terminal() {
		return crjm.NoVerdict
	}
	return crjm.VerdictFor(s.turn)
}

func (s *quelhasState) Clone() State {
	c := *s
	return &c
}

// line reads cell i of column n (vertical) or row n (horizontal)
func (s *quelhasState) line(vertical bool, n, i int) bool {
	if vertical {
		return s.board[i][n]
	}
	return s.board[n][i]
}

func (s *quelhasState) hasSegment(role crjm.Role) bool {
	vertical := role == s.verticalRole()
	for n := 0; n < quelhasSize; n++ {
		run := 0
		for i := 0; i < quelhasSize; i++ {
			if s.line(vertical, n, i) {
				run = 0
				continue
			}
			run++
			if run >= 2 {
				return true
			}
		}
	}
	return false
}

func (s *quelhasState) swapLegal(role crjm.Role) bool {
	return role == crjm.RoleP2 && s.moveCount == 1 && !s.swapped
}

// segmentLegal checks that CELLS is a contiguous empty run in the
// orientation ROLE is bound to.
func (s *quelhasState) segmentLegal(cells []Cell, role crjm.Role) bool {
	if len(cells) < 2 {
		return false
	}
	vertical := role == s.verticalRole()

	sorted := append([]Cell(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	for i, c := range sorted {
		if c.Row < 0 || c.Row >= quelhasSize || c.Col < 0 || c.Col >= quelhasSize {
			return false
		}
		if s.board[c.Row][c.Col] {
			return false
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if vertical {
			if c.Col != prev.Col || c.Row != prev.Row+1 {
				return false
			}
		} else {
			if c.Row != prev.Row || c.Col != prev.Col+1 {
				return false
			}
		}
	}
	return true
}

func (quelhasEngine) Validate(st State, mv Move, role crjm.Role) error {
	s := st.(*quelhasState)
	m, ok := mv.(QuelhasMove)
	if !ok {
		return illegalf("bad move type")
	}
	if err := checkTurn(s, role); err != nil {
		return err
	}
	if m.Swap {
		if !s.swapLegal(role) {
			return illegalf("swap is only available to p2 on move 2")
		}
		return nil
	}
	if !s.segmentLegal(m.Cells, role) {
		return illegalf("not a legal segment")
	}
	return nil
}

func (e quelhasEngine) Apply(st State, mv Move, role crjm.Role) (State, error) {
	if err := e.Validate(st, mv, role); err != nil {
		return nil, err
	}
	s := st.Clone().(*quelhasState)
	m := mv.(QuelhasMove)

	if m.Swap {
		s.swapped = true
	} else {
		for _, c := range m.Cells {
			s.board[c.Row][c.Col] = true
		}
	}
	s.moveCount++
	s.turn = s.turn.Other()
	return s, nil
}

func (quelhasEngine) Moves(st State, role crjm.Role) []Move {
	s := st.(*quelhasState)
	vertical := role == s.verticalRole()

	var moves []Move
	// Every contiguous sub-segment of length >= 2 within every
	// maximal empty run.  Runs are disjoint, so generating segments
	// by (start, length) within each run is already duplicate-free.
	for n := 0; n < quelhasSize; n++ {
		start := -1
		for i := 0; i <= quelhasSize; i++ {
			empty := i < quelhasSize && !s.line(vertical, n, i)
			if empty {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				for a := start; a < i-1; a++ {
					for b := a + 1; b < i; b++ {
						cells := make([]Cell, 0, b-a+1)
						for k := a; k <= b; k++ {
							if vertical {
								cells = append(cells, Cell{Row: k, Col: n})
							} else {
								cells = append(cells, Cell{Row: n, Col: k})
							}
						}
						moves = append(moves, QuelhasMove{Cells: cells})
					}
				}
				start = -1
			}
		}
	}
	if s.swapLegal(role) {
		moves = append(moves, QuelhasMove{Swap: true})
	}
	return moves
}

type quelhasSnapshot struct {
	Board     [][]bool `json:"board"`
	Turn      string   `json:"turn"`
	Swapped   bool     `json:"swapped"`
	MoveCount int      `json:"moveCount"`
}

func (quelhasEngine) Encode(st State) (json.RawMessage, error) {
	s := st.(*quelhasState)
	snap := quelhasSnapshot{
		Board:     make([][]bool, quelhasSize),
		Turn:      s.turn.String(),
		Swapped:   s.swapped,
		MoveCount: s.moveCount,
	}
	for r := 0; r < quelhasSize; r++ {
		snap.Board[r] = append([]bool(nil), s.board[r][:]...)
	}
	return json.Marshal(snap)
}

func (quelhasEngine) Decode(raw json.RawMessage) (State, error) {
	var snap quelhasSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	turn, err := crjm.ParseRole(snap.Turn)
	if err != nil {
		return nil, err
	}
	s := &quelhasState{
		turn:      turn,
		swapped:   snap.Swapped,
		moveCount: snap.MoveCount,
	}
	for r := range snap.Board {
		if r >= quelhasSize {
			break
		}
		for c := range snap.Board[r] {
			if c >= quelhasSize {
				break
			}
			s.board[r][c] = snap.Board[r][c]
		}
	}
	return s, nil
}
