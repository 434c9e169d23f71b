// Nex
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

// A connection game on an 11x11 board with hexagonal adjacency.  A
// move either places one own stone plus one neutral stone on empty
// cells, or converts two neutral stones to one's color while demoting
// one own stone to neutral.  The second player may swap colors on
// move #2.  Black tries to connect the top and bottom edges, white
// the left and right edges.

package game

import (
	"encoding/json"

	crjm "github.com/atilasos/crjm-server"
)

const nexSize = 11

const (
	nexEmpty   uint8 = 0
	nexBlack   uint8 = 1
	nexWhite   uint8 = 2
	nexNeutral uint8 = 3
)

// The six hexagonal neighbours on the square grid
var nexDirs = [6][2]int{
	{-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0},
}

// NexMove is one of the three move kinds
type NexMove struct {
	Type    string `json:"type"`                        // "place", "convert" or "swap"
	Piece   *Cell  `json:"ownPiece,omitempty"`          // place: the own stone
	Neutral *Cell  `json:"neutralPiece,omitempty"`      // place: the neutral stone
	Convert []Cell `json:"neutralsToConvert,omitempty"` // convert: two neutrals gained
	Revert  *Cell  `json:"ownToNeutral,omitempty"`      // convert: the own stone given up
}

type nexState struct {
	board     [nexSize][nexSize]uint8
	turn      crjm.Role
	swapped   bool
	moveCount int
}

type nexEngine struct{}

func init() { register(nexEngine{}) }

func (nexEngine) ID() string     { return "nex" }
func (nexEngine) String() string { return "Nex" }

func (nexEngine) Initial(start crjm.Role) State {
	return &nexState{turn: start}
}

func (nexEngine) ParseMove(raw json.RawMessage) (Move, error) {
	var m NexMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *nexState) Turn() crjm.Role { return s.turn }

// color maps ROLE to its stone, honouring a swap
func (s *nexState) color(role crjm.Role) uint8 {
	black := role == crjm.RoleP1
	if s.swapped {
		black = !black
	}
	if black {
		return nexBlack
	}
	return nexWhite
}

// NexColor reports whether ROLE currently plays black (used by the
// bot heuristic)
func NexColor(st State, role crjm.Role) (black bool) {
	s := st.(*nexState)
	return s.color(role) == nexBlack
}

func nexInBounds(r, c int) bool {
	return r >= 0 && r < nexSize && c >= 0 && c < nexSize
}

// connected reports whether COLOR joins its two edges: black rows 0
// and 10, white columns 0 and 10
func (s *nexState) connected(color uint8) bool {
	var seen [nexSize][nexSize]bool
	var stack [][2]int
	for i := 0; i < nexSize; i++ {
		if color == nexBlack && s.board[0][i] == color {
			seen[0][i] = true
			stack = append(stack, [2]int{0, i})
		}
		if color == nexWhite && s.board[i][0] == color {
			seen[i][0] = true
			stack = append(stack, [2]int{i, 0})
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if color == nexBlack && p[0] == nexSize-1 {
			return true
		}
		if color == nexWhite && p[1] == nexSize-1 {
			return true
		}
		for _, d := range nexDirs {
			nr, nc := p[0]+d[0], p[1]+d[1]
			if nexInBounds(nr, nc) && !seen[nr][nc] && s.board[nr][nc] == color {
				seen[nr][nc] = true
				stack = append(stack, [2]int{nr, nc})
			}
		}
	}
	return false
}

func (s *nexState) countStones() (empty, neutral int, own [3]int) {
	for r := 0; r < nexSize; r++ {
		for c := 0; c < nexSize; c++ {
			switch s.board[r][c] {
			case nexEmpty:
				empty++
			case nexNeutral:
				neutral++
			case nexBlack:
				own[nexBlack]++
			case nexWhite:
				own[nexWhite]++
			}
		}
	}
	return
}

// hasAnyMove reports whether ROLE can still act
func (s *nexState) hasAnyMove(role crjm.Role) bool {
	empty, neutral, own := s.countStones()
	if empty >= 2 {
		return true
	}
	return neutral >= 2 && own[s.color(role)] >= 1
}

func (s *nexState) Terminal() bool {
	return s.connected(nexBlack) || s.connected(nexWhite) ||
		!s.hasAnyMove(s.turn)
}

func (s *nexState) Winner() crjm.Verdict {
	winning := nexEmpty
	switch {
	case s.connected(nexBlack):
		winning = nexBlack
	case s.connected(nexWhite):
		winning = nexWhite
	case !s.hasAnyMove(s.turn):
		return crjm.Draw
	default:
		return crjm.NoVerdict
	}
	if s.color(crjm.RoleP1) == winning {
		return crjm.P1Wins
	}
	return crjm.P2Wins
}

func (s *nexState) Clone() State {
	c := *s
	return &c
}

func (s *nexState) swapLegal(role crjm.Role) bool {
	return role == crjm.RoleP2 && s.moveCount == 1 && !s.swapped
}

func (s *nexState) cellIs(c *Cell, want uint8) bool {
	return c != nil && nexInBounds(c.Row, c.Col) && s.board[c.Row][c.Col] == want
}

func (nexEngine) Validate(st State, mv Move, role crjm.Role) error {
	s := st.(*nexState)
	m, ok := mv.(NexMove)
	if !ok {
		return illegalf("bad move type")
	}
	if err := checkTurn(s, role); err != nil {
		return err
	}
	switch m.Type {
	case "place":
		if !s.cellIs(m.Piece, nexEmpty) || !s.cellIs(m.Neutral, nexEmpty) {
			return illegalf("placement needs two empty cells")
		}
		if *m.Piece == *m.Neutral {
			return illegalf("placement cells must differ")
		}
		return nil
	case "convert":
		if len(m.Convert) != 2 {
			return illegalf("conversion needs exactly two neutral stones")
		}
		if m.Convert[0] == m.Convert[1] {
			return illegalf("conversion cells must differ")
		}
		for i := range m.Convert {
			if !s.cellIs(&m.Convert[i], nexNeutral) {
				return illegalf("(%d,%d) is not neutral",
					m.Convert[i].Row, m.Convert[i].Col)
			}
		}
		if !s.cellIs(m.Revert, s.color(role)) {
			return illegalf("conversion must give up one own stone")
		}
		return nil
	case "swap":
		if !s.swapLegal(role) {
			return illegalf("swap is only available to p2 on move 2")
		}
		return nil
	default:
		return illegalf("unknown move kind %q", m.Type)
	}
}

func (e nexEngine) Apply(st State, mv Move, role crjm.Role) (State, error) {
	if err := e.Validate(st, mv, role); err != nil {
		return nil, err
	}
	s := st.Clone().(*nexState)
	m := mv.(NexMove)

	switch m.Type {
	case "place":
		s.board[m.Piece.Row][m.Piece.Col] = s.color(role)
		s.board[m.Neutral.Row][m.Neutral.Col] = nexNeutral
	case "convert":
		for _, c := range m.Convert {
			s.board[c.Row][c.Col] = s.color(role)
		}
		s.board[m.Revert.Row][m.Revert.Col] = nexNeutral
	case "swap":
		s.swapped = true
	}
	s.moveCount++
	s.turn = s.turn.Other()
	return s, nil
}

func (nexEngine) Moves(st State, role crjm.Role) []Move {
	s := st.(*nexState)
	var empty, neutrals, owns []Cell
	for r := 0; r < nexSize; r++ {
		for c := 0; c < nexSize; c++ {
			cell := Cell{Row: r, Col: c}
			switch s.board[r][c] {
			case nexEmpty:
				empty = append(empty, cell)
			case nexNeutral:
				neutrals = append(neutrals, cell)
			case s.color(role):
				owns = append(owns, cell)
			}
		}
	}

	var moves []Move
	for i := range empty {
		for j := range empty {
			if i == j {
				continue
			}
			p, n := empty[i], empty[j]
			moves = append(moves, NexMove{Type: "place", Piece: &p, Neutral: &n})
		}
	}
	for i := 0; i < len(neutrals); i++ {
		for j := i + 1; j < len(neutrals); j++ {
			for _, o := range owns {
				rev := o
				moves = append(moves, NexMove{
					Type:    "convert",
					Convert: []Cell{neutrals[i], neutrals[j]},
					Revert:  &rev,
				})
			}
		}
	}
	if s.swapLegal(role) {
		moves = append(moves, NexMove{Type: "swap"})
	}
	return moves
}

type nexSnapshot struct {
	Board     [][]uint8 `json:"board"`
	Turn      string    `json:"turn"`
	Swapped   bool      `json:"swapped"`
	MoveCount int       `json:"moveCount"`
}

func (nexEngine) Encode(st State) (json.RawMessage, error) {
	s := st.(*nexState)
	snap := nexSnapshot{
		Board:     make([][]uint8, nexSize),
		Turn:      s.turn.String(),
		Swapped:   s.swapped,
		MoveCount: s.moveCount,
	}
	for r := 0; r < nexSize; r++ {
		snap.Board[r] = append([]uint8(nil), s.board[r][:]...)
	}
	return json.Marshal(snap)
}

func (nexEngine) Decode(raw json.RawMessage) (State, error) {
	var snap nexSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	turn, err := crjm.ParseRole(snap.Turn)
	if err != nil {
		return nil, err
	}
	s := &nexState{
		turn:      turn,
		swapped:   snap.Swapped,
		moveCount: snap.MoveCount,
	}
	for r := range snap.Board {
		if r >= nexSize {
			break
		}
		for c := range snap.Board[r] {
			if c >= nexSize {
				break
			}
			s.board[r][c] = snap.Board[r][c]
		}
	}
	return s, nil
}
