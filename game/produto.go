// Produto
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

// A scoring game on a hexagonal board of radius 4 (61 cells, axial
// coordinates).  Each move places one piece on the very first move
// and exactly two afterwards, of any colors.  When the board is full
// each color scores the product of its two largest connected groups;
// the higher product wins, ties fall to whoever owns fewer pieces of
// their own color, then to a draw.  P1 owns black, P2 white.

package game

import (
	"encoding/json"
	"sort"

	crjm "github.com/atilasos/crjm-server"
)

const produtoRadius = 4

const (
	produtoBlack uint8 = 1
	produtoWhite uint8 = 2
)

// The six axial neighbour offsets
var axialDirs = [6]Axial{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, -1}, {-1, 1},
}

// produtoCells enumerates the board in a fixed order
var produtoCells = func() []Axial {
	var cells []Axial
	for q := -produtoRadius; q <= produtoRadius; q++ {
		for r := -produtoRadius; r <= produtoRadius; r++ {
			if onProdutoBoard(Axial{q, r}) {
				cells = append(cells, Axial{q, r})
			}
		}
	}
	return cells
}()

func onProdutoBoard(a Axial) bool {
	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}
	return abs(a.Q) <= produtoRadius && abs(a.R) <= produtoRadius &&
		abs(a.Q+a.R) <= produtoRadius
}

// ProdutoPlacement is one piece of a Produto move
type ProdutoPlacement struct {
	Coord Axial  `json:"coord"`
	Color string `json:"color"` // "black" or "white"
}

// ProdutoMove places one or two pieces on empty cells
type ProdutoMove struct {
	Placements []ProdutoPlacement `json:"placements"`
}

type produtoState struct {
	cells     map[Axial]uint8
	turn      crjm.Role
	moveCount int
}

type produtoEngine struct{}

func init() { register(produtoEngine{}) }

func (produtoEngine) ID() string     { return "produto" }
func (produtoEngine) String() string { return "Produto" }

func (produtoEngine) Initial(start crjm.Role) State {
	return &produtoState{cells: make(map[Axial]uint8), turn: start}
}

func (produtoEngine) ParseMove(raw json.RawMessage) (Move, error) {
	var m ProdutoMove
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *produtoState) Turn() crjm.Role { return s.turn }

func (s *produtoState) Terminal() bool {
	return len(s.cells) == len(produtoCells)
}

func (s *produtoState) Clone() State {
	c := &produtoState{
		cells:     make(map[Axial]uint8, len(s.cells)),
		turn:      s.turn,
		moveCount: s.moveCount,
	}
	for k, v := range s.cells {
		c.cells[k] = v
	}
	return c
}

// groupSizes returns the connected-group sizes of COLOR, largest first
func (s *produtoState) groupSizes(color uint8) []int {
	seen := make(map[Axial]bool)
	var sizes []int
	for _, start := range produtoCells {
		if s.cells[start] != color || seen[start] {
			continue
		}
		size := 0
		stack := []Axial{start}
		seen[start] = true
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			for _, d := range axialDirs {
				n := Axial{a.Q + d.Q, a.R + d.R}
				if onProdutoBoard(n) && s.cells[n] == color && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		sizes = append(sizes, size)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

func (s *produtoState) score(color uint8) int {
	sizes := s.groupSizes(color)
	if len(sizes) < 2 {
		return 0
	}
	return sizes[0] * sizes[1]
}

func (s *produtoState) count(color uint8) int {
	n := 0
	for _, c := range s.cells {
		if c == color {
			n++
		}
	}
	return n
}

func (s *produtoState) Winner() crjm.Verdict {
	if !s.Terminal() {
		return crjm.NoVerdict
	}
	black, white := s.score(produtoBlack), s.score(produtoWhite)
	switch {
	case black > white:
		return crjm.P1Wins
	case white > black:
		return crjm.P2Wins
	}
	// Equal products: fewer pieces of one's own color wins
	nb, nw := s.count(produtoBlack), s.count(produtoWhite)
	switch {
	case nb < nw:
		return crjm.P1Wins
	case nw < nb:
		return crjm.P2Wins
	default:
		return crjm.Draw
	}
}

// ProdutoScores exposes the product scoring for the bot heuristic
func ProdutoScores(st State) (black, white int) {
	s := st.(*produtoState)
	return s.score(produtoBlack), s.score(produtoWhite)
}

func produtoColor(name string) (uint8, bool) {
	switch name {
	case "black":
		return produtoBlack, true
	case "white":
		return produtoWhite, true
	default:
		return 0, false
	}
}

func (s *produtoState) arity() int {
	if s.moveCount == 0 {
		return 1
	}
	return 2
}

func (produtoEngine) Validate(st State, mv Move, role crjm.Role) error {
	s := st.(*produtoState)
	m, ok := mv.(ProdutoMove)
	if !ok {
		return illegalf("bad move type")
	}
	if err := checkTurn(s, role); err != nil {
		return err
	}
	if len(m.Placements) != s.arity() {
		return illegalf("move %d must place exactly %d piece(s)",
			s.moveCount+1, s.arity())
	}
	seen := make(map[Axial]bool, len(m.Placements))
	for _, p := range m.Placements {
		if _, ok := produtoColor(p.Color); !ok {
			return illegalf("unknown color %q", p.Color)
		}
		if !onProdutoBoard(p.Coord) {
			return illegalf("(%d,%d) is off the board", p.Coord.Q, p.Coord.R)
		}
		if _, filled := s.cells[p.Coord]; filled {
			return illegalf("(%d,%d) is occupied", p.Coord.Q, p.Coord.R)
		}
		if seen[p.Coord] {
			return illegalf("duplicate placement at (%d,%d)", p.Coord.Q, p.Coord.R)
		}
		seen[p.Coord] = true
	}
	return nil
}

func (e produtoEngine) Apply(st State, mv Move, role crjm.Role) (State, error) {
	if err := e.Validate(st, mv, role); err != nil {
		return nil, err
	}
	s := st.Clone().(*produtoState)
	m := mv.(ProdutoMove)

	for _, p := range m.Placements {
		color, _ := produtoColor(p.Color)
		s.cells[p.Coord] = color
	}
	s.moveCount++
	s.turn = s.turn.Other()
	return s, nil
}

func (produtoEngine) Moves(st State, role crjm.Role) []Move {
	s := st.(*produtoState)
	var empty []Axial
	for _, a := range produtoCells {
		if _, filled := s.cells[a]; !filled {
			empty = append(empty, a)
		}
	}

	colors := []string{"black", "white"}
	var moves []Move
	if s.arity() == 1 {
		for _, a := range empty {
			for _, col := range colors {
				moves = append(moves, ProdutoMove{Placements: []ProdutoPlacement{
					{Coord: a, Color: col},
				}})
			}
		}
		return moves
	}
	for i := 0; i < len(empty); i++ {
		for j := i + 1; j < len(empty); j++ {
			for _, c1 := range colors {
				for _, c2 := range colors {
					moves = append(moves, ProdutoMove{Placements: []ProdutoPlacement{
						{Coord: empty[i], Color: c1},
						{Coord: empty[j], Color: c2},
					}})
				}
			}
		}
	}
	return moves
}

type produtoPiece struct {
	Coord Axial  `json:"coord"`
	Color string `json:"color"`
}

type produtoSnapshot struct {
	Pieces    []produtoPiece `json:"pieces"`
	Turn      string         `json:"turn"`
	MoveCount int            `json:"moveCount"`
}

func (produtoEngine) Encode(st State) (json.RawMessage, error) {
	s := st.(*produtoState)
	snap := produtoSnapshot{
		Turn:      s.turn.String(),
		MoveCount: s.moveCount,
	}
	for _, a := range produtoCells {
		switch s.cells[a] {
		case produtoBlack:
			snap.Pieces = append(snap.Pieces, produtoPiece{a, "black"})
		case produtoWhite:
			snap.Pieces = append(snap.Pieces, produtoPiece{a, "white"})
		}
	}
	return json.Marshal(snap)
}

func (produtoEngine) Decode(raw json.RawMessage) (State, error) {
	var snap produtoSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	turn, err := crjm.ParseRole(snap.Turn)
	if err != nil {
		return nil, err
	}
	s := &produtoState{
		cells:     make(map[Axial]uint8, len(snap.Pieces)),
		turn:      turn,
		moveCount: snap.MoveCount,
	}
	for _, p := range snap.Pieces {
		color, ok := produtoColor(p.Color)
		if !ok || !onProdutoBoard(p.Coord) {
			return nil, illegalf("bad piece in snapshot")
		}
		s.cells[p.Coord] = color
	}
	return s, nil
}
